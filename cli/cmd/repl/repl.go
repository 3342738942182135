package repl

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/interp/interp"
	"github.com/ardnew/interp/log"
	"github.com/ardnew/interp/trust"
)

const (
	tmplPrompt = "» "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help            Print this cruft
  keys [path]     List data keys, optionally below a dotted path
  delims          Show the expression markers
  trust [ctx]     Show or set the trust context templates compile for
  set key=value   Override a data value and reload
  reload          Reload the data files
  clear           Clear screen
  quit            Exit REPL

Usage:
  Type a template to render it against the loaded data
  Completions appear inside an expression as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between template and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeTemplate inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// Config holds everything the REPL needs from its caller.
type Config struct {
	// Interp compiles each entered template.
	Interp *interp.Interpolator
	// Load returns the data context with the given overrides applied.
	Load func(set map[string]string) (map[string]any, error)
	// History is the path of the history file. Empty keeps history in memory.
	History string
	Logger  log.Logger
	Trusted trust.Context
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	interp       *interp.Interpolator
	load         func(map[string]string) (map[string]any, error)
	data         map[string]any
	set          map[string]string
	logger       log.Logger
	history      *History
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	preTabText   string        // input text before tab-cycling began
	tmplText     string
	ctrlText     string
	historyIdx   int
	wordStart    int // byte offset of current word start
	wordEnd      int // byte offset of current word end
	suggIdx      int // selected candidate index
	preTabCursor int // cursor position before tab-cycling began
	width        int // terminal width for ellipsization
	tmplCursor   int
	ctrlCursor   int
	mode         inputMode
	trusted      trust.Context
	tabActive    bool // whether user is tab-cycling
	quitting     bool
}

// Run starts the REPL.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cfg.Logger.TraceContext(
		ctx,
		"repl start",
		slog.String("history", cfg.History),
		slog.String("trusted", cfg.Trusted.String()),
	)

	if cfg.Interp == nil {
		return ErrNoCompiler
	}

	history := NewHistory(cfg.History)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	m, err := newModel(ctx, cfg, history)
	if err != nil {
		return err
	}

	cfg.Logger.TraceContext(
		ctx,
		"repl data loaded",
		slog.Int("key_count", len(m.data)),
		slog.Int("history_count", history.Len()),
	)

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, cfg Config, history *History) (model, error) {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(tmplPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	load := cfg.Load
	if load == nil {
		load = func(map[string]string) (map[string]any, error) { return nil, nil }
	}

	m := model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		interp:     cfg.Interp,
		load:       load,
		set:        make(map[string]string),
		logger:     cfg.Logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeTemplate,
		trusted:    cfg.Trusted,
		suggIdx:    -1,
	}

	var err error

	m.data, err = m.load(m.set)

	return m, err
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(tmplPrompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch input := m.input.Value(); {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		hint := "Type a template or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyStep(-1, false), nil

	case tea.KeyDown:
		return m.historyStep(1, false), nil

	case tea.KeyShiftUp:
		return m.historyStep(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyStep(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		if m.mode == modeTemplate {
			return m.switchToMode(modeCtrl), nil
		}

		return m.switchToMode(modeTemplate), nil

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Any other key (backspace, delete, arrows) edits without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step, completing immediately when there
// is a single candidate.
func (m model) cycle(step int) model {
	n := len(m.matches)

	switch {
	case n == 0:
		return m

	case n == 1:
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m

	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0

		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word in the input with replacement
// and moves the cursor to its end.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// With autoConfirm, a sole candidate equal to the typed word is accepted.
// Deletions and cursor movement pass false so editing never completes
// unexpectedly.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if candidate := m.matches[0].Str; m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		replaceCurrentWord(m, candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	line := m.input.Value()
	if strings.TrimSpace(line) == "" {
		return m, nil
	}

	m.tmplText, m.tmplCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(line, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(line))

		var (
			out  string
			quit bool
			err  error
		)

		m, out, quit, err = m.command(line)

		switch {
		case quit:
			m.quitting = true

			return m, tea.Sequence(echo, tea.Quit)

		case err != nil:
			return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))

		case out == clearScreen:
			return m, tea.ClearScreen
		}

		return m, tea.Sequence(echo, tea.Println(out))
	}

	echo := tea.Println(promptStyle.Render(tmplPrompt) + inputStyle.Render(line))

	out, err := m.render(line)
	if err != nil {
		return m, tea.Sequence(echo, tea.Println(errorStyle.Render(err.Error())))
	}

	return m, tea.Sequence(echo, tea.Println(resultStyle.Render(out)))
}

// render compiles line for the current trust context and evaluates it
// against the loaded data.
func (m model) render(line string) (string, error) {
	tpl, err := m.interp.Compile(line, false, m.trusted)
	if err != nil {
		m.logger.TraceContext(m.ctxFunc(), "repl compile failed", slog.Any("error", err))

		return "", err
	}

	out, err := tpl.Evaluate(m.data)

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl render",
		slog.String("template", line),
		slog.Bool("ok", err == nil),
	)

	return out, err
}

// clearScreen is returned by command to request a screen clear.
const clearScreen = "\x1b[clear]"

// command executes a control-mode command line.
func (m model) command(line string) (_ model, out string, quit bool, err error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return m, "", false, nil
	}

	name, args := parts[0], parts[1:]

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl command",
		slog.String("command", name),
		slog.Any("args", args),
	)

	switch name {
	case "q", "quit", "exit":
		return m, "", true, nil

	case "h", "help":
		return m, helpMessage(), false, nil

	case "k", "keys":
		return m, m.keysView(strings.Join(args, "")), false, nil

	case "d", "delims":
		return m, m.delimsView(), false, nil

	case "t", "trust":
		if len(args) > 0 {
			if m.trusted, err = trust.ParseContext(args[0]); err != nil {
				return m, "", false, err
			}
		}

		return m, "trust context: " + m.trusted.String(), false, nil

	case "s", "set":
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok || key == "" {
				return m, "", false, fmt.Errorf("invalid assignment %q (want key=value)", arg)
			}

			m.set[key] = value
		}

		fallthrough

	case "r", "reload":
		var data map[string]any

		if data, err = m.load(m.set); err != nil {
			return m, "", false, err
		}

		m.data = data

		return m, fmt.Sprintf("loaded %d keys", len(m.data)), false, nil

	case "c", "clear":
		return m, clearScreen, false, nil
	}

	return m, "", false, fmt.Errorf("unknown command: %s (try 'help')", name)
}

// keysView lists the keys below path with a short preview of each value.
func (m model) keysView(path string) string {
	var node any = m.data

	if path != "" {
		for seg := range strings.SplitSeq(path, ".") {
			mv, ok := node.(map[string]any)
			if !ok {
				return hintStyle.Render("(not a mapping)")
			}

			node = mv[seg]
		}
	}

	mv, ok := node.(map[string]any)
	if !ok || len(mv) == 0 {
		return hintStyle.Render("(no keys)")
	}

	var b strings.Builder

	for _, key := range slices.Sorted(maps.Keys(mv)) {
		fmt.Fprintf(&b, "  %s %s\n", key, hintStyle.Render(formatPreview(mv[key])))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m model) delimsView() string {
	return fmt.Sprintf(
		"  expression  %s ... %s\n  deferred    %s ... %s",
		m.interp.StartSymbol(), m.interp.EndSymbol(),
		m.interp.UnwrapStartSymbol(), m.interp.UnwrapEndSymbol(),
	)
}

// historyStep moves through history by step. With inMode, entries from the
// other mode are skipped; otherwise the mode follows the entry.
func (m model) historyStep(step int, inMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil || (inMode && entry.Mode != m.mode) {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m
	}

	// Stepping past the newest entry clears the input.
	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

// switchToMode switches input modes, preserving each mode's pending input.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeTemplate {
		m.tmplText, m.tmplCursor = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode

	if mode == modeTemplate {
		m.input.Prompt = promptStyle.Render(tmplPrompt)
		m.input.SetValue(m.tmplText)
		m.input.SetCursor(m.tmplCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m
}
