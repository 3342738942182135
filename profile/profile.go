package profile

// Tag is the build tag that enables profiling. It also names the profile
// output directory and the CLI flag group.
const Tag = `pprof`

// Stopper ends a running profile and flushes its output.
type Stopper interface{ Stop() }

// Profiler configures a single profiling session.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Option configures a [Profiler].
type Option func(*Profiler)

// New returns a Profiler with the given options applied.
func New(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// WithMode sets the profiling mode. See [Modes].
func WithMode(mode string) Option { return func(p *Profiler) { p.Mode = mode } }

// WithPath sets the output directory.
func WithPath(path string) Option { return func(p *Profiler) { p.Path = path } }

// WithQuiet suppresses the profiler's own log output.
func WithQuiet(quiet bool) Option { return func(p *Profiler) { p.Quiet = quiet } }

// Start begins profiling and returns a handle for stopping it.
//
// An empty or unsupported Mode, or a build without the pprof tag, returns a
// no-op. Both Start and Stop are always safely callable.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
