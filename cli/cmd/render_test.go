package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/ardnew/interp/interp"
	"github.com/ardnew/interp/trust"
)

func TestRenderRun(t *testing.T) {
	dir := t.TempDir()
	values := writeFile(t, dir, "values.yaml", "user: {name: ann}\nn: 3\n")
	tmpl := writeFile(t, dir, "greet.tmpl", "Hi {{user.name}}!")

	tests := []struct {
		name    string
		render  Render
		stdin   string
		set     map[string]string
		want    string
		wantErr error
	}{
		{
			name:   "file",
			render: Render{Template: tmpl},
			want:   "Hi ann!",
		},
		{
			name:   "stdin",
			render: Render{Template: stdinSource},
			stdin:  "{{n * 2}} items",
			want:   "6 items",
		},
		{
			name:   "set_override",
			render: Render{Template: tmpl},
			set:    map[string]string{"user.name": "bob"},
			want:   "Hi bob!",
		},
		{
			name:   "plain_text",
			render: Render{Template: stdinSource},
			stdin:  "no expressions",
			want:   "no expressions",
		},
		{
			name:    "must_have_expression",
			render:  Render{Template: stdinSource, MustHaveExpression: true},
			stdin:   "no expressions",
			wantErr: ErrPlainText,
		},
		{
			name:    "trusted_concatenation",
			render:  Render{Template: stdinSource, Trusted: trust.URL},
			stdin:   "{{a}}{{b}}",
			wantErr: interp.ErrNoConcatenation,
		},
		{
			name:    "untrusted_value",
			render:  Render{Template: stdinSource, Trusted: trust.HTML},
			stdin:   "{{user}}",
			wantErr: ErrRender,
		},
		{
			name:    "render_error",
			render:  Render{Template: stdinSource},
			stdin:   "{{n % 0}}",
			wantErr: ErrRender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newSession(tt.stdin, []string{values}, tt.set)

			err := tt.render.Run(WithSession(context.Background(), s))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if got := out.String(); got != tt.want {
				t.Errorf("Run() output = %q, want %q", got, tt.want)
			}
		})
	}
}
