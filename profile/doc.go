// Package profile provides optional runtime profiling for the interp
// command.
//
// Profiling wraps [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag. Without the tag every operation is a no-op and [Modes]
// yields nothing.
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/profiles"}
//	defer p.Start().Stop()
//
// Profile files are written to Path with names matching the mode
// (cpu.pprof, mem.pprof, and so on). Analyze them with go tool pprof:
//
//	go tool pprof -http=: /tmp/profiles/cpu.pprof
package profile
