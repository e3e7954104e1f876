package testutil

import "go.uber.org/goleak"

// LeakOptions returns the goleak options shared by every package test plus
// extra. The opencensus view worker is started by a package init in the
// Gemini SDK's dependency chain and lives for the whole process.
func LeakOptions(extra ...goleak.Option) []goleak.Option {
	return append([]goleak.Option{
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	}, extra...)
}
