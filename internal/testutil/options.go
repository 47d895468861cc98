//go:build integration

package testutil

// Option configures RunIntegrationTests.
type Option func(*options)

type options struct {
	RunMigrations  bool
	SkipIfNoDocker bool
}

// WithMigrations applies db/migrations once the container is up.
func WithMigrations() Option {
	return func(o *options) { o.RunMigrations = true }
}

// SkipIfNoDocker reports a skip instead of failing when no container runtime
// is available.
func SkipIfNoDocker() Option {
	return func(o *options) { o.SkipIfNoDocker = true }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
