package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	source string
	out    io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSource sets the source Space whose duplicates are searched for.
func WithSource(source string) Option {
	return func(a *application) {
		a.source = source
	}
}

// WithOutput redirects the report, which goes to stdout by default.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}
