package resolve

import "log/slog"

// Option configures a resolver factory.
type Option func(*options)

type options struct {
	delay  int
	logger *slog.Logger
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithDelay makes each resolution stay running for ticks ticks before the
// condition is sensed.
func WithDelay(ticks int) Option {
	return func(o *options) {
		if ticks > 0 {
			o.delay = ticks
		}
	}
}

// WithLogger sets the logger for evaluation errors. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}
