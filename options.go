package assetstore

import "go.uber.org/zap"

// Options holds functional options for customizing adapter behavior
type Options struct {
	logger    *zap.Logger
	resizer   Resizer
	widths    []int
	widthsSet bool
	metrics   *Metrics
	onVariant func(Variant, error)
}

// Option is a functional option for configuring the Adapter
type Option func(*Options)

// WithLogger sets a custom zap logger
func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithResizer sets a custom derivative re-encoding capability
func WithResizer(r Resizer) Option {
	return func(opts *Options) {
		opts.resizer = r
	}
}

// WithWidths sets a custom derivative size ladder. An empty ladder
// disables variant generation entirely.
func WithWidths(widths ...int) Option {
	return func(opts *Options) {
		opts.widths = widths
		opts.widthsSet = true
	}
}

// WithMetrics wires prometheus instrumentation into the adapter
func WithMetrics(m *Metrics) Option {
	return func(opts *Options) {
		opts.metrics = m
	}
}

// WithVariantCallback registers a hook invoked once per completed
// derivative upload attempt. Variant failures stay outside Save's result
// contract; the hook is the only way to observe them besides the log.
func WithVariantCallback(fn func(v Variant, err error)) Option {
	return func(opts *Options) {
		opts.onVariant = fn
	}
}

func (opts *Options) applyDefaults() {
	if opts.logger == nil {
		opts.logger = zap.NewNop()
	}
	if opts.resizer == nil {
		opts.resizer = ImagingResizer{}
	}
	if !opts.widthsSet {
		opts.widths = DefaultWidths
	}
}
