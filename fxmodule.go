package assetstore

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the adapter for fx. It expects the host to supply a
// *Config and an ObjectStore implementation (for example the one in
// adapters/s3); logger, resizer and metrics are optional.
func Module() fx.Option {
	return fx.Module("assetstore",
		fx.Provide(NewFromParams),
		fx.Invoke(registerLifecycle),
	)
}

// Params defines the dependencies needed for adapter creation
type Params struct {
	fx.In

	Config  *Config
	Store   ObjectStore
	Logger  *zap.Logger `optional:"true"`
	Resizer Resizer     `optional:"true"`
	Metrics *Metrics    `optional:"true"`
}

// NewFromParams creates the adapter from the fx dependency graph
func NewFromParams(p Params) (*Adapter, error) {
	var opts []Option
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Resizer != nil {
		opts = append(opts, WithResizer(p.Resizer))
	}
	if p.Metrics != nil {
		opts = append(opts, WithMetrics(p.Metrics))
	}
	return New(p.Store, p.Config, opts...)
}

// LifecycleParams defines parameters for lifecycle management
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Adapter   *Adapter
	Store     ObjectStore
	Logger    *zap.Logger `optional:"true"`
}

// registerLifecycle registers shutdown hooks for graceful cleanup
func registerLifecycle(p LifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.Logger != nil {
				p.Logger.Info("assetstore started", zap.String("asset_host", p.Adapter.AssetHost()))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if closer, ok := p.Store.(interface{ Close() error }); ok {
				return closer.Close()
			}
			return nil
		},
	})
}

// WithCustomStore provides a concrete ObjectStore instance to the fx graph.
// Useful for tests or hosts that construct the store themselves.
func WithCustomStore(s ObjectStore) fx.Option {
	return fx.Supply(fx.Annotate(s, fx.As(new(ObjectStore))))
}
