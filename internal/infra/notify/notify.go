package notify

import "context"

// Notifier pushes operational alerts (stock shortages, below-minimum levels)
// to whoever watches the plant. Implementations must be safe to call from
// request handlers; failures are logged, never propagated into stock flows.
type Notifier interface {
	Alert(ctx context.Context, text string) error
}

// Noop discards alerts. Used when no channel is configured.
type Noop struct{}

func (Noop) Alert(context.Context, string) error { return nil }
