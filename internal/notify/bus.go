package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Relay carries events between processes that share one database. Every
// process listening on the relay delivers what it receives to its own
// registry, including the process that published it.
type Relay interface {
	Name() string
	Publish(ctx context.Context, event Event) error
	// Listen blocks, calling handle for each event, until ctx is done.
	Listen(ctx context.Context, handle func(Event)) error
}

// Bus routes events to live channels.
type Bus struct {
	registry *Registry
	relay    Relay
	logger   *slog.Logger
}

// NewBus creates a Bus. relay may be nil for a single process.
func NewBus(registry *Registry, relay Relay, logger *slog.Logger) *Bus {
	return &Bus{
		registry: registry,
		relay:    relay,
		logger:   logger,
	}
}

// Registry returns the registry the bus delivers to.
func (b *Bus) Registry() *Registry { return b.registry }

// Publish hands event to the relay, or delivers it locally when there is no
// relay or the relay refuses it. Failures are logged, never returned.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if err := event.Validate(); err != nil {
		b.logger.Warn("Dropping invalid notification",
			slog.String("kind", string(event.Kind)),
			slog.Any("error", err),
		)
		return
	}

	if b.relay == nil {
		b.Deliver(event)
		return
	}

	if err := b.relay.Publish(ctx, event); err != nil {
		b.logger.Warn("Relay publish failed, delivering locally",
			slog.String("relay", b.relay.Name()),
			slog.String("kind", string(event.Kind)),
			slog.String("target", event.Target),
			slog.Any("error", err),
		)
		b.Deliver(event)
	}
}

// Deliver pushes event to every live channel of its target and returns how
// many accepted it. A channel that is full or closed misses the event.
func (b *Bus) Deliver(event Event) int {
	channels := b.registry.ChannelsFor(event.Target)
	if len(channels) == 0 {
		b.logger.Debug("No live channel for notification",
			slog.String("kind", string(event.Kind)),
			slog.String("target", event.Target),
		)
		return 0
	}

	delivered := 0
	for _, ch := range channels {
		if err := ch.Send(event); err != nil {
			b.logger.Warn("Notification dropped",
				slog.String("kind", string(event.Kind)),
				slog.String("target", event.Target),
				slog.String("channel_id", ch.ID()),
				slog.Any("error", err),
			)
			continue
		}
		delivered++
	}

	b.logger.Debug("Notification delivered",
		slog.String("kind", string(event.Kind)),
		slog.String("target", event.Target),
		slog.Int("channels", delivered),
	)
	return delivered
}

// Run consumes the relay until ctx is done. Without a relay it just waits.
func (b *Bus) Run(ctx context.Context) error {
	if b.relay == nil {
		<-ctx.Done()
		return nil
	}

	b.logger.Info("Listening for relayed notifications",
		slog.String("relay", b.relay.Name()),
	)

	err := b.relay.Listen(ctx, func(event Event) {
		b.Deliver(event)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
