package stream

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Producer runs work that reports through observer.
type Producer func(ctx context.Context, observer Observer) error

// Dispatch runs produce on a worker goroutine and delivers its events to
// consumer on another, in production order. The consumer drains the channel
// until the producer returns, so events emitted after ctx is cancelled (the
// stop notice and the finished event) still arrive.
func Dispatch(ctx context.Context, produce Producer, consumer Observer) error {
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan Event)

	group.Go(func() error {
		defer close(events)
		return produce(streamCtx, NewChannelObserver(events))
	})

	group.Go(func() error {
		for event := range events {
			consumer.Handle(event)
		}
		return nil
	})

	return group.Wait()
}
