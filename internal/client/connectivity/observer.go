// Package connectivity tracks whether the central server is reachable and
// notifies subscribers when connectivity comes back.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/ortofresco/gestionale/internal/logging"
)

// Pinger probes server reachability; a nil error means online.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Observer holds the current online flag and fires subscribers on each
// offline-to-online transition. Staying online or going offline fires nothing.
type Observer struct {
	mu          sync.Mutex
	online      bool
	subscribers []func(ctx context.Context)
	logger      logging.Logger
}

// NewObserver creates an Observer that starts offline. The first successful
// ping counts as a reconnect and fires subscribers.
func NewObserver(logger logging.Logger) *Observer {
	return &Observer{logger: logger}
}

// Online reports the current flag.
func (o *Observer) Online() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online
}

// Subscribe registers a callback to run on every offline-to-online
// transition. Callbacks run synchronously, in registration order.
func (o *Observer) Subscribe(fn func(ctx context.Context)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscribers = append(o.subscribers, fn)
}

// SetOnline updates the flag. Only the offline-to-online edge fires
// subscribers, so repeated successful pings stay quiet.
func (o *Observer) SetOnline(ctx context.Context, online bool) {
	o.mu.Lock()
	wasOnline := o.online
	o.online = online
	var fire []func(ctx context.Context)
	if online && !wasOnline {
		fire = append(fire, o.subscribers...)
	}
	o.mu.Unlock()

	if online != wasOnline {
		o.logger.Info(ctx, "connectivity changed", "online", online)
	}
	for _, fn := range fire {
		fn(ctx)
	}
}

// Watch pings the server on every tick and feeds the result into SetOnline.
// Blocks until ctx is cancelled.
func (o *Observer) Watch(ctx context.Context, pinger Pinger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.SetOnline(ctx, pinger.Ping(ctx) == nil)
		}
	}
}
