package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const maxRetryDelay = 30 * time.Second

// Relay fans board events out through a Redis channel so every server
// instance pushes them to its own WebSocket clients. While the relay is not
// subscribed, messages go straight to the local hub instead.
type Relay struct {
	client  *redis.Client
	channel string
	hub     *Hub

	retry     time.Duration
	live      atomic.Bool
	ready     chan struct{}
	readyOnce sync.Once
}

// NewRelay returns a relay that publishes on channel and delivers to hub.
func NewRelay(client *redis.Client, channel string, hub *Hub) *Relay {
	return &Relay{
		client:  client,
		channel: channel,
		hub:     hub,
		retry:   time.Second,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once Run has subscribed to the channel for the first time.
func (r *Relay) Ready() <-chan struct{} {
	return r.ready
}

// Publish sends message to the channel. When the relay is not subscribed, or
// the publish fails, the message is broadcast to the local hub so this
// instance's clients still see it.
func (r *Relay) Publish(message []byte) {
	if !r.live.Load() {
		r.hub.Broadcast(message)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, message).Err(); err != nil {
		log.WithError(err).WithField("channel", r.channel).Error("realtime: publish failed, delivering locally")
		r.hub.Broadcast(message)
	}
}

// Run subscribes to the channel and broadcasts every message to the hub
// until ctx is cancelled. A failed subscribe is retried with backoff.
func (r *Relay) Run(ctx context.Context) error {
	delay := r.retry
	for {
		err := r.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.WithError(err).WithFields(log.Fields{
			"channel": r.channel,
			"retry":   delay,
		}).Warn("realtime: relay subscription lost")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func (r *Relay) listen(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	defer r.live.Store(false)

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.live.Store(true)
	r.readyOnce.Do(func() { close(r.ready) })
	log.WithField("channel", r.channel).Info("realtime: relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return redis.ErrClosed
			}
			r.hub.Broadcast([]byte(msg.Payload))
		}
	}
}
