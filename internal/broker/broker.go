// Package broker provides in-process topic-based publish/subscribe.
//
// The broker is owned by the server lifecycle and injected where needed;
// there is no process-wide singleton. Publishing is fire-and-forget: each
// subscriber consumes from its own buffered channel and a slow or abandoned
// subscriber loses messages instead of blocking the publisher.
package broker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/librisapp/libris-server/internal/id"
)

const (
	// eventBufferSize bounds the central dispatch queue.
	eventBufferSize = 256
	// subscriberBufferSize bounds each subscriber's channel.
	subscriberBufferSize = 16
)

// Message is a published payload tagged with its topic.
type Message struct {
	Topic   string
	Payload any
}

// Subscription is a cancellable stream of messages for one topic.
type Subscription struct {
	// C delivers messages published after the subscription attached.
	// It is closed when the subscription is cancelled or the broker
	// shuts down.
	C <-chan Message

	id    string
	topic string
	ch    chan Message
	b     *Broker
	once  sync.Once
}

// Cancel detaches the subscription and closes its channel.
// Messages not yet consumed are lost. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.b.unsubscribe(s.topic, s.id)
	})
}

// Broker manages subscriptions and dispatches published messages.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[string]*Subscription // topic -> subscription id
	events chan Message
	logger *slog.Logger
	wg     sync.WaitGroup

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// New creates a new Broker.
func New(logger *slog.Logger) *Broker {
	return &Broker{
		subs:   make(map[string]map[string]*Subscription),
		events: make(chan Message, eventBufferSize),
		logger: logger,
	}
}

// Start begins the dispatch loop.
// Call once at server startup in a goroutine.
func (b *Broker) Start(ctx context.Context) {
	b.wg.Add(1)
	defer b.wg.Done()

	b.logger.Info("broker starting")

	for {
		select {
		case msg, ok := <-b.events:
			if !ok {
				// Channel closed by Shutdown; the drain there
				// takes over.
				return
			}
			b.dispatch(msg)
		case <-ctx.Done():
			b.logger.Info("broker stopping")
			b.closeAll()
			return
		}
	}
}

// Shutdown stops accepting new messages, drains the queue, and closes all
// subscriptions.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.logger.Info("broker shutdown initiated")

	// Mark as shutdown AND close the channel while holding the lock.
	// This prevents a race with Publish, which holds the read lock
	// during its send.
	b.shutdownMu.Lock()
	b.shutdown = true
	close(b.events)
	b.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		for msg := range b.events {
			b.dispatch(msg)
		}
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("broker queue drained")
	case <-ctx.Done():
		b.logger.Warn("broker drain timeout, messages may be lost")
	}

	b.wg.Wait()
	b.closeAll()

	b.logger.Info("broker shutdown complete")
	return nil
}

// Publish queues a payload for delivery to the topic's subscribers.
// Never blocks: when the queue is full or the broker is shut down the
// message is dropped and logged.
func (b *Broker) Publish(topic string, payload any) {
	b.shutdownMu.RLock()
	defer b.shutdownMu.RUnlock()

	if b.shutdown {
		// Expected during shutdown, drop silently.
		return
	}

	select {
	case b.events <- Message{Topic: topic, Payload: payload}:
	default:
		b.logger.Error("broker queue full, dropping message",
			slog.String("topic", topic))
	}
}

// Subscribe attaches a new subscription to the topic.
// The subscriber receives every message published after this call until it
// cancels; there is no replay of earlier messages.
func (b *Broker) Subscribe(topic string) *Subscription {
	ch := make(chan Message, subscriberBufferSize)
	sub := &Subscription{
		C:     ch,
		ch:    ch,
		id:    id.MustGenerate("sub"),
		topic: topic,
		b:     b,
	}

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]*Subscription)
	}
	b.subs[topic][sub.id] = sub
	total := len(b.subs[topic])
	b.mu.Unlock()

	b.logger.Debug("subscriber attached",
		slog.String("topic", topic),
		slog.String("subscription_id", sub.id),
		slog.Int("topic_subscribers", total))
	return sub
}

// SubscriberCount returns the number of active subscriptions on a topic.
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// dispatch sends a message to every subscriber of its topic.
func (b *Broker) dispatch(msg Message) {
	var delivered, dropped int

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs[msg.Topic] {
		// Non-blocking send: drop if the subscriber is slow or stuck.
		select {
		case sub.ch <- msg:
			delivered++
		default:
			dropped++
			b.logger.Warn("dropped message for slow subscriber",
				slog.String("topic", msg.Topic),
				slog.String("subscription_id", sub.id))
		}
	}

	b.logger.Debug("message dispatched",
		slog.String("topic", msg.Topic),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped))
}

// unsubscribe removes a subscription and closes its channel.
func (b *Broker) unsubscribe(topic, subID string) {
	b.mu.Lock()
	sub, ok := b.subs[topic][subID]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subs[topic], subID)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
	b.mu.Unlock()

	close(sub.ch)

	b.logger.Debug("subscriber detached",
		slog.String("topic", topic),
		slog.String("subscription_id", subID))
}

// closeAll closes every subscription (used during shutdown).
func (b *Broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, topicSubs := range b.subs {
		for _, sub := range topicSubs {
			close(sub.ch)
		}
	}
	b.subs = make(map[string]map[string]*Subscription)
}
