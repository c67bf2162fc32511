package authevents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const ChannelAuthState = "auth_state"

const (
	StateLoggedIn  = "logged_in"
	StateLoggedOut = "logged_out"
)

// Event is an auth-state transition published at sign-in and sign-out.
// Trackers and the ws hub subscribe to it instead of polling cookies.
type Event struct {
	UserID    int64  `json:"user_id"`
	State     string `json:"state"`
	SessionID int64  `json:"session_id,omitempty"`
}

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, evt *Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal auth event: %w", err)
	}
	return p.client.Publish(ctx, ChannelAuthState, data).Err()
}

type Subscriber struct {
	pubsub *redis.PubSub
	events chan *Event
}

// Subscribe starts listening for auth-state transitions. It does not return
// until redis has confirmed the subscription, so an event published right
// after Subscribe returns is delivered. The returned subscriber's Events
// channel closes when ctx is canceled or Close is called. Malformed payloads
// are dropped.
func Subscribe(ctx context.Context, client *redis.Client) (*Subscriber, error) {
	pubsub := client.Subscribe(ctx, ChannelAuthState)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", ChannelAuthState, err)
	}
	s := &Subscriber{
		pubsub: pubsub,
		events: make(chan *Event, 16),
	}

	go func() {
		defer close(s.events)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					continue
				}
				select {
				case s.events <- &evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return s, nil
}

func (s *Subscriber) Events() <-chan *Event {
	return s.events
}

func (s *Subscriber) Close() error {
	return s.pubsub.Close()
}
