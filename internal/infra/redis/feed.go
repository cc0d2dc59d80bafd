package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"classroom-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultFeedBuffer = 8

// Feed fans attempt events out across instances via Redis pub/sub.
// Channels are named assignment:{id}:attempts.
type Feed struct {
	client *redis.Client
	buffer int
}

func NewFeed(client *redis.Client, buffer int) *Feed {
	if buffer <= 0 {
		buffer = defaultFeedBuffer
	}
	return &Feed{client: client, buffer: buffer}
}

func (f *Feed) Publish(ctx context.Context, event domain.AttemptEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode attempt event: %w", err)
	}
	return f.client.Publish(ctx, channelName(event.AssignmentID), data).Err()
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published after it returns are not missed.
func (f *Feed) Subscribe(ctx context.Context, assignmentID string) (<-chan domain.AttemptEvent, func(), error) {
	pubsub := f.client.Subscribe(ctx, channelName(assignmentID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe to assignment %s: %w", assignmentID, err)
	}

	out := make(chan domain.AttemptEvent, f.buffer)
	done := make(chan struct{})
	messages := pubsub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event domain.AttemptEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("drop malformed attempt event on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- event:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}

func channelName(assignmentID string) string {
	return "assignment:" + assignmentID + ":attempts"
}
