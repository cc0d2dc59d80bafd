package memory

import (
	"context"
	"sync"

	"classroom-quiz-service/internal/domain"
)

const defaultFeedBuffer = 8

// Feed is an in-process attempt event fan-out, one subscriber set per assignment.
type Feed struct {
	buffer int

	mu          sync.Mutex
	subscribers map[string]map[chan domain.AttemptEvent]struct{}
}

// NewFeed creates a feed whose subscriber channels hold up to buffer events.
func NewFeed(buffer int) *Feed {
	if buffer <= 0 {
		buffer = defaultFeedBuffer
	}
	return &Feed{
		buffer:      buffer,
		subscribers: make(map[string]map[chan domain.AttemptEvent]struct{}),
	}
}

func (f *Feed) Publish(_ context.Context, event domain.AttemptEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[event.AssignmentID] {
		select {
		case ch <- event:
		default:
			// slow subscriber: drop its oldest event to make room
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
	return nil
}

func (f *Feed) Subscribe(_ context.Context, assignmentID string) (<-chan domain.AttemptEvent, func(), error) {
	ch := make(chan domain.AttemptEvent, f.buffer)

	f.mu.Lock()
	subs, ok := f.subscribers[assignmentID]
	if !ok {
		subs = make(map[chan domain.AttemptEvent]struct{})
		f.subscribers[assignmentID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subscribers[assignmentID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(f.subscribers, assignmentID)
		}
	}
	return ch, cancel, nil
}
