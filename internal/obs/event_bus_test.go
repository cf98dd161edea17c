package obs

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_SubscribeAndPublish(t *testing.T) {
	b := NewBus(nil, 0)
	defer b.Stop()

	var mu sync.Mutex
	var got []Event
	done := make(chan struct{}, 1)

	b.Subscribe(EventPlanStart, func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		done <- struct{}{}
	})

	b.Publish(Event{Type: EventPlanStart, RequestID: "r1"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RequestID)
}

func TestBus_SubscribeAll(t *testing.T) {
	b := NewBus(nil, 0)
	defer b.Stop()

	var mu sync.Mutex
	count := 0
	done := make(chan struct{}, 2)

	b.SubscribeAll(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
		done <- struct{}{}
	})

	b.Publish(Event{Type: EventPlanStart, RequestID: "r1"})
	b.Publish(Event{Type: EventActStart, RequestID: "r1"})

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("handler never ran for both events")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestBus_PanicRecovered(t *testing.T) {
	b := NewBus(nil, 0)
	defer b.Stop()

	recovered := make(chan struct{}, 1)
	b.Subscribe(EventPlanStart, func(e Event) {
		defer func() { recovered <- struct{}{} }()
		panic("boom")
	})

	assert.NotPanics(t, func() {
		b.Publish(Event{Type: EventPlanStart, RequestID: "r1"})
		select {
		case <-recovered:
		case <-time.After(time.Second):
			t.Fatal("handler never ran")
		}
	})
}

func TestBus_History(t *testing.T) {
	b := NewBus(nil, 10)
	defer b.Stop()

	b.Publish(Event{Type: EventPlanStart, RequestID: "r1"})
	b.Publish(Event{Type: EventActStart, RequestID: "r1"})
	b.Publish(Event{Type: EventPlanStart, RequestID: "r2"})

	time.Sleep(20 * time.Millisecond)

	hist := b.History("r1")
	assert.Len(t, hist, 2)
}
