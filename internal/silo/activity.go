package silo

import (
	"sort"
	"sync"
	"time"
)

// ActivityEventType is the closed set of typed events a silo emits while
// indexing (spec §4.G).
type ActivityEventType string

const (
	ActivityIndexed   ActivityEventType = "indexed"
	ActivityReindexed ActivityEventType = "reindexed"
	ActivityDeleted   ActivityEventType = "deleted"
	ActivityError     ActivityEventType = "error"
)

// ActivityEvent is one entry in the cross-silo feed (spec §6's activity
// event record). FilePath is resolved (absolute or display-ready), not the
// internal stored key.
type ActivityEvent struct {
	ID           int64
	Timestamp    time.Time
	SiloName     string
	FilePath     string
	EventType    ActivityEventType
	ChunkCount   int
	DurationMs   int64
	ErrorMessage string
}

// maxActivityEvents caps the feed to the most recent events (spec §4.G:
// "caps to the most recent ~200").
const maxActivityEvents = 200

// ActivityFeed aggregates ActivityEvents from every silo, sorted by
// timestamp, capped to maxActivityEvents. Safe for concurrent use.
type ActivityFeed struct {
	mu     sync.Mutex
	events []ActivityEvent
	nextID int64
}

// NewActivityFeed returns an empty feed.
func NewActivityFeed() *ActivityFeed {
	return &ActivityFeed{}
}

// Push records evt, assigning it the next feed-wide ID and re-sorting by
// timestamp before trimming to the most recent maxActivityEvents.
func (f *ActivityFeed) Push(evt ActivityEvent) ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	evt.ID = f.nextID
	f.events = append(f.events, evt)

	sort.SliceStable(f.events, func(i, j int) bool {
		return f.events[i].Timestamp.Before(f.events[j].Timestamp)
	})
	if len(f.events) > maxActivityEvents {
		f.events = f.events[len(f.events)-maxActivityEvents:]
	}
	return evt
}

// Recent returns the most recent n events, newest first. n <= 0 returns
// every retained event.
func (f *ActivityFeed) Recent(n int) []ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]ActivityEvent, len(f.events))
	copy(out, f.events)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
