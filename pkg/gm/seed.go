package gm

import (
	"sync"
	"time"
)

// SeedStatus tracks a user seed through its lifecycle. Transitions past
// "waiting" are requested by the oracle via document updates.
type SeedStatus string

const (
	SeedWaiting    SeedStatus = "waiting"
	SeedInProgress SeedStatus = "in_progress"
	SeedResolved   SeedStatus = "resolved"
)

func (s SeedStatus) Valid() bool {
	switch s {
	case SeedWaiting, SeedInProgress, SeedResolved:
		return true
	}
	return false
}

// Seed is a narrative idea the user wants the story to pay off eventually.
// Seeds are stored durably in settings and mirrored into the working GM
// document for the oracle to acknowledge.
type Seed struct {
	ID      int64      `json:"id"`
	Text    string     `json:"text"`
	Status  SeedStatus `json:"status"`
	Created time.Time  `json:"created"`
}

var seedClock struct {
	mu   sync.Mutex
	last int64
}

// nextSeedID returns a time-based identifier, bumped when two seeds are
// created within the same millisecond.
func nextSeedID() int64 {
	seedClock.mu.Lock()
	defer seedClock.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= seedClock.last {
		id = seedClock.last + 1
	}
	seedClock.last = id
	return id
}

func NewSeed(text string) Seed {
	return Seed{
		ID:      nextSeedID(),
		Text:    text,
		Status:  SeedWaiting,
		Created: time.Now().UTC(),
	}
}
