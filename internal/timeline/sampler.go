package timeline

import (
	"time"

	"github.com/myorg/lifesim/internal/session"
)

// EntryFromSnapshot converts a session snapshot into a timeline entry.
func EntryFromSnapshot(snap session.Snapshot, now time.Time) TimelineEntry {
	return TimelineEntry{
		Timestamp:        now,
		Day:              snap.Clock.Day,
		Hour:             snap.Clock.Hour,
		Hunger:           snap.Stats.Hunger,
		Sleep:            snap.Stats.Sleep,
		Happiness:        snap.Stats.Happiness,
		Willpower:        snap.Stats.Willpower,
		Money:            snap.Stats.Money,
		EmploymentChance: snap.Stats.EmploymentChance,
		Speed:            snap.Clock.Speed,
		Paused:           snap.Clock.Paused,
		GameOver:         snap.GameOver,
	}
}

// Sampler decides which snapshots become timeline entries: the first one, one
// whenever at least Every game hours have passed since the last sample, one on
// every day change and the one that ends the game.
type Sampler struct {
	every    float64
	sampled  bool
	lastAt   float64
	lastDay  int
	gameOver bool
}

// NewSampler creates a sampler with a period in game hours.
func NewSampler(everyHours float64) *Sampler {
	if everyHours <= 0 {
		everyHours = 1
	}
	return &Sampler{every: everyHours}
}

// Observe returns the entry for snap and true if it should be recorded.
func (s *Sampler) Observe(snap session.Snapshot, now time.Time) (TimelineEntry, bool) {
	entry := EntryFromSnapshot(snap, now)
	at := entry.GameHours()

	due := !s.sampled ||
		at-s.lastAt >= s.every ||
		entry.Day != s.lastDay ||
		(entry.GameOver && !s.gameOver)
	if !due {
		return TimelineEntry{}, false
	}

	s.sampled = true
	s.lastAt = at
	s.lastDay = entry.Day
	s.gameOver = entry.GameOver
	return entry, true
}
