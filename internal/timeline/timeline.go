// Package timeline records stat samples over game time and exports them as CSV.
package timeline

import (
	"sync"
	"time"
)

// Timeline stores a sequence of stat samples ordered by game time.
type Timeline struct {
	// Interval is the nominal sampling period in game hours.
	Interval  float64
	Entries   []TimelineEntry
	StartTime time.Time
	EndTime   time.Time
	mu        sync.RWMutex
}

// TimelineEntry is one sample of the session state.
type TimelineEntry struct {
	Timestamp        time.Time `json:"timestamp"`
	Day              int       `json:"day"`
	Hour             float64   `json:"hour"`
	Hunger           float64   `json:"hunger"`
	Sleep            float64   `json:"sleep"`
	Happiness        int       `json:"happiness"`
	Willpower        int       `json:"willpower"`
	Money            int       `json:"money"`
	EmploymentChance float64   `json:"employment_chance"`
	Speed            float64   `json:"speed"`
	Paused           bool      `json:"paused"`
	GameOver         bool      `json:"game_over"`
}

// GameHours returns the absolute game time of the entry, counting from
// midnight of day 1.
func (e TimelineEntry) GameHours() float64 {
	return float64(e.Day-1)*24 + e.Hour
}

// NewTimeline creates a new Timeline with the given sampling interval in game
// hours.
func NewTimeline(interval float64) *Timeline {
	if interval <= 0 {
		interval = 1
	}

	return &Timeline{
		Interval: interval,
		Entries:  make([]TimelineEntry, 0, 24*30), // 30 days at one sample per hour
	}
}

// AddEntry adds a new entry to the timeline.
func (t *Timeline) AddEntry(entry TimelineEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.StartTime.IsZero() || entry.Timestamp.Before(t.StartTime) {
		t.StartTime = entry.Timestamp
	}
	if entry.Timestamp.After(t.EndTime) {
		t.EndTime = entry.Timestamp
	}

	t.Entries = append(t.Entries, entry)
}

// GetEntries returns a copy of all entries.
func (t *Timeline) GetEntries() []TimelineEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]TimelineEntry, len(t.Entries))
	copy(result, t.Entries)
	return result
}

// Last returns the most recent entry.
func (t *Timeline) Last() (TimelineEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.Entries) == 0 {
		return TimelineEntry{}, false
	}
	return t.Entries[len(t.Entries)-1], true
}

// Len returns the number of entries.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.Entries)
}

// GameSpan returns the game hours between the first and last entry.
func (t *Timeline) GameSpan() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.Entries) < 2 {
		return 0
	}
	return t.Entries[len(t.Entries)-1].GameHours() - t.Entries[0].GameHours()
}

// GetEntriesForDays returns entries whose day is within [fromDay, toDay].
func (t *Timeline) GetEntriesForDays(fromDay, toDay int) []TimelineEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []TimelineEntry
	for _, e := range t.Entries {
		if e.Day >= fromDay && e.Day <= toDay {
			result = append(result, e)
		}
	}
	return result
}

// GetLastN returns the last n entries.
func (t *Timeline) GetLastN(n int) []TimelineEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n >= len(t.Entries) {
		result := make([]TimelineEntry, len(t.Entries))
		copy(result, t.Entries)
		return result
	}

	result := make([]TimelineEntry, n)
	copy(result, t.Entries[len(t.Entries)-n:])
	return result
}

// GetSummary calculates and returns a summary of the timeline.
func (t *Timeline) GetSummary() *TimelineSummary {
	return t.CalculateSummary()
}
