package scenario

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/myorg/lifesim/internal/clock"
)

// Target is what a scheduler drives. *session.Session implements it.
type Target interface {
	Perform(name string, requestedHours float64) (float64, error)
	Skip(hours float64) error
	SetSpeed(multiplier float64) error
}

// Firing describes one executed step.
type Firing struct {
	Step *Step
	// At is the game time the step ran, in absolute game hours.
	At float64
	// Hours is the game time the step consumed.
	Hours float64
	Err   error
}

// StepListener receives a notification after every executed step.
type StepListener interface {
	OnStepFired(f Firing)
}

// StepListenerFunc adapts a function to StepListener.
type StepListenerFunc func(f Firing)

// OnStepFired implements StepListener.
func (fn StepListenerFunc) OnStepFired(f Firing) { fn(f) }

type entry struct {
	step  *Step
	order int
	next  float64
	done  bool
}

// Scheduler fires script steps once game time reaches them.
type Scheduler struct {
	entries   []*entry
	listeners []StepListener
	fired     int
	failed    int
	mu        sync.Mutex
}

// NewScheduler creates a scheduler for the enabled steps of script.
func NewScheduler(script *Script) *Scheduler {
	s := &Scheduler{}
	if script == nil {
		return s
	}
	for i, st := range script.Steps {
		if !st.Enabled {
			continue
		}
		s.entries = append(s.entries, &entry{step: st.Copy(), order: i, next: st.At()})
	}
	return s
}

// AddListener adds a step listener.
func (s *Scheduler) AddListener(l StepListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Skip drops every occurrence strictly before now without running it. Used
// when a session starts after the first steps of a script.
func (s *Scheduler) Skip(now float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.done || e.next >= now {
			continue
		}
		if !e.step.Daily {
			e.done = true
			continue
		}
		e.next += math.Ceil((now-e.next)/clock.HoursPerDay) * clock.HoursPerDay
	}
}

// Run executes every step that is due at now(). Steps run in due order, ties
// broken by script order. now is re-read after each step because actions
// advance game time. Each step fires at most once per call, and a daily step
// that missed several days fires once and resumes at its next occurrence.
// Step errors are reported to listeners and do not stop the run. Run returns
// the number of steps executed.
func (s *Scheduler) Run(t Target, now func() float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ran := make(map[*entry]bool)
	count := 0
	for {
		current := now()
		e := s.nextDue(current, ran)
		if e == nil {
			return count
		}
		ran[e] = true
		s.advance(e, current)

		f := Firing{Step: e.step.Copy(), At: current}
		f.Hours, f.Err = apply(t, e.step)
		s.fired++
		if f.Err != nil {
			s.failed++
		}
		count++

		for _, l := range s.listeners {
			l.OnStepFired(f)
		}
	}
}

func (s *Scheduler) nextDue(now float64, ran map[*entry]bool) *entry {
	var best *entry
	for _, e := range s.entries {
		if e.done || ran[e] || e.next > now {
			continue
		}
		if best == nil || e.next < best.next || (e.next == best.next && e.order < best.order) {
			best = e
		}
	}
	return best
}

// advance moves e past now: one-shot steps are done, daily steps move to the
// first occurrence after now.
func (s *Scheduler) advance(e *entry, now float64) {
	if !e.step.Daily {
		e.done = true
		return
	}
	missed := math.Floor((now-e.next)/clock.HoursPerDay) + 1
	e.next += missed * clock.HoursPerDay
}

func apply(t Target, st *Step) (float64, error) {
	switch st.Kind {
	case KindAction:
		return t.Perform(st.Action, st.Hours)
	case KindSkip:
		if err := t.Skip(st.Hours); err != nil {
			return 0, err
		}
		return st.Hours, nil
	case KindSpeed:
		return 0, t.SetSpeed(st.Speed)
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidStep, st.Kind)
	}
}

// Done reports whether no step can fire again. Scripts with daily steps are
// never done.
func (s *Scheduler) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if !e.done {
			return false
		}
	}
	return true
}

// NextAt returns the game time of the next pending step.
func (s *Scheduler) NextAt() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := 0.0, false
	for _, e := range s.entries {
		if e.done {
			continue
		}
		if !ok || e.next < next {
			next, ok = e.next, true
		}
	}
	return next, ok
}

// Pending returns copies of the steps that have not finished, in due order.
func (s *Scheduler) Pending() []*Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.done {
			pending = append(pending, e)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].next != pending[j].next {
			return pending[i].next < pending[j].next
		}
		return pending[i].order < pending[j].order
	})

	out := make([]*Step, len(pending))
	for i, e := range pending {
		out[i] = e.step.Copy()
	}
	return out
}

// Stats returns the number of executed and failed steps.
func (s *Scheduler) Stats() (fired, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired, s.failed
}
