package actions

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myorg/lifesim/internal/config"
	"github.com/myorg/lifesim/internal/needs"
)

type fakeTarget struct {
	calls   []string
	failing string
}

func (f *fakeTarget) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failing != "" && f.failing == call {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeTarget) Skip(h float64) error { return f.record(fmt.Sprintf("skip %v", h)) }
func (f *fakeTarget) Restore(s needs.Stat, n int) error {
	return f.record(fmt.Sprintf("restore %s %d", s, n))
}
func (f *fakeTarget) ConsumeActionStats(h, w int) error {
	return f.record(fmt.Sprintf("consume %d %d", h, w))
}
func (f *fakeTarget) ModifyMoney(n int) error { return f.record(fmt.Sprintf("money %d", n)) }
func (f *fakeTarget) IncreaseEmploymentChance(x float64) error {
	return f.record(fmt.Sprintf("employment %v", x))
}

func defaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(config.DefaultActions())
	require.NoError(t, err)
	return c
}

func TestNewCatalog_Defaults(t *testing.T) {
	c := defaultCatalog(t)

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, []string{"sleep", "eat", "work", "study"}, c.Names())
	assert.Equal(t, []string{"eat", "sleep", "study", "work"}, c.SortedNames())

	sleep, err := c.Get("sleep")
	require.NoError(t, err)
	assert.True(t, sleep.Variable())
	assert.Equal(t, 15, sleep.RestorePerHour[needs.Sleep])
	assert.Equal(t, 5, sleep.Restore[needs.Willpower])
}

func TestNewCatalog_Errors(t *testing.T) {
	_, err := NewCatalog([]config.ActionConfig{{Name: "x", Restore: map[string]int{"money": 5}}})
	assert.ErrorIs(t, err, needs.ErrUnknownStat)

	_, err = NewCatalog([]config.ActionConfig{{Name: "x"}, {Name: "x"}})
	assert.EqualError(t, err, `actions[1]: duplicate action name "x"`)

	_, err = NewCatalog([]config.ActionConfig{{Name: ""}})
	assert.Error(t, err)
}

func TestGet_Unknown(t *testing.T) {
	_, err := defaultCatalog(t).Get("dance")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestDuration(t *testing.T) {
	c := defaultCatalog(t)
	sleep, _ := c.Get("sleep")
	eat, _ := c.Get("eat")

	assert.Equal(t, 7.0, sleep.Duration(0))
	assert.Equal(t, 1.0, sleep.Duration(0.5))
	assert.Equal(t, 9.0, sleep.Duration(9))
	assert.Equal(t, 24.0, sleep.Duration(30))
	assert.Equal(t, 1.0, eat.Duration(12))
}

func TestPerform_Sleep(t *testing.T) {
	sleep, _ := defaultCatalog(t).Get("sleep")
	target := &fakeTarget{}

	hours, err := sleep.Perform(target, 8)
	require.NoError(t, err)

	assert.Equal(t, 8.0, hours)
	assert.Equal(t, []string{
		"skip 8",
		"restore sleep 120",
		"restore willpower 5",
	}, target.calls)
}

func TestPerform_Order(t *testing.T) {
	a, err := FromConfig(config.ActionConfig{
		Name:             "everything",
		Hours:            2,
		Restore:          map[string]int{"hunger": 10, "happiness": 3},
		RestorePerHour:   map[string]int{"hunger": 1},
		HappinessCost:    4,
		WillpowerCost:    6,
		Money:            -20,
		EmploymentChance: 1.5,
	})
	require.NoError(t, err)
	target := &fakeTarget{}

	_, err = a.Perform(target, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"skip 2",
		"restore hunger 12",
		"restore happiness 3",
		"consume 4 6",
		"money -20",
		"employment 1.5",
	}, target.calls)
}

func TestPerform_SkipsZeroEffects(t *testing.T) {
	a, err := FromConfig(config.ActionConfig{Name: "idle"})
	require.NoError(t, err)
	target := &fakeTarget{}

	hours, err := a.Perform(target, 5)
	require.NoError(t, err)
	assert.Zero(t, hours)
	assert.Empty(t, target.calls)
}

func TestPerform_StopsOnError(t *testing.T) {
	work, _ := defaultCatalog(t).Get("work")
	target := &fakeTarget{failing: "skip 8"}

	_, err := work.Perform(target, 0)
	assert.Error(t, err)
	assert.Equal(t, []string{"skip 8"}, target.calls)
}
