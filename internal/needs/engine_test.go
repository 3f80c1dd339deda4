package needs

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myorg/lifesim/internal/config"
)

type recorder struct {
	changed   int
	exhausted []string
}

func (r *recorder) StatsChanged()           { r.changed++ }
func (r *recorder) Exhausted(reason string) { r.exhausted = append(r.exhausted, reason) }

func newEngine(t *testing.T, modify func(*config.StatsConfig)) (*Engine, *recorder) {
	t.Helper()
	cfg := config.DefaultStats()
	if modify != nil {
		modify(&cfg)
	}
	rec := &recorder{}
	e := NewEngine(WithListener(rec))
	require.NoError(t, e.Initialize(&cfg))
	return e, rec
}

func TestInitialize(t *testing.T) {
	e, rec := newEngine(t, nil)

	s := e.Stats()
	assert.Equal(t, 80.0, s.Hunger)
	assert.Equal(t, 80.0, s.Sleep)
	assert.Equal(t, 50, s.Happiness)
	assert.Equal(t, 50, s.Willpower)
	assert.Equal(t, 100, s.Money)
	assert.Equal(t, BaselineEmploymentChance, s.EmploymentChance)
	assert.False(t, s.Exhausted)
	assert.True(t, e.Initialized())
	assert.Zero(t, rec.changed)
}

func TestInitialize_Errors(t *testing.T) {
	e := NewEngine()
	assert.ErrorIs(t, e.Initialize(nil), ErrMissingConfig)
	assert.False(t, e.Initialized())

	bad := config.DefaultStats()
	bad.MaxHunger = 0
	assert.Error(t, e.Initialize(&bad))
	assert.False(t, e.Initialized())

	cfg := config.DefaultStats()
	require.NoError(t, e.Initialize(&cfg))
	assert.ErrorIs(t, e.Initialize(&cfg), ErrAlreadyInitialized)
}

func TestInitialize_CopiesConfig(t *testing.T) {
	cfg := config.DefaultStats()
	e := NewEngine()
	require.NoError(t, e.Initialize(&cfg))

	cfg.BaseHungerDecayRate = 50
	require.NoError(t, e.ApplyDecay(1))
	assert.Equal(t, 78.0, e.Stats().Hunger)
}

func TestOperationsBeforeInitialize(t *testing.T) {
	e := NewEngine()

	assert.ErrorIs(t, e.ApplyDecay(1), ErrNotInitialized)
	assert.ErrorIs(t, e.Restore(Hunger, 1), ErrNotInitialized)
	assert.ErrorIs(t, e.ConsumeActionStats(1, 1), ErrNotInitialized)
	assert.ErrorIs(t, e.ModifyMoney(1), ErrNotInitialized)
	assert.ErrorIs(t, e.IncreaseEmploymentChance(1), ErrNotInitialized)
}

func TestApplyDecay_Scenario(t *testing.T) {
	e, rec := newEngine(t, func(c *config.StatsConfig) {
		c.MaxHunger = 100
		c.InitialHunger = 80
		c.BaseHungerDecayRate = 2
	})

	require.NoError(t, e.ApplyDecay(5))

	assert.Equal(t, 70.0, e.Stats().Hunger)
	assert.Equal(t, 1, rec.changed)
}

func TestApplyDecay_ZeroIsNoop(t *testing.T) {
	e, rec := newEngine(t, func(c *config.StatsConfig) {
		c.InitialHunger = 0
		c.InitialSleep = 0
		c.InitialHappiness = 0
	})
	before := e.Stats()

	require.NoError(t, e.ApplyDecay(0))

	assert.Equal(t, before, e.Stats())
	assert.Zero(t, rec.changed)
	assert.Empty(t, rec.exhausted)
}

func TestApplyDecay_RejectsInvalid(t *testing.T) {
	e, rec := newEngine(t, nil)

	for _, h := range []float64{-1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, e.ApplyDecay(h), ErrNegativeElapsed)
	}
	assert.Zero(t, rec.changed)
	assert.Equal(t, 80.0, e.Stats().Hunger)
}

func TestApplyDecay_Linear(t *testing.T) {
	split, _ := newEngine(t, nil)
	whole, _ := newEngine(t, nil)

	require.NoError(t, split.ApplyDecay(3))
	require.NoError(t, split.ApplyDecay(4))
	require.NoError(t, whole.ApplyDecay(7))

	assert.InDelta(t, whole.Stats().Hunger, split.Stats().Hunger, 1e-9)
	assert.InDelta(t, whole.Stats().Sleep, split.Stats().Sleep, 1e-9)
	assert.InDelta(t, 66.0, whole.Stats().Hunger, 1e-9)
	assert.InDelta(t, 69.5, whole.Stats().Sleep, 1e-9)
}

func TestApplyDecay_ClampsAtZero(t *testing.T) {
	e, _ := newEngine(t, nil)

	require.NoError(t, e.ApplyDecay(100))

	s := e.Stats()
	assert.Zero(t, s.Hunger)
	assert.Zero(t, s.Sleep)
}

func TestApplyDecay_PenaltiesAreAdditive(t *testing.T) {
	e, rec := newEngine(t, func(c *config.StatsConfig) {
		c.InitialHunger = 0
		c.InitialSleep = 0
		c.InitialHappiness = 50
	})

	require.NoError(t, e.ApplyDecay(1))

	assert.Equal(t, 30, e.Stats().Happiness)
	assert.Equal(t, 50, e.Stats().Willpower)
	assert.Equal(t, 1, rec.changed)
}

func TestApplyDecay_SinglePenalty(t *testing.T) {
	e, _ := newEngine(t, func(c *config.StatsConfig) {
		c.InitialHunger = 2
		c.InitialHappiness = 50
	})

	// Hunger reaches 0 within this call; sleep is still 78.5.
	require.NoError(t, e.ApplyDecay(1))

	assert.Zero(t, e.Stats().Hunger)
	assert.Equal(t, 40, e.Stats().Happiness)
}

func TestApplyDecay_CustomPenaltyRates(t *testing.T) {
	cfg := config.DefaultStats()
	cfg.InitialSleep = 0
	cfg.InitialHappiness = 3
	e := NewEngine(WithPenalties(config.PenaltyConfig{HappinessPenaltyRate: 4, WillpowerPenaltyRate: 6}))
	require.NoError(t, e.Initialize(&cfg))

	require.NoError(t, e.ApplyDecay(1))

	assert.Zero(t, e.Stats().Happiness)
	assert.Equal(t, 44, e.Stats().Willpower)
}

func TestApplyDecay_NoWillpowerDecayWhileHappy(t *testing.T) {
	e, _ := newEngine(t, func(c *config.StatsConfig) {
		c.InitialHunger = 0
		c.InitialSleep = 0
		c.InitialHappiness = 5
	})

	// int(20 * 0.2) = 4 leaves happiness at 1.
	require.NoError(t, e.ApplyDecay(0.2))
	assert.Equal(t, 1, e.Stats().Happiness)
	assert.Equal(t, 50, e.Stats().Willpower)

	h, _ := newEngine(t, func(c *config.StatsConfig) { c.InitialHappiness = 5 })
	require.NoError(t, h.ApplyDecay(3))
	assert.Equal(t, 5, h.Stats().Happiness)
	assert.Equal(t, 50, h.Stats().Willpower)
}

func TestApplyDecay_WillpowerDecaysWhenHappinessAlreadyZero(t *testing.T) {
	e, rec := newEngine(t, func(c *config.StatsConfig) {
		c.InitialHappiness = 0
	})

	require.NoError(t, e.ApplyDecay(1))

	assert.Equal(t, 35, e.Stats().Willpower)
	assert.Empty(t, rec.exhausted)
}

func TestApplyDecay_TruncatesPerCall(t *testing.T) {
	small, _ := newEngine(t, func(c *config.StatsConfig) { c.InitialHunger = 0 })
	for i := 0; i < 10; i++ {
		require.NoError(t, small.ApplyDecay(0.05))
	}
	// int(10 * 0.05) = 0 on every call.
	assert.Equal(t, 50, small.Stats().Happiness)

	big, _ := newEngine(t, func(c *config.StatsConfig) { c.InitialHunger = 0 })
	require.NoError(t, big.ApplyDecay(0.5))
	assert.Equal(t, 45, big.Stats().Happiness)
}

func TestTerminal_FiresOnce(t *testing.T) {
	e, rec := newEngine(t, func(c *config.StatsConfig) {
		c.InitialHunger = 0
		c.InitialSleep = 0
		c.InitialHappiness = 10
		c.InitialWillpower = 10
	})

	require.NoError(t, e.ApplyDecay(1))

	s := e.Stats()
	assert.Zero(t, s.Happiness)
	assert.Zero(t, s.Willpower)
	assert.True(t, s.Exhausted)
	assert.Equal(t, []string{DefaultExhaustedReason}, rec.exhausted)

	require.NoError(t, e.ApplyDecay(1))
	require.NoError(t, e.ConsumeActionStats(5, 5))
	assert.Len(t, rec.exhausted, 1)
	assert.Equal(t, 3, rec.changed)
}

func TestTerminal_NotRearmedAfterRecovery(t *testing.T) {
	e, rec := newEngine(t, nil)

	require.NoError(t, e.ConsumeActionStats(100, 100))
	require.Len(t, rec.exhausted, 1)

	require.NoError(t, e.Restore(Happiness, 10))
	require.NoError(t, e.Restore(Willpower, 10))
	require.NoError(t, e.ConsumeActionStats(100, 100))

	assert.Len(t, rec.exhausted, 1)
	assert.True(t, e.Exhausted())
}

func TestTerminal_LocalizedReason(t *testing.T) {
	cfg := config.DefaultStats()
	var got string
	e := NewEngine(
		WithExhaustedReason("의지력과 행복이 모두 바닥나서 아무것도 할 수 없습니다..."),
		WithListener(ListenerFuncs{OnExhausted: func(r string) { got = r }}),
	)
	require.NoError(t, e.Initialize(&cfg))

	require.NoError(t, e.ConsumeActionStats(50, 50))
	assert.Equal(t, "의지력과 행복이 모두 바닥나서 아무것도 할 수 없습니다...", got)
}

func TestTerminal_ExhaustedBeforeStatsChanged(t *testing.T) {
	cfg := config.DefaultStats()
	var order []string
	e := NewEngine(WithListener(ListenerFuncs{
		OnStatsChanged: func() { order = append(order, "changed") },
		OnExhausted:    func(string) { order = append(order, "exhausted") },
	}))
	require.NoError(t, e.Initialize(&cfg))

	require.NoError(t, e.ConsumeActionStats(50, 50))
	assert.Equal(t, []string{"exhausted", "changed"}, order)
}

func TestRestore(t *testing.T) {
	e, rec := newEngine(t, nil)

	require.NoError(t, e.Restore(Hunger, 40))
	require.NoError(t, e.Restore(Sleep, -100))
	require.NoError(t, e.Restore(Happiness, 7))
	require.NoError(t, e.Restore(Willpower, 500))

	s := e.Stats()
	assert.Equal(t, 100.0, s.Hunger)
	assert.Zero(t, s.Sleep)
	assert.Equal(t, 57, s.Happiness)
	assert.Equal(t, 100, s.Willpower)
	assert.Equal(t, 4, rec.changed)
}

func TestRestore_UnknownStat(t *testing.T) {
	e, rec := newEngine(t, nil)

	assert.ErrorIs(t, e.Restore(Stat(42), 10), ErrUnknownStat)
	assert.ErrorIs(t, e.Restore(Stat(-1), 10), ErrUnknownStat)
	assert.Zero(t, rec.changed)
}

func TestConsumeActionStats_FloorsIndependently(t *testing.T) {
	e, rec := newEngine(t, nil)

	require.NoError(t, e.ConsumeActionStats(60, 10))

	s := e.Stats()
	assert.Zero(t, s.Happiness)
	assert.Equal(t, 40, s.Willpower)
	assert.Empty(t, rec.exhausted)
	assert.Equal(t, 1, rec.changed)
}

func TestModifyMoney_Unclamped(t *testing.T) {
	e, rec := newEngine(t, func(c *config.StatsConfig) { c.InitialMoney = 10 })

	require.NoError(t, e.ModifyMoney(-50))
	assert.Equal(t, -40, e.Stats().Money)

	require.NoError(t, e.ModifyMoney(1_000_000))
	assert.Equal(t, 999_960, e.Stats().Money)
	assert.Equal(t, 2, rec.changed)
}

func TestIncreaseEmploymentChance(t *testing.T) {
	e, rec := newEngine(t, nil)

	require.NoError(t, e.IncreaseEmploymentChance(2.5))
	require.NoError(t, e.IncreaseEmploymentChance(200))

	assert.InDelta(t, 207.5, e.Stats().EmploymentChance, 1e-9)
	assert.Zero(t, rec.changed)
}

func TestStatsStayWithinBounds(t *testing.T) {
	e, _ := newEngine(t, nil)
	cfg := e.Config()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		switch rng.Intn(3) {
		case 0:
			require.NoError(t, e.ApplyDecay(rng.Float64()*10))
		case 1:
			require.NoError(t, e.Restore(AllStats[rng.Intn(len(AllStats))], rng.Intn(200)-100))
		case 2:
			require.NoError(t, e.ConsumeActionStats(rng.Intn(30), rng.Intn(30)))
		}

		s := e.Stats()
		require.GreaterOrEqual(t, s.Hunger, 0.0)
		require.LessOrEqual(t, s.Hunger, float64(cfg.MaxHunger))
		require.GreaterOrEqual(t, s.Sleep, 0.0)
		require.LessOrEqual(t, s.Sleep, float64(cfg.MaxSleep))
		require.GreaterOrEqual(t, s.Happiness, 0)
		require.LessOrEqual(t, s.Happiness, cfg.MaxHappiness)
		require.GreaterOrEqual(t, s.Willpower, 0)
		require.LessOrEqual(t, s.Willpower, cfg.MaxWillpower)
	}
}

func TestApplyDecay_HugeElapsedFloorsAtZero(t *testing.T) {
	e, rec := newEngine(t, nil)

	require.NoError(t, e.ApplyDecay(1e300))

	s := e.Stats()
	assert.Zero(t, s.Hunger)
	assert.Zero(t, s.Sleep)
	assert.Zero(t, s.Happiness)
	assert.Zero(t, s.Willpower)
	assert.True(t, s.Exhausted)
	assert.Len(t, rec.exhausted, 1)
	assert.Equal(t, 1, rec.changed)
}

func TestTruncLoss(t *testing.T) {
	assert.Equal(t, 3, truncLoss(3.9, 50))
	assert.Equal(t, 0, truncLoss(0.5, 50))
	assert.Equal(t, 50, truncLoss(50, 50))
	assert.Equal(t, 7, truncLoss(math.MaxFloat64, 7))
}
