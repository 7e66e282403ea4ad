package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupVariety(t *testing.T) {
	t.Run("known varieties", func(t *testing.T) {
		for _, name := range []string{"koshihikari", "hinohikari", "akiroman"} {
			table, err := LookupVariety(name)
			require.NoError(t, err)
			assert.Equal(t, name, table.Variety)
		}
	})

	t.Run("unknown variety", func(t *testing.T) {
		_, err := LookupVariety("sasanishiki")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownVariety)
	})

	t.Run("koshihikari is the weak one", func(t *testing.T) {
		table, err := LookupVariety("koshihikari")
		require.NoError(t, err)
		assert.Equal(t, ResistanceWeak, table.Resistance)
	})
}

func TestStageTableValidate(t *testing.T) {
	for _, name := range Varieties() {
		table, err := LookupVariety(name)
		require.NoError(t, err)
		assert.NoError(t, table.Validate(), name)
	}

	t.Run("gap detected", func(t *testing.T) {
		bad := &StageTable{Variety: "bad", Intervals: []StageInterval{
			{StageTillering, 0, 300, "tillering"},
			{StageMaxTiller, 350, 500, "maximum tillering"},
		}}
		assert.Error(t, bad.Validate())
	})

	t.Run("first interval must start at zero", func(t *testing.T) {
		bad := &StageTable{Variety: "bad", Intervals: []StageInterval{
			{StageTillering, 100, 300, "tillering"},
		}}
		assert.Error(t, bad.Validate())
	})
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	koshi, err := LookupVariety("koshihikari")
	require.NoError(t, err)

	tests := []struct {
		name        string
		accumulated float64
		wantStage   StageKey
	}{
		{"early tillering", 200, StageTillering},
		{"boundary is inclusive below", 350, StageMaxTiller},
		{"midseason drain", 550, StageMidseasonDrain},
		{"heading", 1050, StageHeading},
		{"maturity is unbounded", 1700, StageMaturity},
		{"zero maps to first stage", 0, StageTillering},
		{"negative maps to first stage", -5, StageTillering},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := koshi.Classify(tt.accumulated, 20.0, th)
			assert.Equal(t, tt.wantStage, res.Stage)
		})
	}

	t.Run("monotonically non-decreasing", func(t *testing.T) {
		prev := -1
		for acc := 0.0; acc <= 2000; acc += 10 {
			res := koshi.Classify(acc, 20.0, th)
			idx := koshi.Index(res.Stage)
			require.GreaterOrEqual(t, idx, prev, "stage regressed at %.0f", acc)
			prev = idx
		}
	})

	t.Run("progress within interval", func(t *testing.T) {
		// tillering spans [0, 350); 175 is halfway.
		res := koshi.Classify(175, 20.0, th)
		assert.Equal(t, 50.0, res.ProgressPct)
	})

	t.Run("unbounded stage reports full progress and no next", func(t *testing.T) {
		res := koshi.Classify(1700, 20.0, th)
		assert.Equal(t, 100.0, res.ProgressPct)
		assert.Nil(t, res.DaysToNext)
	})

	t.Run("days to next uses clamped rate", func(t *testing.T) {
		// 50 °C·d to max tillering at 20 °C mean: 50 / 10 = 5 days.
		res := koshi.Classify(300, 20.0, th)
		require.NotNil(t, res.DaysToNext)
		assert.Equal(t, 5, *res.DaysToNext)

		// A cold spell never yields an infinite projection.
		res = koshi.Classify(300, 5.0, th)
		require.NotNil(t, res.DaysToNext)
		assert.Equal(t, 500, *res.DaysToNext)
	})

	t.Run("hinohikari shifts later", func(t *testing.T) {
		hino, err := LookupVariety("hinohikari")
		require.NoError(t, err)
		assert.Equal(t, StageTillering, hino.Classify(380, 20, th).Stage)
		assert.Equal(t, StageHeading, hino.Classify(1040, 20, th).Stage)
	})
}

func TestPanicleSensitive(t *testing.T) {
	assert.True(t, PanicleSensitive(StagePanicleFormation))
	assert.True(t, PanicleSensitive(StageBooting))
	assert.True(t, PanicleSensitive(StageHeading))
	assert.False(t, PanicleSensitive(StageTillering))
	assert.False(t, PanicleSensitive(StageGrainFilling))
}
