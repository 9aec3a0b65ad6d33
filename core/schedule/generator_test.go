package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manvalan/fdc-railway-engine/core/model"
)

func testLine() model.Line {
	return model.Line{
		ID:   "L1",
		Name: "Firenze-Pisa",
		Stops: []model.LineStop{
			{StationID: "FI", MinDwellTime: 3},
			{StationID: "EM", MinDwellTime: 2},
			{StationID: "PI"}, // no dwell declared, falls back to the default
		},
	}
}

func TestTripUsesCategoryPreset(t *testing.T) {
	g, err := NewGenerator(testLine(), "intercity", 500)
	require.NoError(t, err)

	tr := g.Trip(model.ClockTime(7, 30))
	require.NoError(t, tr.Validate())

	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, 500, tr.Code)
	assert.Equal(t, "Firenze-Pisa 500", tr.Name)
	assert.Equal(t, "intercity", tr.Category)
	assert.Equal(t, "L1", tr.LineID)
	assert.InDelta(t, 180, tr.MaxSpeed, 1e-9)
	assert.Equal(t, 6, tr.Priority)
	assert.Equal(t, model.ClockTime(7, 30), tr.Departure)

	require.Len(t, tr.Stops, 3)
	assert.Equal(t, 3*time.Minute, tr.Stops[0].MinDwell)
	assert.Equal(t, 2*time.Minute, tr.Stops[1].MinDwell)
	assert.Equal(t, 3*time.Minute, tr.Stops[2].MinDwell, "missing dwell falls back to the default")
}

func TestTripCodesAreSequential(t *testing.T) {
	g, err := NewGenerator(testLine(), "regional", 0)
	require.NoError(t, err)

	a := g.Trip(model.ClockTime(6, 0))
	b := g.Trip(model.ClockTime(6, 30))
	assert.Equal(t, a.Code+1, b.Code)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestBatchCadence(t *testing.T) {
	g, err := NewGenerator(testLine(), "regional", 100)
	require.NoError(t, err)

	trains, err := g.Batch(model.ClockTime(6, 0), model.ClockTime(8, 0), 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, trains, 5, "6:00 through 8:00 inclusive at 30 min cadence")

	for i, tr := range trains {
		want := model.ClockTime(6, 0).Add(time.Duration(i) * 30 * time.Minute)
		assert.Equal(t, want, tr.Departure)
	}
}

func TestBatchRejectsBadWindow(t *testing.T) {
	g, err := NewGenerator(testLine(), "regional", 100)
	require.NoError(t, err)

	_, err = g.Batch(model.ClockTime(9, 0), model.ClockTime(8, 0), 30*time.Minute)
	assert.Error(t, err)

	_, err = g.Batch(model.ClockTime(6, 0), model.ClockTime(8, 0), 0)
	assert.Error(t, err)
}

func TestNewGeneratorValidation(t *testing.T) {
	_, err := NewGenerator(testLine(), "maglev", 1)
	assert.Error(t, err)

	short := model.Line{ID: "L2", Stops: []model.LineStop{{StationID: "FI"}}}
	_, err = NewGenerator(short, "regional", 1)
	assert.Error(t, err)
}

func TestPresetFor(t *testing.T) {
	for _, c := range Categories() {
		p, ok := PresetFor(c)
		assert.True(t, ok, c)
		assert.Positive(t, p.MaxSpeed)
		assert.Positive(t, p.Priority)
	}
	_, ok := PresetFor("freight")
	assert.False(t, ok)
}
