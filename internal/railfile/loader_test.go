package railfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manvalan/fdc-railway-engine/core/model"
)

const sampleDoc = `{
  "name": "Toscana",
  "nodes": [
    {"id": "FI", "name": "Firenze SMN", "type": "station", "platform_count": 16},
    {"id": "PO", "name": "Prato C.le", "type": "station", "platform_count": 5},
    {"id": "PT", "name": "Pistoia", "type": "station", "platform_count": 4}
  ],
  "edges": [
    {"from": "FI", "to": "PO", "distance": 17.3, "maxSpeed": 140, "trackType": "double", "capacity": 10},
    {"from": "PO", "to": "PT", "distance": 15.1, "maxSpeed": 120, "trackType": "single", "capacity": 10}
  ],
  "lines": [
    {"id": "L1", "name": "Firenze-Pistoia", "color": "#0000FF", "stops": [
      {"stationId": "FI", "minDwellTime": 3},
      {"stationId": "PO", "minDwellTime": 3},
      {"stationId": "PT", "minDwellTime": 3}
    ]}
  ],
  "trains": [
    {"id": "t1", "code": 18301, "name": "R 18301", "category": "regional",
     "maxSpeed": 140, "acceleration": 0.5, "deceleration": 0.5, "priority": 4,
     "departure": "08:00",
     "stops": [
       {"stationId": "FI", "minDwellTime": 3},
       {"stationId": "PO", "minDwellTime": 3, "plannedArrival": "08:15:30"},
       {"stationId": "PT", "minDwellTime": 3}
     ]}
  ]
}`

func TestParseSampleDocument(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "Toscana", doc.Name)
	assert.Len(t, doc.Nodes, 3)
	assert.Len(t, doc.Edges, 2)

	ln, ok := doc.Line("L1")
	require.True(t, ok)
	assert.Equal(t, "Firenze-Pistoia", ln.Name)
	_, ok = doc.Line("L9")
	assert.False(t, ok)

	net, err := doc.Network()
	require.NoError(t, err)
	route, dist, err := net.ShortestPath("FI", "PT")
	require.NoError(t, err)
	assert.Equal(t, []string{"FI", "PO", "PT"}, route)
	assert.InDelta(t, 32.4, dist, 1e-9)
}

func TestTrainListConversion(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	trains, err := doc.TrainList()
	require.NoError(t, err)
	require.Len(t, trains, 1)

	tr := trains[0]
	assert.Equal(t, "t1", tr.ID)
	assert.Equal(t, model.ClockTime(8, 0), tr.Departure)
	require.Len(t, tr.Stops, 3)
	assert.Equal(t, 3*time.Minute, tr.Stops[0].MinDwell)

	require.NotNil(t, tr.Stops[1].PlannedArrival)
	want := model.ClockTime(8, 15).Add(30 * time.Second)
	assert.Equal(t, want, *tr.Stops[1].PlannedArrival)
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toscana.rail")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Toscana", doc.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.rail"))
	assert.Error(t, err)
}

func TestParseRejectsDanglingReferences(t *testing.T) {
	cases := map[string]string{
		"edge":  `{"nodes": [{"id": "A"}], "edges": [{"from": "A", "to": "Z", "distance": 1}]}`,
		"line":  `{"nodes": [{"id": "A"}], "lines": [{"id": "L", "stops": [{"stationId": "Z"}]}]}`,
		"train": `{"nodes": [{"id": "A"}], "trains": [{"id": "t", "stops": [{"stationId": "Z"}]}]}`,
		"dup":   `{"nodes": [{"id": "A"}, {"id": "A"}]}`,
	}
	for name, raw := range cases {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestParseRejectsBadClock(t *testing.T) {
	raw := `{"nodes": [{"id": "A"}, {"id": "B"}], "trains": [
      {"id": "t", "maxSpeed": 140, "acceleration": 0.5, "deceleration": 0.5,
       "departure": "25:99",
       "stops": [{"stationId": "A"}, {"stationId": "B"}]}]}`
	doc, err := Parse([]byte(raw))
	require.NoError(t, err)
	_, err = doc.TrainList()
	assert.Error(t, err)
}
