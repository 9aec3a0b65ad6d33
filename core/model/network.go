package model

// TrackType classifies a track segment.
type TrackType string

const (
	TrackSingle    TrackType = "single"
	TrackDouble    TrackType = "double"
	TrackRegional  TrackType = "regional"
	TrackHighSpeed TrackType = "highSpeed"
)

// SingleOccupancy reports whether the track type forbids two trains on the
// segment at the same time. Double and high-speed sections carry parallel
// tracks, so opposing or following trains may share them.
func (t TrackType) SingleOccupancy() bool {
	return t == TrackSingle || t == TrackRegional
}

// Station is a node of the railway network.
type Station struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"` // station | halt | interchange
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Platforms int     `json:"platform_count"`
	Capacity  int     `json:"capacity"`
}

// Segment is an undirected connection between two stations.
// Distance must be positive.
type Segment struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	DistanceKm float64   `json:"distance"`
	SpeedLimit float64   `json:"maxSpeed"` // km/h
	Type       TrackType `json:"trackType"`
	Capacity   int       `json:"capacity"`
}

// Key returns the undirected identity of the segment, independent of the
// direction it was declared or traversed in.
func (s Segment) Key() string {
	if s.From < s.To {
		return s.From + "--" + s.To
	}
	return s.To + "--" + s.From
}

// Line is a commercial route: an ordered list of stations with default
// dwell times, used as a template for schedule generation.
type Line struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Color string     `json:"color"`
	Stops []LineStop `json:"stops"`
}

// LineStop is one station of a commercial line.
type LineStop struct {
	StationID    string `json:"stationId"`
	MinDwellTime int    `json:"minDwellTime"` // minutes
}
