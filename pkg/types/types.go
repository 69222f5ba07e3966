package types

// Quantity is a measured value with its unit, shaped as the feed's
// XML element text and "units" attribute.
type Quantity struct {
	Value float64 `json:"#text"`
	Units string  `json:"@units,omitempty"`
}

// StateVector is one timestamped position/velocity sample.
// Position is in km, velocity in km/s, both in the J2000 frame.
type StateVector struct {
	Epoch string   `json:"EPOCH"`
	X     Quantity `json:"X"`
	Y     Quantity `json:"Y"`
	Z     Quantity `json:"Z"`
	XDot  Quantity `json:"X_DOT"`
	YDot  Quantity `json:"Y_DOT"`
	ZDot  Quantity `json:"Z_DOT"`
}

// UpsertResult is the outcome of a single store upsert
type UpsertResult int

const (
	Unchanged UpsertResult = iota
	Inserted
	Updated
)

func (r UpsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	default:
		return "*unknown*"
	}
}

// ReconcileReport counts the outcomes of merging one feed into the store
type ReconcileReport struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Processed returns the number of samples merged
func (r ReconcileReport) Processed() int {
	return r.Inserted + r.Updated + r.Unchanged
}

// Add records one upsert outcome
func (r *ReconcileReport) Add(result UpsertResult) {
	switch result {
	case Inserted:
		r.Inserted++
	case Updated:
		r.Updated++
	default:
		r.Unchanged++
	}
}

// Position is a ground-track sub-point
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// SpeedResult is the response for a speed query
type SpeedResult struct {
	Epoch string  `json:"EPOCH"`
	Speed float64 `json:"Instantaneous_Speed"`
}

// LocationResult is the response for a location query
type LocationResult struct {
	Epoch string `json:"EPOCH"`
	Position
	NearestGeolocation string `json:"Nearest_Geolocation"`
}

// NowResult is the response for the current-position query
type NowResult struct {
	Epoch              string  `json:"now_EPOCH"`
	Speed              float64 `json:"now_speed"`
	Latitude           float64 `json:"now_latitude"`
	Longitude          float64 `json:"now_longitude"`
	Altitude           float64 `json:"now_altitude"`
	NearestGeolocation string  `json:"now_Nearest_Geolocation"`
}

// ErrorResult is the payload of every failed request
type ErrorResult struct {
	Error string `json:"error"`
}
