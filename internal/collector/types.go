package collector

// Direction is the charge direction of a battery.
type Direction int

const (
	Unknown Direction = iota
	Charging
	Discharging
	Idle
)

func (d Direction) String() string {
	switch d {
	case Charging:
		return "Charging"
	case Discharging:
		return "Discharging"
	case Idle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// Sign returns the display prefix for the direction.
func (d Direction) Sign() string {
	switch d {
	case Charging:
		return "+"
	case Discharging:
		return "-"
	default:
		return ""
	}
}

// MarshalText lets Direction render by name in JSON.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// BatterySample is the power draw of one battery at poll time.
// PowerWatts is always a magnitude; the sign lives in Direction.
type BatterySample struct {
	DeviceID   string    `json:"device_id"`
	PowerWatts float64   `json:"power_watts"`
	Direction  Direction `json:"direction"`
}

// PowerSource records which sensor files a reading came from.
type PowerSource int

const (
	SourceNone PowerSource = iota
	SourcePowerNow
	SourceCurrentVoltage
)

func (s PowerSource) String() string {
	switch s {
	case SourcePowerNow:
		return "power_now"
	case SourceCurrentVoltage:
		return "current_now*voltage_now"
	default:
		return "none"
	}
}

// Reading is the outcome of reading a single battery directory.
type Reading struct {
	Sample       BatterySample
	Source       PowerSource
	RawPowerUW   int64
	RawCurrentUA int64
	RawVoltageUV int64
	Err          error
}

// OK reports whether the reading produced a usable sample.
func (r Reading) OK() bool {
	return r.Err == nil && r.Source != SourceNone
}
