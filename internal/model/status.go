package model

// StatusCode is the flight status reported by oracles.  The numeric values
// are part of the oracle wire protocol and must not change.
type StatusCode uint8

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

// StatusCodes lists every valid code in ascending order.
var StatusCodes = []StatusCode{
	StatusUnknown,
	StatusOnTime,
	StatusLateAirline,
	StatusLateWeather,
	StatusLateTechnical,
	StatusLateOther,
}

func (s StatusCode) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusOnTime:
		return "on_time"
	case StatusLateAirline:
		return "late_airline"
	case StatusLateWeather:
		return "late_weather"
	case StatusLateTechnical:
		return "late_technical"
	case StatusLateOther:
		return "late_other"
	default:
		return "invalid"
	}
}

// Valid reports whether s is one of the defined codes.
func (s StatusCode) Valid() bool {
	for _, c := range StatusCodes {
		if c == s {
			return true
		}
	}
	return false
}

// Terminal reports whether a flight finalized with s is settled.  Unknown
// is the only non-terminal code.
func (s StatusCode) Terminal() bool { return s != StatusUnknown && s.Valid() }
