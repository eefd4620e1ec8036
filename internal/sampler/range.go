package sampler

import "fmt"

// Range selects which slice of the video a scan walks.
type Range int

const (
	RangeFull Range = iota
	RangeFirstHalf
	RangeSecondHalf
	RangeQ1
	RangeQ2
	RangeQ3
	RangeQ4
)

// ParseRange maps a user-facing range name to a Range.
func ParseRange(s string) (Range, error) {
	switch s {
	case "full", "":
		return RangeFull, nil
	case "first-half":
		return RangeFirstHalf, nil
	case "second-half":
		return RangeSecondHalf, nil
	case "q1":
		return RangeQ1, nil
	case "q2":
		return RangeQ2, nil
	case "q3":
		return RangeQ3, nil
	case "q4":
		return RangeQ4, nil
	}
	return RangeFull, fmt.Errorf("unknown scan range %q", s)
}

func (r Range) String() string {
	switch r {
	case RangeFirstHalf:
		return "first-half"
	case RangeSecondHalf:
		return "second-half"
	case RangeQ1:
		return "q1"
	case RangeQ2:
		return "q2"
	case RangeQ3:
		return "q3"
	case RangeQ4:
		return "q4"
	default:
		return "full"
	}
}

// Resolve maps the range onto [start, end) against the total duration.
func (r Range) Resolve(duration float64) (start, end float64) {
	switch r {
	case RangeFirstHalf:
		return 0, duration / 2
	case RangeSecondHalf:
		return duration / 2, duration
	case RangeQ1:
		return 0, duration * 0.25
	case RangeQ2:
		return duration * 0.25, duration * 0.5
	case RangeQ3:
		return duration * 0.5, duration * 0.75
	case RangeQ4:
		return duration * 0.75, duration
	default:
		return 0, duration
	}
}
