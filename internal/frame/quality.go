package frame

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Quality is the ordinal verdict tier. The ordering is total:
// Pending < Fair < Good < Excellent. Pending is a sentinel for "no verdict
// yet" and is never a final verdict.
type Quality int

const (
	QualityPending Quality = iota
	QualityFair
	QualityGood
	QualityExcellent
)

func (q Quality) String() string {
	switch q {
	case QualityFair:
		return "Fair"
	case QualityGood:
		return "Good"
	case QualityExcellent:
		return "Excellent"
	default:
		return "Pending"
	}
}

// ParseQuality maps a wire string to a tier. Only final verdict tiers are
// accepted; anything else is a schema violation.
func ParseQuality(s string) (Quality, error) {
	switch strings.TrimSpace(s) {
	case "Fair":
		return QualityFair, nil
	case "Good":
		return QualityGood, nil
	case "Excellent":
		return QualityExcellent, nil
	}
	return QualityPending, fmt.Errorf("unknown quality %q", s)
}

func (q Quality) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

func (q *Quality) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "Pending" {
		*q = QualityPending
		return nil
	}
	parsed, err := ParseQuality(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ShotType classifies how the subject appears in the frame. The same closed
// type is used for request construction, response parsing, and filtering so
// the wire strings cannot drift.
type ShotType int

const (
	ShotUnknown ShotType = iota
	ShotPosed
	ShotCandid
)

func (s ShotType) String() string {
	switch s {
	case ShotPosed:
		return "Posed"
	case ShotCandid:
		return "Candid"
	default:
		return "Unknown"
	}
}

// ParseShotType accepts both the wire form ("Pose") and the display form
// ("Posed").
func ParseShotType(s string) (ShotType, error) {
	switch strings.TrimSpace(s) {
	case "Pose", "Posed":
		return ShotPosed, nil
	case "Candid":
		return ShotCandid, nil
	case "Unknown", "":
		return ShotUnknown, nil
	}
	return ShotUnknown, fmt.Errorf("unknown shot type %q", s)
}

func (s ShotType) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ShotType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseShotType(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
