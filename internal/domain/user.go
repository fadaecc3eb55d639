package domain

import "time"

// RiskSegment buckets users by expected activity and baseline fraud risk.
type RiskSegment string

const (
	SegmentLow    RiskSegment = "low"
	SegmentMedium RiskSegment = "medium"
	SegmentHigh   RiskSegment = "high"
)

// Valid reports whether the segment is one of the known values.
func (s RiskSegment) Valid() bool {
	switch s {
	case SegmentLow, SegmentMedium, SegmentHigh:
		return true
	}
	return false
}

// DeviceType distinguishes the client platform a device belongs to.
type DeviceType string

const (
	DeviceMobile DeviceType = "mobile"
	DeviceWeb    DeviceType = "web"
)

// User is an account holder. Immutable after generation; its lifetime spans
// the whole run.
type User struct {
	ID               string      `json:"user_id"`
	RegistrationDate time.Time   `json:"registration_date"`
	HomeCountry      string      `json:"home_country"`
	RiskSegment      RiskSegment `json:"risk_segment"`
}

// Device is a client endpoint owned by exactly one user. Users may own
// several devices.
type Device struct {
	ID        string     `json:"device_id"`
	UserID    string     `json:"user_id"`
	Type      DeviceType `json:"device_type"`
	FirstSeen time.Time  `json:"first_seen_ts"`
}
