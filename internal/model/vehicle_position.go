package model

import (
	"strings"
	"time"
)

// VehiclePosition is one row of the latest-positions view: the last known fix
// of a vehicle joined with the job it is currently assigned to.
type VehiclePosition struct {
	VehicleID    string   `gorm:"column:vehicle_id" json:"vehicle_id"`
	VehicleName  string   `gorm:"column:vehicle_name" json:"vehicle_name"`
	VehicleType  *string  `gorm:"column:vehicle_type" json:"vehicle_type"`
	JobID        *string  `gorm:"column:job_id" json:"job_id"`
	JobCode      *string  `gorm:"column:job_code" json:"job_code"`
	JobName      *string  `gorm:"column:job_name" json:"job_name"`
	JobLatitude  *float64 `gorm:"column:job_latitude" json:"job_latitude"`
	JobLongitude *float64 `gorm:"column:job_longitude" json:"job_longitude"`
	Latitude     *float64 `gorm:"column:latitude" json:"latitude"`
	Longitude    *float64 `gorm:"column:longitude" json:"longitude"`
	SpeedKph     *float64 `gorm:"column:speed_kph" json:"speed_kph"`
	Heading      *float64 `gorm:"column:heading" json:"heading"`
	OdometerKm   *float64 `gorm:"column:odometer_km" json:"odometer_km"`
	TimestampUTC string   `gorm:"column:timestamp_utc" json:"timestamp_utc"`
	DistanceM    *float64 `gorm:"-" json:"distance_m"`
}

func (VehiclePosition) TableName() string {
	return "latest_vehicle_positions"
}

// HasJob reports whether the vehicle is linked to a job. An empty id counts
// as no job.
func (p VehiclePosition) HasJob() bool {
	return p.JobID != nil && *p.JobID != ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp parses TimestampUTC. Values without a zone are read as UTC.
func (p VehiclePosition) Timestamp() (time.Time, bool) {
	raw := strings.TrimSpace(p.TimestampUTC)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
