package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"fleet-dashboard/internal/model"
	"fleet-dashboard/internal/utils"
)

const (
	JobFilterAll        = "ALL"
	JobFilterUnassigned = "UNASSIGNED"
)

type SortColumn string

const (
	SortByVehicleName SortColumn = "vehicle_name"
	SortByVehicleType SortColumn = "vehicle_type"
	SortByJobCode     SortColumn = "job_code"
	SortByJobName     SortColumn = "job_name"
	SortByLatitude    SortColumn = "latitude"
	SortByLongitude   SortColumn = "longitude"
	SortBySpeed       SortColumn = "speed_kph"
	SortByHeading     SortColumn = "heading"
	SortByOdometer    SortColumn = "odometer_km"
	SortByDistance    SortColumn = "distance_m"
	SortByTimestamp   SortColumn = "timestamp_utc"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// TableQuery is the state of the vehicle table controls.
type TableQuery struct {
	// JobFilter is JobFilterAll, JobFilterUnassigned or a job id.
	JobFilter string
	Search    string
	// Types are the enabled type tags. They only apply when FilterTypes is
	// set; an empty set then matches no vehicle.
	Types       []string
	FilterTypes bool
	Column      SortColumn
	Direction   SortDirection
}

func ParseSortColumn(raw string) (SortColumn, error) {
	col := SortColumn(strings.ToLower(strings.TrimSpace(raw)))
	if col == "" {
		return SortByVehicleName, nil
	}
	if _, ok := numericColumns[col]; ok {
		return col, nil
	}
	if _, ok := stringColumns[col]; ok {
		return col, nil
	}
	if col == SortByTimestamp {
		return col, nil
	}
	return "", fmt.Errorf("%w: unknown sort column %q", ErrInvalidInput, raw)
}

func ParseSortDirection(raw string) (SortDirection, error) {
	switch SortDirection(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	default:
		return "", fmt.Errorf("%w: unknown sort direction %q", ErrInvalidInput, raw)
	}
}

var numericColumns = map[SortColumn]func(model.VehiclePosition) *float64{
	SortByLatitude:  func(v model.VehiclePosition) *float64 { return v.Latitude },
	SortByLongitude: func(v model.VehiclePosition) *float64 { return v.Longitude },
	SortBySpeed:     func(v model.VehiclePosition) *float64 { return v.SpeedKph },
	SortByHeading:   func(v model.VehiclePosition) *float64 { return v.Heading },
	SortByOdometer:  func(v model.VehiclePosition) *float64 { return v.OdometerKm },
	SortByDistance:  func(v model.VehiclePosition) *float64 { return v.DistanceM },
}

var stringColumns = map[SortColumn]func(model.VehiclePosition) string{
	SortByVehicleName: func(v model.VehiclePosition) string { return v.VehicleName },
	SortByVehicleType: func(v model.VehiclePosition) string { return model.StringValue(v.VehicleType) },
	SortByJobCode:     func(v model.VehiclePosition) string { return model.StringValue(v.JobCode) },
	SortByJobName:     func(v model.VehiclePosition) string { return model.StringValue(v.JobName) },
}

// ApplyTableQuery filters and sorts a copy of vehicles.
func ApplyTableQuery(vehicles []model.VehiclePosition, q TableQuery) []model.VehiclePosition {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	var enabled map[string]struct{}
	if q.FilterTypes {
		enabled = make(map[string]struct{}, len(q.Types))
		for _, t := range q.Types {
			enabled[utils.NormalizeTag(t)] = struct{}{}
		}
	}

	rows := make([]model.VehiclePosition, 0, len(vehicles))
	for _, v := range vehicles {
		if !matchesJob(v, q.JobFilter) || !matchesSearch(v, search) {
			continue
		}
		if enabled != nil {
			if _, ok := enabled[utils.NormalizeTag(model.StringValue(v.VehicleType))]; !ok {
				continue
			}
		}
		rows = append(rows, v)
	}

	cmp := comparator(q.Column)
	dir := 1
	if q.Direction == SortDesc {
		dir = -1
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return cmp(rows[i], rows[j])*dir < 0
	})
	return rows
}

func matchesJob(v model.VehiclePosition, filter string) bool {
	switch filter {
	case "", JobFilterAll:
		return true
	case JobFilterUnassigned:
		return !v.HasJob()
	default:
		return v.HasJob() && *v.JobID == filter
	}
}

func matchesSearch(v model.VehiclePosition, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v.VehicleName), search) ||
		strings.Contains(strings.ToLower(model.StringValue(v.JobCode)), search) ||
		strings.Contains(strings.ToLower(model.StringValue(v.JobName)), search)
}

func comparator(col SortColumn) func(a, b model.VehiclePosition) int {
	if col == "" {
		col = SortByVehicleName
	}
	if get, ok := numericColumns[col]; ok {
		return func(a, b model.VehiclePosition) int {
			return compareFloat(numberOrLowest(get(a)), numberOrLowest(get(b)))
		}
	}
	if col == SortByTimestamp {
		return func(a, b model.VehiclePosition) int {
			return instantOrLowest(a).Compare(instantOrLowest(b))
		}
	}
	get, ok := stringColumns[col]
	if !ok {
		get = stringColumns[SortByVehicleName]
	}
	return func(a, b model.VehiclePosition) int {
		return strings.Compare(strings.ToLower(get(a)), strings.ToLower(get(b)))
	}
}

func numberOrLowest(f *float64) float64 {
	if f == nil || math.IsNaN(*f) {
		return math.Inf(-1)
	}
	return *f
}

func instantOrLowest(v model.VehiclePosition) time.Time {
	ts, ok := v.Timestamp()
	if !ok {
		return time.Time{}
	}
	return ts
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
