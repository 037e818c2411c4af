package service

import (
	"math"

	"fleet-dashboard/internal/model"
)

const (
	earthRadiusMeters = 6371000.0
	// AssignmentRadiusMeters is how far a vehicle may be from its job site
	// and still count as working on it.
	AssignmentRadiusMeters = 2000.0
)

// Classification is the job linkage of a vehicle after the distance check.
type Classification struct {
	DistanceM *float64
	JobID     *string
	JobCode   *string
	JobName   *string
}

// Classify measures the distance between a vehicle and its assigned job.
// Vehicles further than AssignmentRadiusMeters lose the assignment but keep
// the measured distance.
func Classify(v model.VehiclePosition) Classification {
	out := Classification{
		JobID:   v.JobID,
		JobCode: v.JobCode,
		JobName: v.JobName,
	}

	distance, within, ok := distanceToJob(v)
	if !ok {
		return out
	}
	out.DistanceM = &distance

	if !within {
		code := model.UnassignedJobCode
		name := model.UnassignedJobName
		out.JobID = nil
		out.JobCode = &code
		out.JobName = &name
	}
	return out
}

// Enrich returns classified copies of the vehicles. The input is left as is.
func Enrich(vehicles []model.VehiclePosition) []model.VehiclePosition {
	out := make([]model.VehiclePosition, len(vehicles))
	for i, v := range vehicles {
		c := Classify(v)
		v.DistanceM = c.DistanceM
		v.JobID = c.JobID
		v.JobCode = c.JobCode
		v.JobName = c.JobName
		out[i] = v
	}
	return out
}

func distanceToJob(v model.VehiclePosition) (distance float64, within bool, ok bool) {
	if !v.HasJob() || v.Latitude == nil || v.Longitude == nil || v.JobLatitude == nil || v.JobLongitude == nil {
		return 0, false, false
	}
	distance = haversine(*v.Latitude, *v.Longitude, *v.JobLatitude, *v.JobLongitude)
	return distance, distance <= AssignmentRadiusMeters, true
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
