package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-dashboard/internal/model"
)

func tableFixture() []model.VehiclePosition {
	return []model.VehiclePosition{
		{VehicleID: "1", VehicleName: "Excavator 7", VehicleType: ptr("Pipeline"), JobID: ptr("j1"), JobCode: ptr("J-100"), JobName: ptr("Civil Site 1"), Latitude: ptr(46.2), SpeedKph: ptr(10.0), TimestampUTC: "2025-11-20T18:30:00Z"},
		{VehicleID: "2", VehicleName: "dump truck", VehicleType: ptr("Civil"), JobID: ptr("j2"), JobCode: ptr("P-200"), JobName: ptr("Pipeline North"), Latitude: ptr(45.9), SpeedKph: ptr(0.0), TimestampUTC: "2025-11-20T17:00:00+00:00"},
		{VehicleID: "3", VehicleName: "Grader", VehicleType: ptr("civil"), JobCode: ptr("Unassigned"), JobName: ptr("No Job Assigned"), SpeedKph: ptr(10.0), TimestampUTC: "2025-11-20 19:00:00+00"},
		{VehicleID: "4", VehicleName: "Pickup", VehicleType: nil, SpeedKph: nil, TimestampUTC: ""},
	}
}

func ids(rows []model.VehiclePosition) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.VehicleID
	}
	return out
}

func TestApplyTableQueryJobFilter(t *testing.T) {
	rows := tableFixture()

	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(ApplyTableQuery(rows, TableQuery{JobFilter: JobFilterAll})))
	assert.Equal(t, []string{"3", "4"}, ids(ApplyTableQuery(rows, TableQuery{JobFilter: JobFilterUnassigned})))
	assert.Equal(t, []string{"2"}, ids(ApplyTableQuery(rows, TableQuery{JobFilter: "j2"})))
	assert.Empty(t, ApplyTableQuery(rows, TableQuery{JobFilter: "nope"}))
}

func TestApplyTableQuerySearch(t *testing.T) {
	rows := tableFixture()

	// Matches the job name even though the vehicle type is Pipeline.
	got := ApplyTableQuery(rows, TableQuery{Search: "  civil "})
	assert.Equal(t, []string{"1"}, ids(got))

	got = ApplyTableQuery(rows, TableQuery{Search: "p-2"})
	assert.Equal(t, []string{"2"}, ids(got))

	got = ApplyTableQuery(rows, TableQuery{Search: "   "})
	assert.Len(t, got, 4)
}

func TestApplyTableQueryTypes(t *testing.T) {
	rows := tableFixture()

	got := ApplyTableQuery(rows, TableQuery{FilterTypes: true, Types: []string{"Civil"}})
	assert.Equal(t, []string{"2", "3"}, ids(got))

	got = ApplyTableQuery(rows, TableQuery{FilterTypes: true, Types: []string{"civil", "PIPELINE"}})
	assert.Equal(t, []string{"2", "1", "3"}, ids(got))

	got = ApplyTableQuery(rows, TableQuery{FilterTypes: true})
	assert.Empty(t, got)

	got = ApplyTableQuery(rows, TableQuery{Types: []string{"Civil"}})
	assert.Len(t, got, 4, "types are ignored unless FilterTypes is set")
}

func TestApplyTableQueryNumericSortIsStable(t *testing.T) {
	rows := tableFixture()

	asc := ApplyTableQuery(rows, TableQuery{Column: SortBySpeed, Direction: SortAsc})
	assert.Equal(t, []string{"4", "2", "1", "3"}, ids(asc))

	desc := ApplyTableQuery(rows, TableQuery{Column: SortBySpeed, Direction: SortDesc})
	assert.Equal(t, []string{"1", "3", "2", "4"}, ids(desc))
}

func TestApplyTableQueryNullsSortLowest(t *testing.T) {
	rows := tableFixture()

	got := ApplyTableQuery(rows, TableQuery{Column: SortByLatitude})
	assert.Equal(t, []string{"3", "4", "2", "1"}, ids(got))

	got = ApplyTableQuery(rows, TableQuery{Column: SortByVehicleType})
	assert.Equal(t, []string{"4", "2", "3", "1"}, ids(got))
}

func TestApplyTableQueryTimestampSort(t *testing.T) {
	rows := tableFixture()

	got := ApplyTableQuery(rows, TableQuery{Column: SortByTimestamp, Direction: SortDesc})
	assert.Equal(t, []string{"3", "1", "2", "4"}, ids(got))
}

func TestApplyTableQueryDoesNotMutateInput(t *testing.T) {
	rows := tableFixture()
	before := ids(rows)

	_ = ApplyTableQuery(rows, TableQuery{Column: SortByVehicleName, Direction: SortDesc})
	assert.Equal(t, before, ids(rows))
}

func TestParseSortOptions(t *testing.T) {
	col, err := ParseSortColumn("")
	require.NoError(t, err)
	assert.Equal(t, SortByVehicleName, col)

	col, err = ParseSortColumn("Distance_M")
	require.NoError(t, err)
	assert.Equal(t, SortByDistance, col)

	col, err = ParseSortColumn("timestamp_utc")
	require.NoError(t, err)
	assert.Equal(t, SortByTimestamp, col)

	_, err = ParseSortColumn("source_raw")
	assert.ErrorIs(t, err, ErrInvalidInput)

	dir, err := ParseSortDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, dir)

	_, err = ParseSortDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
