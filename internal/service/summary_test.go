package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-dashboard/internal/model"
)

func assigned(name, jobID, code, jobName string) model.VehiclePosition {
	return model.VehiclePosition{
		VehicleName: name,
		JobID:       ptr(jobID),
		JobCode:     ptr(code),
		JobName:     ptr(jobName),
	}
}

func unassigned(name string) model.VehiclePosition {
	return model.VehiclePosition{
		VehicleName: name,
		JobCode:     ptr(model.UnassignedJobCode),
		JobName:     ptr(model.UnassignedJobName),
	}
}

func codes(summary []model.JobSummary) []string {
	out := make([]string, len(summary))
	for i, s := range summary {
		out[i] = s.JobCode
	}
	return out
}

func TestBuildSummaryGroupsAndOrders(t *testing.T) {
	vehicles := []model.VehiclePosition{
		assigned("Truck 3", "j-b", "B-200", "Pipeline East"),
		unassigned("Loader 1"),
		assigned("Truck 1", "j-a", "a-100", "Civil Site 1"),
		assigned("Truck 2", "j-b", "B-200", "Pipeline East"),
		unassigned("Loader 2"),
	}
	f := &fakeBackend{}

	summary, err := BuildSummary(context.Background(), vehicles, f, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"a-100", "B-200", "Unassigned"}, codes(summary))
	assert.Equal(t, 2, summary[1].VehicleCount)
	assert.Equal(t, []string{"Truck 3", "Truck 2"}, summary[1].VehicleNames)
	assert.Nil(t, summary[2].JobID)
	assert.Equal(t, 2, summary[2].VehicleCount)
	assert.Equal(t, []string{"Loader 1", "Loader 2"}, summary[2].VehicleNames)
	assert.Empty(t, f.Calls(), "roster must not be fetched without includeEmpty")
}

func TestBuildSummaryIncludesEmptyJobs(t *testing.T) {
	vehicles := []model.VehiclePosition{
		assigned("Truck 1", "j-c", "C-300", "Civil Site 3"),
		unassigned("Loader 1"),
	}
	f := &fakeBackend{jobs: []model.Job{
		{ID: "j-z", JobCode: "Z-900", Name: "Yard"},
		{ID: "j-c", JobCode: "C-300", Name: "Civil Site 3"},
		{ID: "j-a", JobCode: "A-100", Name: "Pipeline North"},
	}}

	summary, err := BuildSummary(context.Background(), vehicles, f, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"C-300", "Unassigned", "A-100", "Z-900"}, codes(summary))
	assert.Equal(t, 0, summary[2].VehicleCount)
	assert.Empty(t, summary[2].VehicleNames)
	assert.Equal(t, "Pipeline North", summary[2].JobName)
	assert.Equal(t, []string{"ListJobs"}, f.Calls())
}

func TestBuildSummaryRosterFailure(t *testing.T) {
	f := &fakeBackend{jobsErr: errors.New("connection reset")}

	_, err := BuildSummary(context.Background(), nil, f, true)
	assert.ErrorContains(t, err, "connection reset")
}

func TestBuildSummaryEdgeCases(t *testing.T) {
	summary, err := BuildSummary(context.Background(), nil, &fakeBackend{}, false)
	require.NoError(t, err)
	assert.Empty(t, summary)

	all := []model.VehiclePosition{unassigned("a"), unassigned("b"), unassigned("c")}
	summary, err = BuildSummary(context.Background(), all, &fakeBackend{}, false)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Nil(t, summary[0].JobID)
	assert.Equal(t, 3, summary[0].VehicleCount)
}

func TestBuildSummaryIsIdempotent(t *testing.T) {
	vehicles := []model.VehiclePosition{
		assigned("T1", "j1", "Same", "First"),
		assigned("T2", "j2", "Same", "Second"),
		unassigned("L1"),
		assigned("T3", "j3", "élan", "Accented"),
		assigned("T4", "j4", "Zulu", "Last"),
	}
	f := &fakeBackend{jobs: []model.Job{{ID: "j9", JobCode: "Empty", Name: "Nobody"}}}

	first, err := BuildSummary(context.Background(), vehicles, f, true)
	require.NoError(t, err)
	second, err := BuildSummary(context.Background(), vehicles, f, true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// Collation puts the accented code with the e's, not after z.
	assert.Equal(t, []string{"élan", "Same", "Same", "Zulu", "Unassigned", "Empty"}, codes(first))
	assert.Equal(t, "First", first[1].JobName)
}

func TestBuildSummaryFallbackLabels(t *testing.T) {
	v := model.VehiclePosition{VehicleName: "", JobID: ptr("j1")}

	summary, err := BuildSummary(context.Background(), []model.VehiclePosition{v}, &fakeBackend{}, false)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "j1", *summary[0].JobID)
	assert.Equal(t, model.UnassignedJobCode, summary[0].JobCode)
	assert.Equal(t, model.UnassignedJobName, summary[0].JobName)
	assert.Equal(t, []string{""}, summary[0].VehicleNames)
}

func TestSummaryTierInvariant(t *testing.T) {
	vehicles := []model.VehiclePosition{
		unassigned("u1"),
		assigned("t1", "j2", "M", "m"),
		assigned("t2", "j1", "A", "a"),
	}
	jobs := []model.Job{{ID: "j3", JobCode: "B"}, {ID: "j1", JobCode: "A"}}

	summary := summarize(vehicles, jobs)
	for i := 1; i < len(summary); i++ {
		assert.LessOrEqual(t, summaryTier(summary[i-1]), summaryTier(summary[i]))
	}
	assert.Equal(t, []string{"A", "M", "Unassigned", "B"}, codes(summary))
}
