package service

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"fleet-dashboard/internal/backend"
	"fleet-dashboard/internal/model"
)

// BuildSummary groups classified vehicles by job. With includeEmpty the job
// roster is fetched and jobs without vehicles are added with a zero count;
// without it the roster is never touched.
//
// The result lists jobs with vehicles first, then the Unassigned bucket, then
// empty jobs, each tier ordered by job code.
func BuildSummary(ctx context.Context, vehicles []model.VehiclePosition, roster backend.JobRoster, includeEmpty bool) ([]model.JobSummary, error) {
	var jobs []model.Job
	if includeEmpty {
		var err error
		jobs, err = roster.ListJobs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load job roster: %w", err)
		}
	}
	return summarize(vehicles, jobs), nil
}

func summarize(vehicles []model.VehiclePosition, jobs []model.Job) []model.JobSummary {
	groups := make(map[string]*model.JobSummary)
	var order []*model.JobSummary
	var unassigned *model.JobSummary

	for _, v := range vehicles {
		if !v.HasJob() {
			if unassigned == nil {
				unassigned = &model.JobSummary{
					JobCode: model.UnassignedJobCode,
					JobName: model.UnassignedJobName,
				}
				order = append(order, unassigned)
			}
			unassigned.VehicleCount++
			unassigned.VehicleNames = append(unassigned.VehicleNames, v.VehicleName)
			continue
		}

		id := *v.JobID
		group, ok := groups[id]
		if !ok {
			group = &model.JobSummary{
				JobID:   &id,
				JobCode: orDefault(v.JobCode, model.UnassignedJobCode),
				JobName: orDefault(v.JobName, model.UnassignedJobName),
			}
			groups[id] = group
			order = append(order, group)
		}
		group.VehicleCount++
		group.VehicleNames = append(group.VehicleNames, v.VehicleName)
	}

	for _, job := range jobs {
		if job.ID == "" {
			continue
		}
		if _, ok := groups[job.ID]; ok {
			continue
		}
		id := job.ID
		group := &model.JobSummary{
			JobID:        &id,
			JobCode:      job.JobCode,
			JobName:      job.Name,
			VehicleNames: []string{},
		}
		groups[id] = group
		order = append(order, group)
	}

	out := make([]model.JobSummary, len(order))
	for i, group := range order {
		out[i] = *group
	}

	// collate.Collator keeps scratch buffers, so one per call.
	collator := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := summaryTier(out[i]), summaryTier(out[j])
		if ti != tj {
			return ti < tj
		}
		return collator.CompareString(out[i].JobCode, out[j].JobCode) < 0
	})
	return out
}

func summaryTier(s model.JobSummary) int {
	switch {
	case s.JobID == nil:
		return 1
	case s.VehicleCount > 0:
		return 0
	default:
		return 2
	}
}

func orDefault(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
