package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fleet-dashboard/internal/backend"
	"fleet-dashboard/internal/config"
	"fleet-dashboard/internal/model"
)

const refreshPositionsRPC = "rpc/refresh_vehicle_positions"

// StatusError is returned for every non-2xx response of the backend.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s returned status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return backend.ErrNotFound
	case http.StatusConflict:
		return backend.ErrConflict
	default:
		return nil
	}
}

// BackendClient talks to the PostgREST interface of the hosted backend.
type BackendClient struct {
	baseURL        string
	apiKey         string
	bearerToken    string
	positionsView  string
	positionsTable string
	jobsTable      string
	vehiclesTable  string
	httpClient     *http.Client
}

var _ backend.Backend = (*BackendClient)(nil)

func NewBackendClient(cfg config.BackendConfig) *BackendClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BackendClient{
		baseURL:        strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		apiKey:         cfg.APIKey,
		bearerToken:    cfg.BearerToken,
		positionsView:  cfg.PositionsView,
		positionsTable: cfg.PositionsTable,
		jobsTable:      cfg.JobsTable,
		vehiclesTable:  cfg.VehiclesTable,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// jobPayload is the row shape of the jobs table; the form calls the name
// field job_name, the table calls it name.
type jobPayload struct {
	JobCode   string   `json:"job_code"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func newJobPayload(input model.JobInput) jobPayload {
	return jobPayload{
		JobCode:   input.JobCode,
		Name:      input.JobName,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	}
}

func (c *BackendClient) ListPositions(ctx context.Context) ([]model.VehiclePosition, error) {
	var positions []model.VehiclePosition
	query := url.Values{"select": []string{"*"}}
	if err := c.do(ctx, http.MethodGet, c.positionsView, query, nil, &positions); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

func (c *BackendClient) ListJobs(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	if err := c.do(ctx, http.MethodGet, c.jobsTable, nil, nil, &jobs); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (c *BackendClient) GetJob(ctx context.Context, id string) (*model.Job, error) {
	var jobs []model.Job
	if err := c.do(ctx, http.MethodGet, c.jobsTable, eqFilter("id", id), nil, &jobs); err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return firstJob(jobs, id)
}

func (c *BackendClient) CreateJob(ctx context.Context, input model.JobInput) (*model.Job, error) {
	var jobs []model.Job
	if err := c.do(ctx, http.MethodPost, c.jobsTable, nil, newJobPayload(input), &jobs); err != nil {
		return nil, fmt.Errorf("create job %s: %w", input.JobCode, err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("create job %s: empty representation", input.JobCode)
	}
	return &jobs[0], nil
}

func (c *BackendClient) UpdateJob(ctx context.Context, id string, input model.JobInput) (*model.Job, error) {
	var jobs []model.Job
	if err := c.do(ctx, http.MethodPatch, c.jobsTable, eqFilter("id", id), newJobPayload(input), &jobs); err != nil {
		return nil, fmt.Errorf("update job %s: %w", id, err)
	}
	return firstJob(jobs, id)
}

func (c *BackendClient) DeleteJob(ctx context.Context, id string) error {
	var jobs []model.Job
	if err := c.do(ctx, http.MethodDelete, c.jobsTable, eqFilter("id", id), nil, &jobs); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	if len(jobs) == 0 {
		return fmt.Errorf("delete job %s: %w", id, backend.ErrNotFound)
	}
	return nil
}

func (c *BackendClient) ClearJobAssignments(ctx context.Context, jobID string) error {
	payload := map[string]any{"job_id": nil}
	if err := c.do(ctx, http.MethodPatch, c.positionsTable, eqFilter("job_id", jobID), payload, nil); err != nil {
		return fmt.Errorf("clear assignments of job %s: %w", jobID, err)
	}
	return nil
}

func (c *BackendClient) RefreshPositions(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, refreshPositionsRPC, nil, struct{}{}, nil); err != nil {
		return fmt.Errorf("refresh vehicle positions: %w", err)
	}
	return nil
}

func (c *BackendClient) UpdateVehicleType(ctx context.Context, vehicleID, vehicleType string) error {
	payload := map[string]any{"type": vehicleType}
	var vehicles []model.Vehicle
	if err := c.do(ctx, http.MethodPatch, c.vehiclesTable, eqFilter("id", vehicleID), payload, &vehicles); err != nil {
		return fmt.Errorf("update type of vehicle %s: %w", vehicleID, err)
	}
	if len(vehicles) == 0 {
		return fmt.Errorf("update type of vehicle %s: %w", vehicleID, backend.ErrNotFound)
	}
	return nil
}

func (c *BackendClient) do(ctx context.Context, method, resource string, query url.Values, payload, out any) error {
	u, err := url.Parse(c.baseURL + "/" + resource)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method:     method,
			URL:        u.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func eqFilter(column, value string) url.Values {
	return url.Values{column: []string{"eq." + value}}
}

func firstJob(jobs []model.Job, id string) (*model.Job, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("job %s: %w", id, backend.ErrNotFound)
	}
	return &jobs[0], nil
}
