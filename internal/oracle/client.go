// Package oracle talks to the external planning oracle over its JSON batch
// API and falls back to the local slot generator whenever the oracle cannot
// produce a usable plan.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"planweave/internal/models"
)

const authHeader = "X-AI-Internal-Token"

// batchRequest is the oracle's inbound envelope. Every call sends a
// single-item batch; the envelope shape is the oracle's, not ours.
type batchRequest struct {
	RequestID string        `json:"request_id"`
	Requests  []planRequest `json:"requests"`
}

type planRequest struct {
	PlanRequestID       string                     `json:"plan_request_id"`
	WeekStart           string                     `json:"week_start,omitempty"`
	WorkSchedule        []models.WorkScheduleEntry `json:"work_schedule"`
	SubscriptionStatus  string                     `json:"subscription_status"`
	Tasks               []models.PlannerTask       `json:"tasks"`
	CalendarEvents      []models.CalendarEvent     `json:"calendar_events"`
	Preferences         *models.Preferences        `json:"preferences,omitempty"`
	PreviousPlanVersion int                        `json:"previous_plan_version"`
	CompletedTaskIDs    []uuid.UUID                `json:"completed_task_ids"`
	RescheduledTaskIDs  []uuid.UUID                `json:"rescheduled_task_ids"`
	AppliedSlotIDs      []uuid.UUID                `json:"applied_slot_ids"`
}

type batchResponse struct {
	Plans []planItem `json:"plans"`
}

// planItem keeps slots and conflicts raw so each can be validated and
// dropped individually instead of failing the whole response.
type planItem struct {
	PlanRequestID string            `json:"plan_request_id"`
	Status        string            `json:"status"`
	Slots         []json.RawMessage `json:"slots"`
	Conflicts     []json.RawMessage `json:"conflicts"`
	Version       int               `json:"version"`
	Source        string            `json:"source"`
}

// Client is a thin HTTP client for the oracle's batch-run endpoint.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
}

func NewClient(baseURL, authToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		http:      &http.Client{Timeout: timeout},
	}
}

// BatchRun posts a single-item batch and returns the matching response item.
func (c *Client) BatchRun(ctx context.Context, requestID string, planRequestID uuid.UUID, req models.RunRequest) (planItem, error) {
	body := batchRequest{
		RequestID: requestID,
		Requests: []planRequest{{
			PlanRequestID:       planRequestID.String(),
			WeekStart:           req.WeekStart,
			WorkSchedule:        req.WorkSchedule,
			SubscriptionStatus:  req.SubscriptionStatus,
			Tasks:               req.Tasks,
			CalendarEvents:      req.CalendarEvents,
			Preferences:         req.Preferences,
			PreviousPlanVersion: req.PreviousPlanVersion,
			CompletedTaskIDs:    req.CompletedTaskIDs,
			RescheduledTaskIDs:  req.RescheduledTaskIDs,
			AppliedSlotIDs:      req.AppliedSlotIDs,
		}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return planItem{}, fmt.Errorf("failed to encode oracle request: %w", err)
	}

	endpoint := c.baseURL + "/v1/planner/batch-run"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return planItem{}, fmt.Errorf("failed to build oracle request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(authHeader, c.authToken)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return planItem{}, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return planItem{}, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var decoded batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return planItem{}, fmt.Errorf("failed to decode oracle response: %w", err)
	}

	for _, item := range decoded.Plans {
		if item.PlanRequestID == planRequestID.String() {
			return item, nil
		}
	}
	return planItem{}, fmt.Errorf("oracle response missing plan %s", planRequestID)
}
