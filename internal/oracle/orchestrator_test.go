package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"planweave/internal/models"
	"planweave/internal/planner"
	"planweave/internal/strategy"
)

// 2026-01-05 is a Monday.
var weekStart = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func newTestOrchestrator(serverURL string) *Orchestrator {
	generator := planner.NewGenerator(strategy.NewRegistry(strategy.NameSimpleGreedy, 0, nil), nil)
	var client *Client
	if serverURL != "" {
		client = NewClient(serverURL, "secret-token", 5*time.Second)
	}
	return NewOrchestrator(client, generator, nil)
}

func fallbackRequest() models.RunRequest {
	return models.RunRequest{
		RequestID: "req-1",
		WeekStart: "2026-01-05",
		Tasks: []models.PlannerTask{
			{TaskID: uuid.New(), Title: "Local task", DurationMinutes: 60},
		},
		WorkSchedule: []models.WorkScheduleEntry{
			{DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00"},
		},
	}
}

func oracleSlot(title string) map[string]any {
	return map[string]any{
		"slot_id":  uuid.New().String(),
		"title":    title,
		"start_at": weekStart.Add(9 * time.Hour).Format(time.RFC3339),
		"end_at":   weekStart.Add(10 * time.Hour).Format(time.RFC3339),
	}
}

func TestRequestPlan_OracleSuccess(t *testing.T) {
	planRequestID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/planner/batch-run" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-AI-Internal-Token"); got != "secret-token" {
			t.Errorf("auth header = %q", got)
		}
		var body struct {
			RequestID string `json:"request_id"`
			Requests  []struct {
				PlanRequestID string `json:"plan_request_id"`
			} `json:"requests"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(body.Requests) != 1 || body.Requests[0].PlanRequestID != planRequestID.String() {
			t.Errorf("unexpected envelope: %+v", body)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"plans": []map[string]any{{
				"plan_request_id": planRequestID.String(),
				"status":          "ready",
				"slots":           []map[string]any{oracleSlot("Oracle pick")},
				"conflicts": []map[string]any{{
					"reason":   "after_hours",
					"severity": "warning",
				}},
				"version": 3,
				"source":  "ai",
			}},
		})
	}))
	defer server.Close()

	o := newTestOrchestrator(server.URL)
	result := o.RequestPlan(context.Background(), planRequestID, fallbackRequest(), 2)

	if result.Source != SourceOracle || result.Version != 3 || result.Status != models.PlanStatusReady {
		t.Errorf("unexpected result: source=%s version=%d status=%s", result.Source, result.Version, result.Status)
	}
	if len(result.Slots) != 1 || result.Slots[0].Title != "Oracle pick" {
		t.Errorf("unexpected slots: %+v", result.Slots)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Reason != "after_hours" {
		t.Errorf("unexpected conflicts: %+v", result.Conflicts)
	}
}

func TestRequestPlan_DefaultsMissingFields(t *testing.T) {
	planRequestID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"plans": []map[string]any{{
				"plan_request_id": planRequestID.String(),
				"slots":           []map[string]any{oracleSlot("Only slot")},
			}},
		})
	}))
	defer server.Close()

	o := newTestOrchestrator(server.URL)
	result := o.RequestPlan(context.Background(), planRequestID, fallbackRequest(), 4)

	if result.Status != models.PlanStatusReady {
		t.Errorf("missing status should default to ready, got %s", result.Status)
	}
	if result.Version != 5 {
		t.Errorf("missing version should default to previous+1, got %d", result.Version)
	}
	if result.Source != SourceOracle {
		t.Errorf("missing source should default to %q, got %q", SourceOracle, result.Source)
	}
}

func TestRequestPlan_DropsInvalidSlots(t *testing.T) {
	planRequestID := uuid.New()

	invalid := []map[string]any{
		{ // missing slot_id
			"title":    "No id",
			"start_at": weekStart.Format(time.RFC3339),
			"end_at":   weekStart.Add(time.Hour).Format(time.RFC3339),
		},
		{ // empty title
			"slot_id":  uuid.New().String(),
			"title":    "",
			"start_at": weekStart.Format(time.RFC3339),
			"end_at":   weekStart.Add(time.Hour).Format(time.RFC3339),
		},
		{ // inverted range
			"slot_id":  uuid.New().String(),
			"title":    "Backwards",
			"start_at": weekStart.Add(time.Hour).Format(time.RFC3339),
			"end_at":   weekStart.Format(time.RFC3339),
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slots := append(invalid, oracleSlot("Survivor"))
		json.NewEncoder(w).Encode(map[string]any{
			"plans": []map[string]any{{
				"plan_request_id": planRequestID.String(),
				"slots":           slots,
				"conflicts": []map[string]any{
					{"severity": "warning"}, // missing reason, dropped
					{"reason": "break_time", "severity": "warning"},
				},
			}},
		})
	}))
	defer server.Close()

	o := newTestOrchestrator(server.URL)
	result := o.RequestPlan(context.Background(), planRequestID, fallbackRequest(), 0)

	if result.Source != SourceOracle {
		t.Fatalf("one valid slot should keep the oracle plan, got source %q", result.Source)
	}
	if len(result.Slots) != 1 || result.Slots[0].Title != "Survivor" {
		t.Errorf("expected only the valid slot, got %+v", result.Slots)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Reason != "break_time" {
		t.Errorf("expected only the valid conflict, got %+v", result.Conflicts)
	}
}

func TestRequestPlan_EmptyPlanFallsBackLocally(t *testing.T) {
	planRequestID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"plans": []map[string]any{{
				"plan_request_id": planRequestID.String(),
				"slots":           []map[string]any{},
				"version":         9,
			}},
		})
	}))
	defer server.Close()

	o := newTestOrchestrator(server.URL)
	result := o.RequestPlan(context.Background(), planRequestID, fallbackRequest(), 1)

	if result.Source != SourceLocal {
		t.Fatalf("empty oracle plan must fall back, got source %q", result.Source)
	}
	if result.Version != 2 {
		t.Errorf("fallback version should be previous+1, got %d", result.Version)
	}
	if len(result.Slots) != 1 || result.Slots[0].Title != "Local task" {
		t.Errorf("expected the locally generated slot, got %+v", result.Slots)
	}
}

func TestRequestPlan_ServerErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	o := newTestOrchestrator(server.URL)
	result := o.RequestPlan(context.Background(), uuid.New(), fallbackRequest(), 0)

	if result.Source != SourceLocal || result.Version != 1 {
		t.Fatalf("expected local fallback at version 1, got source=%s version=%d", result.Source, result.Version)
	}
	if result.Status != models.PlanStatusReady {
		t.Errorf("fallback must be ready, got %s", result.Status)
	}
}

func TestRequestPlan_MissingItemFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"plans": []map[string]any{{
				"plan_request_id": uuid.New().String(), // someone else's plan
				"slots":           []map[string]any{oracleSlot("Wrong plan")},
			}},
		})
	}))
	defer server.Close()

	o := newTestOrchestrator(server.URL)
	result := o.RequestPlan(context.Background(), uuid.New(), fallbackRequest(), 0)

	if result.Source != SourceLocal {
		t.Fatalf("mismatched response item must fall back, got source %q", result.Source)
	}
}

func TestRequestPlan_NilClientUsesLocalGenerator(t *testing.T) {
	o := newTestOrchestrator("")
	result := o.RequestPlan(context.Background(), uuid.New(), fallbackRequest(), 0)

	if result.Source != SourceLocal || result.Version != 1 {
		t.Fatalf("nil client must resolve locally, got source=%s version=%d", result.Source, result.Version)
	}
	if len(result.Slots) == 0 {
		t.Errorf("local generator produced no slots")
	}
}

func TestClient_BatchRunContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, "{}")
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := client.BatchRun(ctx, "req", uuid.New(), models.RunRequest{}); err == nil {
		t.Fatalf("expected context deadline error")
	}
}
