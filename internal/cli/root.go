package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"planweave/internal/config"
	"planweave/internal/models"
	"planweave/internal/planner"
	"planweave/internal/storage"
	"planweave/internal/strategy"
	"planweave/internal/validation"
)

// LocalUserID is the fixed user identity for local single-user use. The
// engine is multi-tenant; the CLI is not.
var LocalUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type Context struct {
	Store    storage.Provider
	Service  *planner.Service
	Registry *strategy.Registry
	Config   config.Config
	Logger   *zap.Logger
}

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	slotTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	severityStyles = map[models.Severity]lipgloss.Style{
		models.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		models.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// readRunRequest loads a run request from a JSON file, "-" meaning stdin,
// and sanitizes it. Dropped items are reported on stderr.
func readRunRequest(path string) (models.RunRequest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.RunRequest{}, fmt.Errorf("failed to read run request: %w", err)
	}

	var req models.RunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return models.RunRequest{}, fmt.Errorf("failed to parse run request: %w", err)
	}

	req, result := validation.SanitizeRunRequest(req)
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	return req, nil
}

func parsePlanID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid plan id %q: %w", s, err)
	}
	return id, nil
}

func printPlan(plan models.Plan) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("Plan %s", plan.PlanRequestID)))
	fmt.Printf("  status: %s  version: %d  source: %s\n\n", plan.Status, plan.Version, plan.Source)

	if len(plan.Slots) == 0 {
		fmt.Println("  No slots scheduled.")
	} else {
		slots := append([]models.Slot(nil), plan.Slots...)
		sort.Slice(slots, func(i, j int) bool {
			return slots[i].StartAt.Before(slots[j].StartAt)
		})
		for _, slot := range slots {
			window := slotTimeStyle.Render(fmt.Sprintf("%s–%s",
				slot.StartAt.Format("Mon Jan 02 15:04"),
				slot.EndAt.Format("15:04"),
			))
			marker := ""
			if slot.TaskID == nil {
				marker = "  (new)"
			}
			fmt.Printf("  %s  %s%s\n", window, slot.Title, marker)
		}
	}

	if len(plan.Conflicts) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render("Conflicts"))
		for _, conflict := range plan.Conflicts {
			style, ok := severityStyles[conflict.Severity]
			if !ok {
				style = severityStyles[models.SeverityInfo]
			}
			fmt.Printf("  %s %s: %s\n",
				style.Render(fmt.Sprintf("[%s]", conflict.Severity)),
				conflict.Reason, conflict.Details)
		}
	}
}
