package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"planweave/internal/models"
	"planweave/internal/tui"
)

type DecideCmd struct {
	PlanID      string   `arg:"" help:"Plan request id."`
	Decision    string   `arg:"" enum:"accept,decline" help:"Decision to apply: accept or decline."`
	Slots       []string `help:"Slot ids to accept (default: all). Implies accept."`
	Edits       string   `help:"JSON file with per-slot edits to apply on accept." type:"existingfile"`
	Interactive bool     `short:"i" help:"Review slots interactively before accepting."`
	Yes         bool     `short:"y" help:"Skip the confirmation prompt."`
}

func (c *DecideCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	planID, err := parsePlanID(c.PlanID)
	if err != nil {
		return err
	}

	req := models.DecisionRequest{Decision: models.Decision(c.Decision)}
	for _, raw := range c.Slots {
		slotID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid slot id %q: %w", raw, err)
		}
		req.AcceptedSlotIDs = append(req.AcceptedSlotIDs, slotID)
	}
	if c.Edits != "" {
		edits, err := readSlotEdits(c.Edits)
		if err != nil {
			return err
		}
		req.Edits = edits
	}

	if c.Interactive && req.Decision == models.DecisionAccept {
		plan, err := ctx.Service.GetPlan(planID, LocalUserID)
		if err != nil {
			return err
		}
		accepted, confirmed, err := reviewSlots(plan.Slots)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Decision cancelled.")
			return nil
		}
		req.AcceptedSlotIDs = accepted
	} else if !c.Yes {
		var confirmed bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Apply decision %q to plan %s?", c.Decision, planID)).
					Value(&confirmed),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Decision cancelled.")
			return nil
		}
	}

	plan, err := ctx.Service.Decide(context.Background(), LocalUserID, planID, req)
	if err != nil {
		return err
	}

	printPlan(plan)
	if len(plan.CreatedTaskIDs) > 0 || len(plan.UpdatedTaskIDs) > 0 {
		fmt.Printf("\nTasks created: %d, updated: %d\n", len(plan.CreatedTaskIDs), len(plan.UpdatedTaskIDs))
	}
	return nil
}

func readSlotEdits(path string) ([]models.SlotEdit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edits file: %w", err)
	}
	var edits []models.SlotEdit
	if err := json.Unmarshal(data, &edits); err != nil {
		return nil, fmt.Errorf("failed to parse edits file: %w", err)
	}
	return edits, nil
}

func reviewSlots(slots []models.Slot) ([]uuid.UUID, bool, error) {
	model := tui.NewModel(slots)
	p := tea.NewProgram(model)
	final, err := p.Run()
	if err != nil {
		return nil, false, fmt.Errorf("slot review failed: %w", err)
	}
	reviewed, ok := final.(tui.Model)
	if !ok {
		return nil, false, fmt.Errorf("unexpected review model type")
	}
	return reviewed.AcceptedSlotIDs(), reviewed.Confirmed(), nil
}
