package cli

import (
	"errors"
	"fmt"

	"planweave/internal/planner"
)

type HistoryCmd struct {
	PlanID string `arg:"" help:"Plan request id."`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	planID, err := parsePlanID(c.PlanID)
	if err != nil {
		return err
	}

	versions, err := ctx.Service.History(planID, LocalUserID)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Println("No history recorded.")
		return nil
	}

	for _, v := range versions {
		fmt.Printf("v%-3d %-19s %s  (%d slots, %d conflicts)\n",
			v.Version, v.Status, v.LoggedAt.Format("2006-01-02 15:04:05"),
			len(v.Slots), len(v.Conflicts))
	}
	return nil
}

type RestoreCmd struct {
	PlanID  string `arg:"" help:"Plan request id."`
	Version int    `arg:"" help:"Version to restore."`
}

func (c *RestoreCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	planID, err := parsePlanID(c.PlanID)
	if err != nil {
		return err
	}

	plan, err := ctx.Service.RestoreVersion(planID, LocalUserID, c.Version)
	if err != nil {
		if errors.Is(err, planner.ErrVersionNotFound) {
			return fmt.Errorf("plan %s has no version %d", planID, c.Version)
		}
		return err
	}

	fmt.Printf("Restored plan %s to version %d.\n\n", planID, c.Version)
	printPlan(plan)
	return nil
}
