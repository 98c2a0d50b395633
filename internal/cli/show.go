package cli

import (
	"errors"
	"fmt"

	"planweave/internal/storage"
)

type ShowCmd struct {
	PlanID string `arg:"" optional:"" help:"Plan request id. Omit to list all plans."`
}

func (c *ShowCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if c.PlanID == "" {
		plans, err := ctx.Store.ListPlans(LocalUserID)
		if err != nil {
			return err
		}
		if len(plans) == 0 {
			fmt.Println("No plans found.")
			return nil
		}
		for _, plan := range plans {
			fmt.Printf("%s  v%d  %-19s %s  (%d slots, %d conflicts)\n",
				plan.PlanRequestID, plan.Version, plan.Status, plan.CreatedAt.Format("2006-01-02 15:04"),
				len(plan.Slots), len(plan.Conflicts))
		}
		return nil
	}

	planID, err := parsePlanID(c.PlanID)
	if err != nil {
		return err
	}

	plan, err := ctx.Service.GetPlan(planID, LocalUserID)
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			return fmt.Errorf("no plan found with id %s", planID)
		}
		return err
	}

	printPlan(plan)
	return nil
}
