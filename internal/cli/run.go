package cli

import (
	"context"
	"fmt"
)

type RunCmd struct {
	File     string `arg:"" help:"Run request JSON file, or '-' for stdin." default:"-"`
	Strategy string `help:"Override the planning strategy for this run."`
}

func (c *RunCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	req, err := readRunRequest(c.File)
	if err != nil {
		return err
	}
	if c.Strategy != "" {
		req.Strategy = c.Strategy
	}

	plan, err := ctx.Service.Run(context.Background(), LocalUserID, req)
	if err != nil {
		return fmt.Errorf("planner run failed: %w", err)
	}

	printPlan(plan)
	fmt.Printf("\nDecide with: planweave decide %s accept\n", plan.PlanRequestID)
	return nil
}

type ReplanCmd struct {
	PlanID string `arg:"" help:"Plan request id to re-run."`
	File   string `arg:"" help:"Run request JSON file, or '-' for stdin." default:"-"`
}

func (c *ReplanCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	planID, err := parsePlanID(c.PlanID)
	if err != nil {
		return err
	}

	req, err := readRunRequest(c.File)
	if err != nil {
		return err
	}

	plan, err := ctx.Service.Replan(context.Background(), LocalUserID, planID, req)
	if err != nil {
		return fmt.Errorf("replan failed: %w", err)
	}

	printPlan(plan)
	return nil
}
