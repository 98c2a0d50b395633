package cli

import "fmt"

type StrategiesCmd struct{}

func (c *StrategiesCmd) Run(ctx *Context) error {
	names := ctx.Registry.Available()
	fmt.Println("Available planning strategies:")
	for _, name := range names {
		marker := ""
		if name == ctx.Config.DefaultStrategy {
			marker = "  (default)"
		}
		fmt.Printf("  %s%s\n", name, marker)
	}
	return nil
}
