package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/container"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools published by the gateway",
	RunE:  runTools,
}

func runTools(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c, err := container.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	coord := c.Coordinator()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := coord.Setup(ctx); err != nil {
		return err
	}
	defer coord.Close(ctx) //nolint:errcheck

	catalog := coord.Tools()
	if len(catalog) == 0 {
		fmt.Println("No tools published (check the gateway and allowedTools).")
		return nil
	}
	for _, t := range catalog {
		fmt.Printf("%-30s %s\n", t.Name, t.Description)
	}
	return nil
}
