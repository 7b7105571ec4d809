package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/container"
	"github.com/mcpgate/mcpgate/internal/tools"
)

var callArgsJSON string

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Invoke one gateway tool and print its result",
	Args:  cobra.ExactArgs(1),
	RunE:  runCall,
}

func init() {
	callCmd.Flags().StringVarP(&callArgsJSON, "args", "a", "{}", "Tool arguments as a JSON object")
}

func runCall(_ *cobra.Command, args []string) error {
	toolName := args[0]

	var toolArgs map[string]any
	if err := json.Unmarshal([]byte(callArgsJSON), &toolArgs); err != nil {
		return fmt.Errorf("parse --args: %w", err)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.ExecutionTimeout()+30*time.Second)
	defer cancel()

	if err := coord.Setup(ctx); err != nil {
		return err
	}
	defer coord.Close(ctx) //nolint:errcheck

	published := tools.Publish(coord)
	tool := published.Get(toolName)
	if tool == nil {
		return fmt.Errorf("tool %q is not published (available: %v)", toolName, published.Names())
	}

	result, err := tool.Execute(ctx, toolArgs)
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}
