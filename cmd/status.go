package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/container"
	"github.com/mcpgate/mcpgate/internal/transport"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mcpgate status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	fmt.Println("mcpgate Status")
	fmt.Println()

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:   %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	redacted := cfg.Redacted()
	fmt.Printf("Gateway:  %s\n", orUnset(redacted.Gateway.URL))
	fmt.Printf("Auth:     %s\n", orUnset(redacted.Gateway.AuthToken))
	if len(redacted.Gateway.AllowedTools) > 0 {
		fmt.Printf("Allowed:  %v\n", redacted.Gateway.AllowedTools)
	} else {
		fmt.Println("Allowed:  (all tools)")
	}

	if cfg.Gateway.URL == "" {
		return nil
	}

	tr := transport.NewClient(transport.Config{
		URL:               cfg.Gateway.URL,
		AuthToken:         cfg.Gateway.AuthToken,
		ClientName:        container.ClientName,
		ClientVersion:     container.ClientVersion,
		TimeoutConnection: cfg.Gateway.ConnectionTimeout(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := tr.Connect(ctx); err != nil {
		fmt.Printf("Connect:  ✗ %v\n", err)
		return nil
	}
	fmt.Printf("Connect:  ✓ session %s\n", tr.SessionID())
	tr.Disconnect(ctx) //nolint:errcheck
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
