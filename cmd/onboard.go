package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcpgate/mcpgate/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize the mcpgate configuration",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		return nil
	}

	cfg := config.DefaultConfig()
	if err := config.Save(&cfg, cfgPath); err != nil {
		return err
	}
	fmt.Printf("✓ Created config at %s\n", cfgPath)

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Set gateway.url (and authToken if required) in %s\n", cfgPath)
	fmt.Println("  2. List the gateway's tools: mcpgate tools")
	fmt.Println("  3. Run the client: mcpgate serve")
	return nil
}
