package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/container"
	"github.com/mcpgate/mcpgate/internal/tools"
)

var serveAdminAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the gateway and keep the tool catalog fresh",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAdminAddr, "admin-addr", "", "Admin endpoint address (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if serveAdminAddr != "" {
		cfg.Admin.Addr = serveAdminAddr
		cfg.Admin.Enabled = true
	}

	c, err := container.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	coord := c.Coordinator()

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Connecting to %s...\n", cfg.Gateway.URL)
	if err := coord.Setup(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		coord.Close(shutdownCtx) //nolint:errcheck
	}()

	published := tools.Publish(coord)
	fmt.Printf("✓ Connected. Published tools: %d\n", published.Len())
	for _, name := range published.Names() {
		fmt.Printf("  - %s\n", name)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return coord.Run(gctx) })

	if cfg.Admin.Enabled {
		srv := &http.Server{Addr: cfg.Admin.Addr, Handler: c.AdminHandler()}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		fmt.Printf("Admin endpoint on http://%s\n", cfg.Admin.Addr)
	}

	fmt.Println("mcpgate running. Press Ctrl+C to stop.")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "serve error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
