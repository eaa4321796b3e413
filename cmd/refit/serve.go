package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/refit/behavior"
	"github.com/kingrea/refit/catalog"
	"github.com/kingrea/refit/internal/journal"
	"github.com/kingrea/refit/internal/logging"
	"github.com/kingrea/refit/internal/notify"
	"github.com/kingrea/refit/overlay"
)

// serveCmd runs the read-only inspection server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the read-only HTTP inspection server",
	Long: `Starts the inspection server configured under "inspect" in
.refit/config.yaml (REFIT_INSPECT_* environment variables override).

Routes:
  /health   server status and definition count
  /catalog  registered definitions with fingerprints
  /journal  recent apply journal entries (?n= to adjust)

Every route is read only; overlays cannot be applied through it.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := openProject()
	if err != nil {
		return err
	}
	settings := notify.SettingsFromConfig(cfg)
	if !settings.Enabled {
		return fmt.Errorf("inspection server is disabled; enable inspect in %s", cfg.ProjectConfigPath())
	}

	registry := behavior.NewRegistry()
	if _, err := catalog.RegisterDefinitions(registry, cfg.DefinitionsDir()); err != nil {
		return err
	}
	jnl, err := journal.New(cfg.JournalPath())
	if err != nil {
		return err
	}

	opts := []notify.Option{
		notify.WithCatalog(registryCatalog{registry: registry}),
		notify.WithJournal(jnl),
	}
	if fileLogger, err := logging.New(cfg.ProjectDir); err == nil {
		defer fileLogger.Close()
		opts = append(opts, notify.WithLogger(fileLogger))
	}
	server := notify.NewServer(settings, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Debug("inspection server ready",
		zap.String("addr", server.Addr()),
		zap.Int("definitions", registry.Len()))
	fmt.Printf("Inspection server listening on %s\n", server.BaseURL())
	fmt.Println("Routes: /health /catalog /journal  (Ctrl+C to stop)")

	<-ctx.Done()
	fmt.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// registryCatalog adapts a behavior registry to the inspection server's
// catalog interface.
type registryCatalog struct {
	registry *behavior.Registry
}

func (c registryCatalog) Summaries() []notify.DefinitionSummary {
	return overlay.RegistrySummaries(c.registry)
}
