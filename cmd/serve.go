package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/detect"
	"github.com/kozaktomas/facegate/internal/embedding"
	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/kozaktomas/facegate/internal/gallery/postgres"
	"github.com/kozaktomas/facegate/internal/recognizer"
	"github.com/kozaktomas/facegate/internal/web"
	"github.com/kozaktomas/facegate/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the facegate HTTP API.

The API exposes face detection, identity recognition, and enrollment
endpoints. With DATABASE_URL set the gallery is loaded from PostgreSQL
on startup and enrollment runs persist to it.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (defaults to WEB_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if addr := mustGetString(cmd, "addr"); addr != "" {
		cfg.Web.Addr = addr
	}

	ctx := context.Background()

	detector, err := detect.NewPigoDetector(cfg.Detection.CascadePath)
	if err != nil {
		return fmt.Errorf("loading cascade: %w", err)
	}
	opts, err := cfg.DetectionOptions()
	if err != nil {
		return err
	}
	pipeline := detect.NewPipeline(detector, opts)

	client := embedding.NewClient(cfg.Embedding.URL)
	provider, err := client.Init(ctx, cfg.Embedding.Providers)
	if err != nil {
		// The detection endpoints work without the sidecar, recognition
		// and enrollment will fail per-request until it comes up.
		fmt.Printf("Warning: embedding model unavailable: %v\n", err)
	} else {
		fmt.Printf("Embedding model ready (provider: %s)\n", provider)
	}

	registry := gallery.NewRegistry()
	var store handlers.GallerySaver
	if cfg.Database.URL != "" {
		fmt.Println("Connecting to PostgreSQL database...")
		pg, err := postgres.Open(postgres.Config{
			URL:          cfg.Database.URL,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pg.Close()

		if err := pg.Migrate(ctx, cfg.Embedding.Dim); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		g, err := pg.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading gallery: %w", err)
		}
		registry.Swap(g)
		store = pg
		fmt.Printf("Loaded %d identities from PostgreSQL\n", g.Len())
	} else {
		fmt.Println("DATABASE_URL not set, gallery starts empty and is not persisted")
	}

	rec := recognizer.New(pipeline, client, registry, cfg.Recognition.Threshold)

	server := web.NewServer(cfg, web.Deps{
		Detector:   detector,
		Recognizer: rec,
		Embedder:   client,
		Registry:   registry,
		Store:      store,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting facegate API on %s\n", cfg.Web.Addr)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
