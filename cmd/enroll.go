package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/embedding"
	"github.com/kozaktomas/facegate/internal/enroll"
	"github.com/kozaktomas/facegate/internal/gallery/postgres"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Build the identity gallery from sample photos",
	Long: `Build the identity gallery from a directory tree of sample photos,
one subdirectory per person:

  faces/
    alice/
      photo1.jpg
      photo2.jpg
    bob/
      photo1.jpg

Each person's samples are embedded, outliers are rejected, and the
aggregate becomes their reference embedding. With DATABASE_URL set the
gallery is persisted to PostgreSQL for the serve and match commands.

Examples:
  # Enroll from the default faces/ directory
  facegate enroll

  # Enroll from a custom directory
  facegate enroll --faces-dir /data/people`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("faces-dir", "", "Directory with per-person sample photos (defaults to FACES_DIR)")
	enrollCmd.Flags().Bool("json", false, "Output as JSON")
}

type enrollOutput struct {
	Enrolled int      `json:"enrolled"`
	Names    []string `json:"names"`
	Provider string   `json:"provider"`
	Saved    bool     `json:"saved"`
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	facesDir := mustGetString(cmd, "faces-dir")
	jsonOutput := mustGetBool(cmd, "json")
	if facesDir == "" {
		facesDir = cfg.Enroll.FacesDir
	}

	ctx := context.Background()
	client := embedding.NewClient(cfg.Embedding.URL)
	provider, err := client.Init(ctx, cfg.Embedding.Providers)
	if err != nil {
		return fmt.Errorf("initializing embedding model: %w", err)
	}
	if !jsonOutput {
		fmt.Printf("Embedding model ready (provider: %s)\n", provider)
	}

	var bar *progressbar.ProgressBar
	onProgress := func(p enroll.Progress) {
		if jsonOutput {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetDescription("Enrolling"),
				progressbar.OptionShowCount(),
				progressbar.OptionFullWidth(),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "=",
					SaucerHead:    ">",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
		}
		bar.Describe("Enrolling " + p.Name)
		bar.Add(1)
	}

	opts := enroll.Options{
		OutlierThreshold: cfg.Recognition.OutlierThreshold,
		MaxIterations:    cfg.Recognition.OutlierIterations,
	}
	g, err := enroll.Build(ctx, enroll.DirSource{Root: facesDir}, client, opts, onProgress)
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}
	if !jsonOutput {
		fmt.Println()
	}

	saved := false
	if cfg.Database.URL != "" {
		store, err := postgres.Open(postgres.Config{
			URL:          cfg.Database.URL,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer store.Close()

		if err := store.Migrate(ctx, cfg.Embedding.Dim); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		if err := store.Save(ctx, g); err != nil {
			return fmt.Errorf("persisting gallery: %w", err)
		}
		saved = true
	}

	names := make([]string, 0, g.Len())
	for _, id := range g.Identities() {
		names = append(names, id.Name)
	}

	if jsonOutput {
		return outputJSON(enrollOutput{
			Enrolled: g.Len(),
			Names:    names,
			Provider: provider,
			Saved:    saved,
		})
	}

	fmt.Printf("Enrolled %d identities: %s\n", g.Len(), strings.Join(names, ", "))
	if saved {
		fmt.Println("Gallery persisted to PostgreSQL")
	} else {
		fmt.Println("DATABASE_URL not set, gallery not persisted")
	}
	return nil
}
