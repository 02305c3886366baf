package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/detect"
	"github.com/kozaktomas/facegate/internal/embedding"
	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/kozaktomas/facegate/internal/gallery/postgres"
	"github.com/kozaktomas/facegate/internal/geometry"
	"github.com/kozaktomas/facegate/internal/recognizer"
)

var matchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Resolve an image against the enrolled gallery",
	Long: `Resolve the faces in an image against the enrolled identity gallery
and report the best match. Requires a gallery persisted by a previous
"facegate enroll" run (DATABASE_URL must be set).

Examples:
  # Who is in this photo?
  facegate match visitor.jpg

  # Stricter matching
  facegate match visitor.jpg --threshold 0.5

  # Machine-readable output
  facegate match visitor.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Float64("threshold", 0, "Minimum cosine similarity for a match (defaults to RECOGNITION_THRESHOLD)")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

type matchOutput struct {
	Image   string          `json:"image"`
	Outcome string          `json:"outcome"`
	Name    string          `json:"name,omitempty"`
	Score   float64         `json:"score,omitempty"`
	Faces   []geometry.Rect `json:"faces"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	threshold := mustGetFloat64(cmd, "threshold")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	if threshold <= 0 {
		threshold = cfg.Recognition.Threshold
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	store, err := postgres.Open(postgres.Config{
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()

	g, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading gallery: %w", err)
	}
	if g.Empty() {
		return errors.New("no identities enrolled, run \"facegate enroll\" first")
	}

	registry := gallery.NewRegistry()
	registry.Swap(g)

	client := embedding.NewClient(cfg.Embedding.URL)
	if _, err := client.Init(ctx, cfg.Embedding.Providers); err != nil {
		return fmt.Errorf("initializing embedding model: %w", err)
	}

	detector, err := detect.NewPigoDetector(cfg.Detection.CascadePath)
	if err != nil {
		return fmt.Errorf("loading cascade: %w", err)
	}
	opts, err := cfg.DetectionOptions()
	if err != nil {
		return err
	}
	pipeline := detect.NewPipeline(detector, opts)

	rec := recognizer.New(pipeline, client, registry, threshold)

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	res, err := rec.ResolveImage(ctx, imageData)
	if err != nil {
		return fmt.Errorf("resolving image: %w", err)
	}

	if jsonOutput {
		faces := res.Faces
		if faces == nil {
			faces = []geometry.Rect{}
		}
		out := matchOutput{
			Image:   imagePath,
			Outcome: res.Match.Outcome.String(),
			Faces:   faces,
		}
		if res.Match.Outcome == gallery.OutcomeMatched {
			out.Name = res.Match.Name
			out.Score = res.Match.Score
		}
		return outputJSON(out)
	}

	switch res.Match.Outcome {
	case gallery.OutcomeMatched:
		b := res.Match.Box
		fmt.Printf("Matched %s (similarity %.3f) at [%d %d %d %d]\n",
			res.Match.Name, res.Match.Score, b.X, b.Y, b.W, b.H)
	case gallery.OutcomeNoMatch:
		fmt.Println("No enrolled identity matched")
	case gallery.OutcomeNoGallery:
		fmt.Println("Gallery is empty")
	}
	return nil
}
