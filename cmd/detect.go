package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/detect"
	"github.com/kozaktomas/facegate/internal/geometry"
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect faces in an image",
	Long: `Detect faces in an image using the local pigo cascade and print the
bounding boxes.

Examples:
  # Detect with the default preset
  facegate detect photo.jpg

  # Faster, less accurate pass
  facegate detect photo.jpg --preset fast

  # Save a copy with the boxes drawn in
  facegate detect photo.jpg --save boxes.jpg

  # Machine-readable output
  facegate detect photo.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().String("preset", "", "Detection preset (accurate, fast; defaults to DETECTION_PRESET)")
	detectCmd.Flags().String("save", "", "Save a copy with face boxes drawn to this path")
	detectCmd.Flags().Bool("json", false, "Output as JSON")
}

type detectOutput struct {
	Image  string          `json:"image"`
	Preset string          `json:"preset"`
	Faces  []geometry.Rect `json:"faces"`
	Count  int             `json:"count"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	preset := mustGetString(cmd, "preset")
	savePath := mustGetString(cmd, "save")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	if preset == "" {
		preset = cfg.Detection.Preset
	}
	opts, err := cfg.PresetOptions(preset)
	if err != nil {
		return err
	}

	detector, err := detect.NewPigoDetector(cfg.Detection.CascadePath)
	if err != nil {
		return fmt.Errorf("loading cascade: %w", err)
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	pipeline := detect.NewPipeline(detector, opts)
	result := pipeline.Detect(detect.FrameFromImage(img))
	if !result.OK() {
		return fmt.Errorf("detection failed: %w", result.Err)
	}
	faces := result.Faces

	if savePath != "" {
		if err := saveWithBoxes(img, faces, savePath); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Printf("Saved annotated image to %s\n", savePath)
		}
	}

	if jsonOutput {
		if faces == nil {
			faces = []geometry.Rect{}
		}
		return outputJSON(detectOutput{
			Image:  imagePath,
			Preset: preset,
			Faces:  faces,
			Count:  len(faces),
		})
	}

	if len(faces) == 0 {
		fmt.Println("No faces found")
		return nil
	}

	fmt.Printf("Found %d faces (preset: %s):\n\n", len(faces), preset)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "X\tY\tWIDTH\tHEIGHT")
	for _, face := range faces {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", face.X, face.Y, face.W, face.H)
	}
	w.Flush()
	return nil
}

func saveWithBoxes(img image.Image, faces []geometry.Rect, path string) error {
	annotated := drawFaceBoxes(img, faces, 4)
	f, err := os.Create(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, annotated, &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
