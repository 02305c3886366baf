package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/facegate/internal/detect"
)

//go:embed presets.yaml
var presetsYAML []byte

type Config struct {
	Embedding   EmbeddingConfig
	Database    DatabaseConfig
	Detection   DetectionConfig
	Recognition RecognitionConfig
	Enroll      EnrollConfig
	Web         WebConfig
	presets     presetsConfig
}

type EmbeddingConfig struct {
	URL       string   // defaults to http://localhost:8000
	Providers []string // backend fallback order, defaults to cuda,dml,cpu
	Dim       int      // defaults to 512
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, empty disables persistence
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type DetectionConfig struct {
	Preset      string // detection preset name (default "accurate")
	CascadePath string // path to the binary cascade file
}

type RecognitionConfig struct {
	Threshold         float64 // minimum cosine similarity for a match (default 0.35)
	OutlierThreshold  float64 // enrollment outlier rejection cutoff (default 0.3)
	OutlierIterations int     // enrollment outlier rejection passes (default 2)
}

type EnrollConfig struct {
	FacesDir string // directory tree of <name>/<sample images> (default "faces")
}

type WebConfig struct {
	Addr string // listen address (default ":8080")
}

type presetsConfig struct {
	Presets map[string]presetEntry `yaml:"presets"`
}

type presetEntry struct {
	ImageScale   float64 `yaml:"image_scale"`
	ScaleFactor  float64 `yaml:"scale_factor"`
	MinNeighbors int     `yaml:"min_neighbors"`
	MinFaceSize  int     `yaml:"min_face_size"`
	MaxFaceSize  int     `yaml:"max_face_size"`
	UseGray      bool    `yaml:"use_gray"`
	DynamicSize  bool    `yaml:"dynamic_size"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var presets presetsConfig
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded presets.yaml: " + err.Error())
	}

	providers := strings.Split(envString("EMBEDDING_PROVIDERS", "cuda,dml,cpu"), ",")
	for i := range providers {
		providers[i] = strings.TrimSpace(providers[i])
	}

	return &Config{
		Embedding: EmbeddingConfig{
			URL:       envString("EMBEDDING_URL", "http://localhost:8000"),
			Providers: providers,
			Dim:       envInt("EMBEDDING_DIM", 512),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Detection: DetectionConfig{
			Preset:      envString("DETECTION_PRESET", "accurate"),
			CascadePath: envString("PIGO_CASCADE", "cascade/facefinder"),
		},
		Recognition: RecognitionConfig{
			Threshold:         envFloat("RECOGNITION_THRESHOLD", 0.35),
			OutlierThreshold:  envFloat("OUTLIER_THRESHOLD", 0.3),
			OutlierIterations: envInt("OUTLIER_ITERATIONS", 2),
		},
		Enroll: EnrollConfig{
			FacesDir: envString("FACES_DIR", "faces"),
		},
		Web: WebConfig{
			Addr: envString("WEB_ADDR", ":8080"),
		},
		presets: presets,
	}
}

// DetectionOptions resolves the configured preset into pipeline options.
func (c *Config) DetectionOptions() (detect.Options, error) {
	return c.PresetOptions(c.Detection.Preset)
}

// PresetOptions resolves a named preset into pipeline options.
func (c *Config) PresetOptions(name string) (detect.Options, error) {
	entry, ok := c.presets.Presets[name]
	if !ok {
		names := make([]string, 0, len(c.presets.Presets))
		for n := range c.presets.Presets {
			names = append(names, n)
		}
		return detect.Options{}, fmt.Errorf("unknown detection preset %q (available: %s)", name, strings.Join(names, ", "))
	}
	return detect.Options{
		UseGray:      entry.UseGray,
		ImageScale:   entry.ImageScale,
		MinFaceSize:  entry.MinFaceSize,
		MaxFaceSize:  entry.MaxFaceSize,
		DynamicSize:  entry.DynamicSize,
		ScaleFactor:  entry.ScaleFactor,
		MinNeighbors: entry.MinNeighbors,
	}, nil
}
