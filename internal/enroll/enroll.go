package enroll

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kozaktomas/facegate/internal/embedding"
	"github.com/kozaktomas/facegate/internal/gallery"
)

// Source supplies sample images for enrollment, grouped by person.
type Source interface {
	// Names lists the people available for enrollment.
	Names(ctx context.Context) ([]string, error)
	// Images returns the encoded sample images for one person.
	Images(ctx context.Context, name string) ([][]byte, error)
}

// Embedder computes a face embedding from an encoded image. A nil
// embedding with a nil error means no usable face was found.
type Embedder interface {
	Embedding(ctx context.Context, imageData []byte) (embedding.Embedding, error)
}

// Options tune the per-person embedding aggregation.
type Options struct {
	OutlierThreshold float64
	MaxIterations    int
}

func (o Options) normalized() Options {
	if o.OutlierThreshold <= 0 {
		o.OutlierThreshold = embedding.DefaultOutlierThreshold
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = embedding.DefaultMaxIterations
	}
	return o
}

// Progress reports enrollment advancing through the source's people.
type Progress struct {
	Name  string
	Done  int
	Total int
}

// Build enrolls every person the source offers and returns the
// resulting gallery. People whose images yield no usable embedding are
// skipped with a log line rather than failing the whole run. The
// progress callback may be nil.
func Build(ctx context.Context, src Source, emb Embedder, opts Options, onProgress func(Progress)) (*gallery.Gallery, error) {
	opts = opts.normalized()

	names, err := src.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing enrollment source: %w", err)
	}

	var identities []gallery.Identity
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := enrollOne(ctx, src, emb, opts, name)
		if err != nil {
			return nil, err
		}
		if id != nil {
			identities = append(identities, *id)
		}

		if onProgress != nil {
			onProgress(Progress{Name: name, Done: i + 1, Total: len(names)})
		}
	}

	return gallery.New(identities), nil
}

func enrollOne(ctx context.Context, src Source, emb Embedder, opts Options, name string) (*gallery.Identity, error) {
	images, err := src.Images(ctx, name)
	if err != nil {
		log.Printf("[enroll] skipping %q: %v", name, err)
		return nil, nil
	}

	var samples []embedding.Embedding
	for _, img := range images {
		vec, err := emb.Embedding(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("embedding sample for %q: %w", name, err)
		}
		if vec == nil {
			continue
		}
		samples = append(samples, vec)
	}

	mean, ok := embedding.Aggregate(samples, opts.OutlierThreshold, opts.MaxIterations)
	if !ok {
		log.Printf("[enroll] skipping %q: no usable face in %d images", name, len(images))
		return nil, nil
	}

	return &gallery.Identity{
		Name:      name,
		Embedding: mean,
		Samples:   len(samples),
	}, nil
}

// imageExtensions are the sample file types DirSource picks up.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
}

// DirSource reads enrollment samples from a directory tree shaped as
// <root>/<person name>/<images>.
type DirSource struct {
	Root string
}

func (d DirSource) Names(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("reading faces directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (d DirSource) Images(ctx context.Context, name string) ([][]byte, error) {
	dir := filepath.Join(d.Root, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading samples for %q: %w", name, err)
	}

	var images [][]byte
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !imageExtensions[ext] {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading sample %s: %w", entry.Name(), err)
		}
		images = append(images, data)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no sample images in %s", dir)
	}
	return images, nil
}
