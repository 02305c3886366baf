package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/kozaktomas/facegate/internal/geometry"
)

const defaultServerURL = "http://localhost:8000"

// DefaultProviders is the backend order tried during Init: preferred
// accelerator first, CPU baseline last.
var DefaultProviders = []string{"cuda", "dml", "cpu"}

// Client talks to the face-embedding sidecar over HTTP. The sidecar
// detects faces in an uploaded image and returns per-face bounding boxes
// and raw embedding vectors.
type Client struct {
	baseURL  string
	client   *http.Client
	provider string
}

// NewClient creates a new embedding client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultServerURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Provider returns the backend the model initialized with, or "" before Init.
func (c *Client) Provider() string {
	return c.provider
}

type initRequest struct {
	Provider string `json:"provider"`
}

type initResponse struct {
	OK       bool   `json:"ok"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Init prepares the embedding model, trying each provider in order and
// stopping at the first one that initializes. The error is non-nil only
// when the whole chain is exhausted.
func (c *Client) Init(ctx context.Context, providers []string) (string, error) {
	if len(providers) == 0 {
		providers = DefaultProviders
	}
	var errs []error
	for _, p := range providers {
		if err := c.initProvider(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("provider %s: %w", p, err))
			continue
		}
		c.provider = p
		return p, nil
	}
	return "", fmt.Errorf("embedding model unavailable: %w", errors.Join(errs...))
}

func (c *Client) initProvider(ctx context.Context, provider string) error {
	reqBody, err := json.Marshal(initRequest{Provider: provider})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/init", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var initResp initResponse
	if err := json.Unmarshal(body, &initResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !initResp.OK {
		return errors.New("model reported not ready")
	}
	return nil
}

// Face pairs a detected face's bounding box with its embedding.
type Face struct {
	Index     int       `json:"face_index"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixels
	Embedding Embedding `json:"embedding"`
	DetScore  float64   `json:"det_score"`
}

// Rect converts the corner-format bounding box into a Rect.
func (f Face) Rect() geometry.Rect {
	if len(f.BBox) != 4 {
		return geometry.Rect{W: 1, H: 1}
	}
	return geometry.FromCorners(int(f.BBox[0]), int(f.BBox[1]), int(f.BBox[2]), int(f.BBox[3]))
}

type faceResponse struct {
	FacesCount int    `json:"faces_count"`
	Faces      []Face `json:"faces"`
	Model      string `json:"model"`
}

// Faces detects faces in an encoded image and returns their bounding
// boxes and embeddings. Embeddings are L2-normalized client-side since
// the model does not guarantee it.
func (c *Client) Faces(ctx context.Context, imageData []byte) ([]Face, error) {
	body, err := c.postMultipartImage(ctx, "/embed/face", imageData)
	if err != nil {
		return nil, err
	}

	var faceResp faceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	for i := range faceResp.Faces {
		faceResp.Faces[i].Embedding.Normalize()
	}
	return faceResp.Faces, nil
}

// Embedding computes the embedding of the largest face in an encoded
// image. Returns nil without error when no face is found.
func (c *Client) Embedding(ctx context.Context, imageData []byte) (Embedding, error) {
	faces, err := c.Faces(ctx, imageData)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, nil
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Rect().Area() > best.Rect().Area() {
			best = f
		}
	}
	return best.Embedding, nil
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint. The part carries an explicit
// Content-Type based on magic byte detection.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// detectMIMEType detects the MIME type from image data.
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	// BMP: 42 4D
	if data[0] == 0x42 && data[1] == 0x4D {
		return "image/bmp"
	}
	return "application/octet-stream"
}
