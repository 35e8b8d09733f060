// Package remote delegates face detection and embedding to an HTTP embedding server
// exposing POST /embed/face.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"idcheck/faces"

	log "github.com/sirupsen/logrus"
)

const DefaultURL = "http://localhost:8000"

type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

type Engine struct {
	baseURL string
	padding float64
	client  *http.Client
}

func New(baseURL string, padding float64, timeout time.Duration) *Engine {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Engine{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		padding: padding,
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *Engine) Model() string {
	return "remote:" + e.baseURL
}

func (e *Engine) postImage(ctx context.Context, endpoint string, imageData []byte) (*faceResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
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

	var result faceResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// Detect reports every face the server finds, clamped to the image bounds.
func (e *Engine) Detect(ctx context.Context, img *faces.Image) ([]faces.Detection, error) {
	resp, err := e.postImage(ctx, "/embed/face", img.JPEG)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	detections := make([]faces.Detection, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		rect, ok := bboxRect(f.BBox)
		if !ok {
			log.Warnf("Ignoring face %d with malformed bbox %v", f.FaceIndex, f.BBox)
			continue
		}
		region, ok := faces.ClampRegion(rect, bounds)
		if !ok {
			log.Warnf("Ignoring face %d outside of the image: %v", f.FaceIndex, f.BBox)
			continue
		}
		detections = append(detections, faces.Detection{Region: region})
	}
	return detections, nil
}

// Embed sends a padded crop of region and keeps the largest face found in it.
func (e *Engine) Embed(ctx context.Context, img *faces.Image, region faces.Region) (faces.Embedding, error) {
	crop, err := faces.CropRegion(img, region, e.padding)
	if err != nil {
		return nil, err
	}
	resp, err := e.postImage(ctx, "/embed/face", crop.JPEG)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faces.ErrEmbedding, err)
	}
	var best *faceDetection
	bestArea := -1
	for i := range resp.Faces {
		rect, ok := bboxRect(resp.Faces[i].BBox)
		if !ok || len(resp.Faces[i].Embedding) == 0 {
			continue
		}
		if area := rect.Dx() * rect.Dy(); area > bestArea {
			best, bestArea = &resp.Faces[i], area
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no face in region %s", faces.ErrEmbedding, region.ToJSONString())
	}
	return faces.Embedding(best.Embedding), nil
}

// Ping checks that the embedding server answers.
func (e *Engine) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding server returned status %d", resp.StatusCode)
	}
	return nil
}

func bboxRect(bbox []float64) (image.Rectangle, bool) {
	if len(bbox) != 4 {
		return image.Rectangle{}, false
	}
	rect := image.Rect(
		int(math.Round(bbox[0])), int(math.Round(bbox[1])),
		int(math.Round(bbox[2])), int(math.Round(bbox[3])),
	)
	return rect, !rect.Empty()
}
