package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"idcheck/faces"
)

func testImage(t *testing.T) *faces.Image {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 100, 80))); err != nil {
		t.Fatal(err)
	}
	img, err := faces.DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func embeddingServer(t *testing.T, response faceResponse, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(status)
		case "/embed/face":
			if _, _, err := r.FormFile("file"); err != nil {
				http.Error(w, "missing file", http.StatusBadRequest)
				return
			}
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(response)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestEngine_Detect(t *testing.T) {
	server := embeddingServer(t, faceResponse{
		FacesCount: 3,
		Faces: []faceDetection{
			{FaceIndex: 0, BBox: []float64{10.2, 5, 30, 25.6}},
			{FaceIndex: 1, BBox: []float64{60, 40, 130, 90}},
			{FaceIndex: 2, BBox: []float64{1, 2}},
		},
	}, http.StatusOK)
	defer server.Close()

	engine := New(server.URL+"/", 0.25, time.Second)
	detections, err := engine.Detect(context.Background(), testImage(t))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(detections) != 2 {
		t.Fatalf("got %d detections, want 2", len(detections))
	}
	if want := (faces.Region{5, 30, 26, 10}); detections[0].Region != want {
		t.Errorf("first region = %v, want %v", detections[0].Region, want)
	}
	// clamped to the 100x80 image
	if want := (faces.Region{40, 100, 80, 60}); detections[1].Region != want {
		t.Errorf("second region = %v, want %v", detections[1].Region, want)
	}
}

func TestEngine_EmbedLargestFace(t *testing.T) {
	server := embeddingServer(t, faceResponse{
		Faces: []faceDetection{
			{BBox: []float64{0, 0, 10, 10}, Embedding: []float32{1, 1}},
			{BBox: []float64{0, 0, 100, 100}, Embedding: []float32{2, 2}},
			{BBox: []float64{0, 0, 200, 200}},
		},
	}, http.StatusOK)
	defer server.Close()

	engine := New(server.URL, 0.25, time.Second)
	embedding, err := engine.Embed(context.Background(), testImage(t), faces.Region{10, 40, 40, 10})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(embedding) != 2 || embedding[0] != 2 {
		t.Errorf("Embed() = %v, want the largest face with an embedding", embedding)
	}
}

func TestEngine_EmbedErrors(t *testing.T) {
	empty := embeddingServer(t, faceResponse{}, http.StatusOK)
	defer empty.Close()
	failing := embeddingServer(t, faceResponse{}, http.StatusInternalServerError)
	defer failing.Close()

	img := testImage(t)
	region := faces.Region{10, 40, 40, 10}
	for name, url := range map[string]string{"no face": empty.URL, "server error": failing.URL} {
		_, err := New(url, 0, time.Second).Embed(context.Background(), img, region)
		if !errors.Is(err, faces.ErrEmbedding) {
			t.Errorf("%s: error = %v, want ErrEmbedding", name, err)
		}
	}
	if _, err := New(empty.URL, 0, time.Second).Embed(context.Background(), img, faces.Region{}); !errors.Is(err, faces.ErrEmbedding) {
		t.Errorf("empty region: error = %v, want ErrEmbedding", err)
	}
}

func TestEngine_Ping(t *testing.T) {
	up := embeddingServer(t, faceResponse{}, http.StatusOK)
	defer up.Close()
	down := embeddingServer(t, faceResponse{}, http.StatusServiceUnavailable)
	defer down.Close()

	if err := New(up.URL, 0, time.Second).Ping(context.Background()); err != nil {
		t.Errorf("Ping() = %v", err)
	}
	if err := New(down.URL, 0, time.Second).Ping(context.Background()); err == nil {
		t.Errorf("Ping() on failing server returned nil")
	}
}
