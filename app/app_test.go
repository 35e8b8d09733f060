package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"idcheck/config"
)

// embeddingServer answers every image with one face and the same embedding.
func embeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/embed/face":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"faces_count": 1,
				"faces": []map[string]any{
					{"face_index": 0, "bbox": []float64{5, 5, 30, 30}, "embedding": []float32{0.1, 0.2, 0.3}, "det_score": 0.99},
				},
				"model": "test",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 60, 60))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T, enrolled ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for _, label := range enrolled {
		writePNG(t, filepath.Join(dir, label+".png"))
	}
	return &config.Config{
		KnownFacesDir:    dir,
		EnrollMultiFace:  "reject",
		EnrollWorkers:    2,
		UploadDir:        t.TempDir(),
		TmpDir:           t.TempDir(),
		JPEGQuality:      90,
		FaceEngine:       "remote",
		FacePadding:      0.25,
		EmbeddingURL:     embeddingServer(t).URL,
		EmbeddingTimeout: 5 * time.Second,
		FaceTolerance:    0.6,
		GalleryIndex:     "linear",
		ExpectedFaces:    2,
	}
}

func TestNewCore(t *testing.T) {
	cfg := testConfig(t, "alice", "bob")
	started := 0
	var steps atomic.Int32
	a, err := NewCore(context.Background(), cfg, Progress{
		Start: func(total int) { started = total },
		Step:  func() { steps.Add(1) },
	})
	if err != nil {
		t.Fatalf("NewCore() error = %v", err)
	}
	defer a.Close()

	if got := a.Gallery.Labels(); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Errorf("Labels() = %v", got)
	}
	if started != 2 || steps.Load() != 2 {
		t.Errorf("progress start = %d, steps = %d", started, steps.Load())
	}
	if a.Report.Total != 2 || a.Report.Enrolled != 2 {
		t.Errorf("Report = %+v", a.Report)
	}
	if a.DB != nil || a.Tasks != nil {
		t.Error("NewCore must not open a database or create tasks without configuration")
	}
	if a.Recognizer.Matcher().Index != nil {
		t.Error("linear gallery got an index")
	}
}

func TestNewCore_HNSW(t *testing.T) {
	cfg := testConfig(t, "alice")
	cfg.GalleryIndex = "hnsw"
	a, err := NewCore(context.Background(), cfg, Progress{})
	if err != nil {
		t.Fatalf("NewCore() error = %v", err)
	}
	defer a.Close()
	if a.Recognizer.Matcher().Index == nil {
		t.Error("hnsw gallery has no index")
	}
}

func TestNewCore_EmptyGallery(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewCore(context.Background(), cfg, Progress{})
	if err != nil {
		t.Fatalf("empty gallery without REQUIRE_GALLERY: %v", err)
	}
	a.Close()

	cfg.RequireGallery = true
	if _, err := NewCore(context.Background(), cfg, Progress{}); !errors.Is(err, ErrEmptyGallery) {
		t.Errorf("NewCore() error = %v, want ErrEmptyGallery", err)
	}
}

func TestNewCore_EnrollFromDBNeedsDatabase(t *testing.T) {
	cfg := testConfig(t, "alice")
	cfg.EnrollFromDB = true
	if _, err := NewCore(context.Background(), cfg, Progress{}); err == nil {
		t.Error("expected an error without a database")
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig(t, "alice", "bob")
	cfg.SQLiteFile = filepath.Join(t.TempDir(), "idcheck.db")
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if got := a.Tasks.Names(); !reflect.DeepEqual(got, []string{"archive", "record"}) {
		t.Errorf("task names = %v", got)
	}
	if a.DB == nil || a.Storage == nil {
		t.Error("database or storage missing")
	}
	if got := a.Storage.GetBucket().Path; got != cfg.UploadDir {
		t.Errorf("bucket path = %s, want %s", got, cfg.UploadDir)
	}
}
