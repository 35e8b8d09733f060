package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddress != "0.0.0.0:6000" {
		t.Errorf("BindAddress = %s", cfg.BindAddress)
	}
	if cfg.FaceTolerance != 0.6 || cfg.ExpectedFaces != 2 {
		t.Errorf("matching defaults = %v, %d", cfg.FaceTolerance, cfg.ExpectedFaces)
	}
	if cfg.KnownFacesDir != "known_faces" || cfg.UploadDir != "uploaded_images" {
		t.Errorf("directories = %s, %s", cfg.KnownFacesDir, cfg.UploadDir)
	}
	if cfg.EmbeddingCacheTTL != 720*time.Hour || cfg.EmbeddingTimeout != 30*time.Second {
		t.Errorf("durations = %v, %v", cfg.EmbeddingCacheTTL, cfg.EmbeddingTimeout)
	}
	if cfg.MaxUploadSize != 32<<20 || cfg.MaxConcurrentRecognitions < 1 {
		t.Errorf("limits = %d, %d", cfg.MaxUploadSize, cfg.MaxConcurrentRecognitions)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BIND_ADDRESS", "127.0.0.1:9000")
	t.Setenv("FACE_TOLERANCE", "0.45")
	t.Setenv("ENROLL_MULTI_FACE", "FIRST")
	t.Setenv("DEBUG_MODE", "true")
	t.Setenv("EMBEDDING_CACHE_TTL", "2h")
	t.Setenv("EXPECTED_FACES", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddress != "127.0.0.1:9000" || cfg.FaceTolerance != 0.45 || !cfg.DebugMode {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.EnrollMultiFace != "first" {
		t.Errorf("EnrollMultiFace = %s", cfg.EnrollMultiFace)
	}
	if cfg.EmbeddingCacheTTL != 2*time.Hour || cfg.ExpectedFaces != 3 {
		t.Errorf("EmbeddingCacheTTL = %v, ExpectedFaces = %d", cfg.EmbeddingCacheTTL, cfg.ExpectedFaces)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idcheck.yaml")
	data := "face_engine: remote\nembedding_url: http://embedder:8000\ngallery_index: hnsw\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GALLERY_INDEX", "linear")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FaceEngine != "remote" || cfg.EmbeddingURL != "http://embedder:8000" {
		t.Errorf("file not applied: %s %s", cfg.FaceEngine, cfg.EmbeddingURL)
	}
	if cfg.GalleryIndex != "linear" {
		t.Errorf("environment should win over the file, GalleryIndex = %s", cfg.GalleryIndex)
	}
}

func TestLoad_ZeroTolerance(t *testing.T) {
	t.Setenv("FACE_TOLERANCE", "0")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FaceTolerance != 0 {
		t.Errorf("FaceTolerance = %v, want 0", cfg.FaceTolerance)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"FACE_ENGINE":       "opencv",
		"ENROLL_MULTI_FACE": "all",
		"GALLERY_INDEX":     "faiss",
		"FACE_TOLERANCE":    "-1",
		"EXPECTED_FACES":    "0",
		"JPEG_QUALITY":      "101",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			if _, err := Load(""); err == nil {
				t.Errorf("Load() with %s=%s succeeded", name, value)
			}
		})
	}
}

func TestGetTLSDomains(t *testing.T) {
	cfg := Config{TLSDomains: " a.example.com, ,b.example.com"}
	if got := cfg.GetTLSDomains(); !reflect.DeepEqual(got, []string{"a.example.com", "b.example.com"}) {
		t.Errorf("GetTLSDomains() = %v", got)
	}
	if got := (&Config{}).GetTLSDomains(); len(got) != 0 {
		t.Errorf("GetTLSDomains() = %v", got)
	}
}
