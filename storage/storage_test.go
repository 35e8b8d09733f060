package storage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

func TestDiskStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := StorageFrom(NewBucket(dir, "/tmp", "", "", "", "", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	if s.GetBucket().StorageType != StorageTypeFile {
		t.Fatalf("expected disk storage, got %s", s.GetBucket().String())
	}

	n, err := s.Save("2024/05/a.jpg", strings.NewReader("jpeg data"))
	if err != nil || n != 9 {
		t.Fatalf("Save() = %d, %v", n, err)
	}
	// second save into the same (cached) directory
	if _, err := s.Save("2024/05/b.jpg", strings.NewReader("more")); err != nil {
		t.Fatal(err)
	}
	if size := s.GetSize("2024/05/a.jpg"); size != 9 {
		t.Errorf("GetSize() = %d", size)
	}
	if err := s.Delete("2024/05/a.jpg"); err != nil {
		t.Fatal(err)
	}
	if size := s.GetSize("2024/05/a.jpg"); size != -1 {
		t.Errorf("GetSize() after delete = %d", size)
	}
	if s.GetFreeSpace() == 0 {
		t.Errorf("GetFreeSpace() = 0")
	}
}

// fakeS3 keeps objects in memory, path style: /<bucket>/<key>
type fakeS3 struct {
	mutex   sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	key := r.URL.Path
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		data, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(data)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Storage(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	server := httptest.NewServer(fake)
	defer server.Close()

	bucket := NewBucket("", t.TempDir(), "archive", "eu-west-1", server.URL, "/uploads/", "key", "secret")
	if bucket.Path != "uploads" || bucket.AuthDetails != "key:secret" {
		t.Fatalf("bucket = %+v", bucket)
	}
	s, err := StorageFrom(bucket)
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.Save("2024/05/a.jpg", strings.NewReader("jpeg data"))
	if err != nil || n != 9 {
		t.Fatalf("Save() = %d, %v", n, err)
	}
	if _, ok := fake.objects["/archive/uploads/2024/05/a.jpg"]; !ok {
		t.Fatalf("object not stored, have %v", fake.objects)
	}
	if size := s.GetSize("2024/05/a.jpg"); size != 9 {
		t.Errorf("GetSize() = %d", size)
	}
	if err := s.Delete("2024/05/a.jpg"); err != nil {
		t.Fatal(err)
	}
	if len(fake.objects) != 0 {
		t.Errorf("object not deleted")
	}
	if size := s.GetSize("2024/05/a.jpg"); size != -1 {
		t.Errorf("GetSize() after delete = %d", size)
	}
}

func TestBucket_GetRemotePath(t *testing.T) {
	if got := (&Bucket{}).GetRemotePath("a/b.jpg"); got != "a/b.jpg" {
		t.Errorf("GetRemotePath() = %s", got)
	}
	if got := (&Bucket{Path: "p"}).GetRemotePath("a/b.jpg"); got != "p/a/b.jpg" {
		t.Errorf("GetRemotePath() = %s", got)
	}
}
