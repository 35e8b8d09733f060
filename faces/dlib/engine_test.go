//go:build !nodlib

package dlib

import (
	"context"
	"errors"
	"image"
	"testing"

	"idcheck/faces"

	"github.com/Kagami/go-face"
)

// stubRecognizer answers Recognize with fixed faces and counts the crops it is asked about.
type stubRecognizer struct {
	found       []face.Face
	single      *face.Face
	singleCalls int
}

func (r *stubRecognizer) Recognize([]byte) ([]face.Face, error) { return r.found, nil }
func (r *stubRecognizer) RecognizeCNN([]byte) ([]face.Face, error) { return r.found, nil }
func (r *stubRecognizer) RecognizeSingle([]byte) (*face.Face, error) {
	r.singleCalls++
	return r.single, nil
}
func (r *stubRecognizer) Close() {}

func descriptorOf(v float32) face.Descriptor {
	var d face.Descriptor
	d[0] = v
	return d
}

func testImage(t *testing.T) *faces.Image {
	t.Helper()
	img, err := faces.NewImage(image.NewRGBA(image.Rect(0, 0, 200, 200)), 90)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestEngine_Detect(t *testing.T) {
	stub := &stubRecognizer{found: []face.Face{
		{Rectangle: image.Rect(60, 40, 110, 90), Descriptor: descriptorOf(1)},
		{Rectangle: image.Rect(-5, -5, 50, 60), Descriptor: descriptorOf(2)},
		{Rectangle: image.Rect(250, 10, 300, 60), Descriptor: descriptorOf(3)},
	}}
	engine := &Engine{recognizer: stub}

	detections, err := engine.Detect(context.Background(), testImage(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(detections) != 2 {
		t.Fatalf("got %d detections, want 2", len(detections))
	}
	if want := (faces.Region{40, 110, 90, 60}); detections[0].Region != want {
		t.Errorf("first region = %v, want %v", detections[0].Region, want)
	}
	if want := (faces.Region{0, 50, 60, 0}); detections[1].Region != want {
		t.Errorf("edge region = %v, want %v", detections[1].Region, want)
	}
	for i, d := range detections {
		if len(d.Embedding) != 128 || d.Embedding[0] != float32(i+1) {
			t.Errorf("detection %d carries embedding %v", i, d.Embedding)
		}
	}
}

// Two heads close together: a crop around one of them sees both faces and RecognizeSingle finds none.
func TestEngine_CloseFacesKeepDetectionDescriptors(t *testing.T) {
	stub := &stubRecognizer{found: []face.Face{
		{Rectangle: image.Rect(40, 40, 90, 90), Descriptor: descriptorOf(0)},
		{Rectangle: image.Rect(95, 40, 145, 90), Descriptor: descriptorOf(1)},
	}}
	engine := &Engine{recognizer: stub, padding: 0.25}
	gallery := faces.NewGallery([]faces.IdentityRecord{
		{Label: "alice", Embedding: descriptor(face.Face{Descriptor: descriptorOf(0)})},
		{Label: "bob", Embedding: descriptor(face.Face{Descriptor: descriptorOf(1)})},
	})
	recognizer := faces.NewRecognizer(engine, faces.NewMatcher(gallery, faces.DefaultTolerance))

	results, err := recognizer.Recognize(context.Background(), testImage(t))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got := faces.Labels(results); len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Errorf("Labels() = %v", got)
	}
	if stub.singleCalls != 0 {
		t.Errorf("RecognizeSingle called %d times", stub.singleCalls)
	}
}

func TestEngine_EmbedFallback(t *testing.T) {
	stub := &stubRecognizer{}
	engine := &Engine{recognizer: stub, padding: 0.25}
	img := testImage(t)

	if _, err := engine.Embed(context.Background(), img, faces.Region{40, 90, 90, 40}); !errors.Is(err, faces.ErrEmbedding) {
		t.Errorf("no face in crop: error = %v, want ErrEmbedding", err)
	}
	stub.single = &face.Face{Descriptor: descriptorOf(5)}
	embedding, err := engine.Embed(context.Background(), img, faces.Region{40, 90, 90, 40})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(embedding) != 128 || embedding[0] != 5 {
		t.Errorf("Embed() = %v", embedding)
	}
	if stub.singleCalls != 2 {
		t.Errorf("RecognizeSingle called %d times, want 2", stub.singleCalls)
	}
}
