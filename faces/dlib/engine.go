//go:build !nodlib

// Package dlib runs face detection and embedding in-process through go-face (dlib).
package dlib

import (
	"context"
	"fmt"
	"sync"

	"idcheck/faces"

	"github.com/Kagami/go-face"
	log "github.com/sirupsen/logrus"
)

const modelName = "dlib_face_recognition_resnet_model_v1"

type Options struct {
	ModelsDir string
	// CNN switches detection to the slower, more accurate CNN detector.
	CNN     bool
	Padding float64
}

// faceRecognizer is the part of *face.Recognizer the engine uses.
type faceRecognizer interface {
	Recognize(imgData []byte) ([]face.Face, error)
	RecognizeCNN(imgData []byte) ([]face.Face, error)
	RecognizeSingle(imgData []byte) (*face.Face, error)
	Close()
}

// Engine wraps a go-face recognizer. dlib is not safe for concurrent use, so calls are serialized.
type Engine struct {
	recognizer faceRecognizer
	mutex      sync.Mutex
	cnn        bool
	padding    float64
}

func New(opts Options) (*Engine, error) {
	recognizer, err := face.NewRecognizer(opts.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading dlib models from %s: %w", opts.ModelsDir, err)
	}
	log.Infof("Loaded dlib models from %s (cnn=%v)", opts.ModelsDir, opts.CNN)
	return &Engine{recognizer: recognizer, cnn: opts.CNN, padding: opts.Padding}, nil
}

func (e *Engine) Model() string {
	return modelName
}

func (e *Engine) recognize(data []byte) ([]face.Face, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.cnn {
		return e.recognizer.RecognizeCNN(data)
	}
	return e.recognizer.Recognize(data)
}

func (e *Engine) Detect(ctx context.Context, img *faces.Image) ([]faces.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := e.recognize(img.JPEG)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faces.ErrDecode, err)
	}
	bounds := img.Bounds()
	detections := make([]faces.Detection, 0, len(found))
	for _, cur := range found {
		region, ok := faces.ClampRegion(cur.Rectangle, bounds)
		if !ok {
			log.Warnf("Ignoring face outside of the image: %v", cur.Rectangle)
			continue
		}
		detections = append(detections, faces.Detection{Region: region, Embedding: descriptor(cur)})
	}
	return detections, nil
}

func descriptor(f face.Face) faces.Embedding {
	desc := [128]float32(f.Descriptor)
	return faces.Embedding(desc[:])
}

// Embed runs the recognizer over a padded crop of region and takes the single face it finds there.
// Regions returned by Detect already carry their descriptor and never get here.
func (e *Engine) Embed(ctx context.Context, img *faces.Image, region faces.Region) (faces.Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	crop, err := faces.CropRegion(img, region, e.padding)
	if err != nil {
		return nil, err
	}
	e.mutex.Lock()
	f, err := e.recognizer.RecognizeSingle(crop.JPEG)
	e.mutex.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faces.ErrEmbedding, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: no single face in region %s", faces.ErrEmbedding, region.ToJSONString())
	}
	return descriptor(*f), nil
}

func (e *Engine) Close() {
	e.recognizer.Close()
}
