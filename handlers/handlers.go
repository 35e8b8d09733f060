package handlers

import (
	"sync/atomic"
	"time"

	"idcheck/faces"
	"idcheck/processing"
	"idcheck/storage"

	"golang.org/x/sync/semaphore"
)

type Response struct {
	Error string `json:"error"`
}

type FaceCountResponse struct {
	Error         string `json:"error"`
	DetectedFaces int    `json:"detected_faces"`
}

type RecognizedResponse struct {
	RecognizedIDs []string `json:"recognized_ids"`
}

var (
	// Predefined errors
	NoImageResponse      = Response{"No image uploaded."}
	NoFileResponse       = Response{"No selected file."}
	InvalidImageResponse = Response{"Invalid image."}
	TooLargeResponse     = Response{"Image too large."}
	InternalResponse     = Response{"Internal server error."}
)

type Options struct {
	Recognizer    *faces.Recognizer
	Model         string
	Tasks         *processing.Runner // optional
	Prepare       processing.PrepareOptions
	ExpectedFaces int
	MaxConcurrent int64
	MaxUploadSize int64 // request body limit, none when 0
	// Storage is where Tasks archive uploads; /status reports its free space.
	Storage storage.StorageAPI
}

// Handlers serves the recognition endpoints. The gallery behind Recognizer is read-only,
// so one Handlers value is shared by all requests.
type Handlers struct {
	opts     Options
	slots    *semaphore.Weighted
	inFlight atomic.Int64
	started  time.Time
}

func New(opts Options) *Handlers {
	if opts.ExpectedFaces < 1 {
		opts.ExpectedFaces = 2
	}
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	return &Handlers{
		opts:    opts,
		slots:   semaphore.NewWeighted(opts.MaxConcurrent),
		started: time.Now(),
	}
}

func (h *Handlers) gallery() *faces.Gallery {
	return h.opts.Recognizer.Matcher().Gallery
}

// InFlight is the number of recognitions currently holding a slot.
func (h *Handlers) InFlight() int64 {
	return h.inFlight.Load()
}
