package faces

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MultiFacePolicy decides what to do with an enrollment image that shows more than one face.
type MultiFacePolicy string

const (
	MultiFaceReject MultiFacePolicy = "reject"
	MultiFaceFirst  MultiFacePolicy = "first"
)

// SkipReason explains why an enrollment item did not make it into the gallery.
type SkipReason string

const (
	SkipUnreadable    SkipReason = "unreadable"
	SkipNoFace        SkipReason = "no_face"
	SkipMultipleFaces SkipReason = "multiple_faces"
	SkipEmbedding     SkipReason = "embedding_failed"
)

// IdentityRecord is an enrolled identity. Never mutated after the gallery is built.
type IdentityRecord struct {
	Label     string
	Embedding Embedding
	Source    string
}

// Gallery is the ordered, read-only set of enrolled identities. Safe for concurrent use.
type Gallery struct {
	records []IdentityRecord
}

type SkippedItem struct {
	Name   string
	Label  string
	Reason SkipReason
	Err    error
}

// BuildReport summarises a gallery build.
type BuildReport struct {
	Total    int
	Enrolled int
	Skipped  []SkippedItem
}

type GalleryOptions struct {
	MultiFace MultiFacePolicy
	Workers   int
	// Load turns raw file data into an Image; DecodeImage when nil.
	Load  func(data []byte) (*Image, error)
	Cache EmbeddingCache
	// Progress, if set, is called once per processed item (from worker goroutines).
	Progress func()
}

// NewGallery copies records into a new gallery, keeping their order.
func NewGallery(records []IdentityRecord) *Gallery {
	g := &Gallery{records: make([]IdentityRecord, len(records))}
	copy(g.records, records)
	return g
}

func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.records)
}

func (g *Gallery) At(i int) IdentityRecord {
	return g.records[i]
}

// Records returns a copy of the records in gallery order.
func (g *Gallery) Records() []IdentityRecord {
	return NewGallery(g.records).records
}

func (g *Gallery) Labels() []string {
	labels := make([]string, g.Len())
	for i := range labels {
		labels[i] = g.records[i].Label
	}
	return labels
}

// duplicateLabels returns labels that appear more than once.
func (g *Gallery) duplicateLabels() []string {
	seen := map[string]int{}
	result := []string{}
	for _, r := range g.records {
		seen[r.Label]++
		if seen[r.Label] == 2 {
			result = append(result, r.Label)
		}
	}
	return result
}

type enrollOutcome struct {
	record *IdentityRecord
	skip   *SkippedItem
}

// BuildGallery runs every enrollment item through the engine and collects one record per usable
// image. Per-item failures are logged and reported, never returned; only enumeration failures and
// context cancellation abort the build. Records keep the source order regardless of Workers.
func BuildGallery(ctx context.Context, source EnrollmentSource, engine FaceEngine, opts GalleryOptions) (*Gallery, BuildReport, error) {
	items, err := source.Items(ctx)
	if err != nil {
		return nil, BuildReport{}, err
	}
	if opts.MultiFace == "" {
		opts.MultiFace = MultiFaceReject
	}
	if opts.Load == nil {
		opts.Load = DecodeImage
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]enrollOutcome, len(items))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i := range items {
		i := i
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = enrollOne(gctx, engine, items[i], opts)
			if opts.Progress != nil {
				opts.Progress()
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, BuildReport{}, err
	}

	report := BuildReport{Total: len(items)}
	records := make([]IdentityRecord, 0, len(items))
	for _, o := range outcomes {
		if o.skip != nil {
			report.Skipped = append(report.Skipped, *o.skip)
			continue
		}
		records = append(records, *o.record)
	}
	report.Enrolled = len(records)

	g := &Gallery{records: records}
	for _, label := range g.duplicateLabels() {
		log.Warnf("Label %q is enrolled more than once, the first record wins ties", label)
	}
	log.WithFields(log.Fields{
		"total":    report.Total,
		"enrolled": report.Enrolled,
		"skipped":  len(report.Skipped),
	}).Info("Gallery built")
	return g, report, nil
}

func enrollOne(ctx context.Context, engine FaceEngine, item EnrollmentItem, opts GalleryOptions) enrollOutcome {
	skip := func(reason SkipReason, err error) enrollOutcome {
		log.WithFields(log.Fields{"file": item.Name, "reason": reason}).Warnf("Enrollment image skipped: %v", err)
		return enrollOutcome{skip: &SkippedItem{Name: item.Name, Label: item.Label, Reason: reason, Err: err}}
	}

	data, err := readItem(item)
	if err != nil {
		return skip(SkipUnreadable, err)
	}
	key := ""
	if opts.Cache != nil {
		key = CacheKey(engine.Model(), data)
		if embedding, ok := opts.Cache.Get(ctx, key); ok {
			log.Debugf("Using cached embedding for %s", item.Name)
			return enrollOutcome{record: &IdentityRecord{Label: item.Label, Embedding: embedding, Source: item.Name}}
		}
	}
	img, err := opts.Load(data)
	if err != nil {
		return skip(SkipUnreadable, err)
	}
	detections, err := engine.Detect(ctx, img)
	if err != nil {
		return skip(SkipUnreadable, err)
	}
	switch {
	case len(detections) == 0:
		return skip(SkipNoFace, ErrNoFaceDetected)
	case len(detections) > 1 && opts.MultiFace != MultiFaceFirst:
		return skip(SkipMultipleFaces, fmt.Errorf("%w: %d faces", ErrMultipleFaces, len(detections)))
	}
	embedding, err := EmbedDetection(ctx, engine, img, detections[0])
	if err != nil {
		return skip(SkipEmbedding, err)
	}
	// Only single-face images are cached, so a cached entry is valid under either policy.
	if opts.Cache != nil && len(detections) == 1 {
		opts.Cache.Set(ctx, key, embedding)
	}
	log.Debugf("Encoded and added label %s", item.Label)
	return enrollOutcome{record: &IdentityRecord{Label: item.Label, Embedding: embedding, Source: item.Name}}
}

func readItem(item EnrollmentItem) ([]byte, error) {
	if item.Open == nil {
		return nil, errors.New("enrollment item has no data")
	}
	r, err := item.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
