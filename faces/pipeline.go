package faces

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Recognizer runs detect, embed and match over a probe photo.
type Recognizer struct {
	engine  FaceEngine
	matcher *Matcher
}

func NewRecognizer(engine FaceEngine, matcher *Matcher) *Recognizer {
	return &Recognizer{engine: engine, matcher: matcher}
}

func (r *Recognizer) Matcher() *Matcher {
	return r.matcher
}

// Recognition is the full outcome for one detected face.
type Recognition struct {
	Region    Region
	Embedding Embedding
	Match     MatchResult
}

// Matches keeps only the match results, in the same order.
func Matches(recognitions []Recognition) []MatchResult {
	results := make([]MatchResult, len(recognitions))
	for i, r := range recognitions {
		results[i] = r.Match
	}
	return results
}

// Analyze detects every face, embeds it and matches it against the gallery, in detector order.
// A photo without faces gives an empty slice; any embedding failure fails the whole call.
func (r *Recognizer) Analyze(ctx context.Context, img *Image) ([]Recognition, error) {
	detections, err := r.engine.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	recognitions := make([]Recognition, 0, len(detections))
	for i, detection := range detections {
		embedding, err := EmbedDetection(ctx, r.engine, img, detection)
		if err != nil {
			return nil, fmt.Errorf("face %d at %s: %w", i, detection.Region.ToJSONString(), wrapEmbedding(err))
		}
		result := r.matcher.Match(embedding)
		log.WithFields(log.Fields{
			"face":     i,
			"label":    result.String(),
			"distance": result.Distance,
		}).Debug("Face matched")
		recognitions = append(recognitions, Recognition{Region: detection.Region, Embedding: embedding, Match: result})
	}
	return recognitions, nil
}

// Recognize returns one result per detected face, in detector order.
func (r *Recognizer) Recognize(ctx context.Context, img *Image) ([]MatchResult, error) {
	recognitions, err := r.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}
	return Matches(recognitions), nil
}

func wrapEmbedding(err error) error {
	if errors.Is(err, ErrEmbedding) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrEmbedding, err)
}
