package processing

import (
	"context"

	"idcheck/events"
	"idcheck/faces"

	log "github.com/sirupsen/logrus"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.RecognitionEvent) error
}

type publish struct {
	publisher EventPublisher
}

func NewPublishTask(p EventPublisher) Task {
	return &publish{publisher: p}
}

func (t *publish) Name() string {
	return "publish"
}

func (t *publish) ShouldHandle(upload *Upload) bool {
	return true
}

func (t *publish) Process(ctx context.Context, upload *Upload) int {
	results := faces.Matches(upload.Recognitions)
	for i := range results {
		results[i].Distance = results[i].ReportedDistance()
	}
	event := events.RecognitionEvent{
		AttemptID:     upload.ID,
		Timestamp:     upload.CreatedAt.Unix(),
		DetectedFaces: len(upload.Recognitions),
		Accepted:      upload.Accepted(),
		Labels:        upload.Labels(),
		Faces:         results,
	}
	if err := t.publisher.Publish(ctx, event); err != nil {
		log.Errorf("Error publishing result of upload %s: %v", upload.ID, err)
		return Failed
	}
	return Done
}
