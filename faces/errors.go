package faces

import (
	"errors"
	"fmt"
)

var (
	ErrDecode         = errors.New("cannot decode image")
	ErrNoFaceDetected = errors.New("no face detected")
	ErrMultipleFaces  = errors.New("multiple faces detected")
	ErrEmbedding      = errors.New("cannot compute face embedding")
)

// FaceCountMismatch is returned by CheckFaceCount. It is a caller-level rejection, not a pipeline failure.
type FaceCountMismatch struct {
	Detected int
	Expected int
}

func (e *FaceCountMismatch) Error() string {
	return fmt.Sprintf("expected exactly %d faces, detected %d", e.Expected, e.Detected)
}

// CheckFaceCount enforces the "exactly N faces" rule on a recognition result.
func CheckFaceCount(results []MatchResult, expected int) error {
	if len(results) != expected {
		return &FaceCountMismatch{Detected: len(results), Expected: expected}
	}
	return nil
}
