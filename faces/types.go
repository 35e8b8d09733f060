package faces

import (
	"encoding/json"
	"image"
	"math"
)

const (
	IndexTop    = 0
	IndexRight  = 1
	IndexBottom = 2
	IndexLeft   = 3
)

// UnknownLabel is what a face that matched nobody in the gallery is reported as.
const UnknownLabel = "Unknown"

type (
	// Region is a face bounding box in image pixel space: top, right, bottom, left.
	Region [4]int
	// Embedding is the identity vector an engine produced for one face.
	Embedding []float32
	// Detection is a face found by the detector, in detector-reported order.
	Detection struct {
		Region Region `json:"region"`
		// Embedding is set by engines that compute descriptors while detecting.
		Embedding Embedding `json:"-"`
	}
	// MatchResult is either a gallery identity or Unknown.
	MatchResult struct {
		Label    string  `json:"label"`
		Distance float64 `json:"distance"`
		Known    bool    `json:"known"`
	}
)

func RegionFromRect(r image.Rectangle) Region {
	return Region{r.Min.Y, r.Max.X, r.Max.Y, r.Min.X}
}

// ClampRegion trims rect to bounds; false when nothing of it is left inside.
func ClampRegion(rect, bounds image.Rectangle) (Region, bool) {
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return Region{}, false
	}
	return RegionFromRect(rect), true
}

func (r Region) Rect() image.Rectangle {
	return image.Rect(r[IndexLeft], r[IndexTop], r[IndexRight], r[IndexBottom])
}

func (r Region) Width() int {
	return r[IndexRight] - r[IndexLeft]
}

func (r Region) Height() int {
	return r[IndexBottom] - r[IndexTop]
}

// Empty reports a zero-area (or inverted) region.
func (r Region) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

func (r *Region) ToJSONString() string {
	data, _ := json.Marshal(r)
	return string(data)
}

func Identity(label string, distance float64) MatchResult {
	return MatchResult{Label: label, Distance: distance, Known: true}
}

func Unknown(distance float64) MatchResult {
	return MatchResult{Label: UnknownLabel, Distance: distance}
}

func (m MatchResult) String() string {
	if !m.Known {
		return UnknownLabel
	}
	return m.Label
}

// ReportedDistance is Distance, or -1 when nothing was comparable (empty gallery); JSON and SQL cannot hold +Inf.
func (m MatchResult) ReportedDistance() float64 {
	if math.IsInf(m.Distance, 0) || math.IsNaN(m.Distance) {
		return -1
	}
	return m.Distance
}

// Labels converts results to the labels returned to callers, keeping the order.
func Labels(results []MatchResult) []string {
	labels := make([]string, len(results))
	for i, r := range results {
		labels[i] = r.String()
	}
	return labels
}
