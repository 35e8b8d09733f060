package faces

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type fakeFace struct {
	region    Region
	embedding Embedding
}

// fakeEngine treats Image.JPEG as a photo name and answers from a fixed table.
type fakeEngine struct {
	photos     map[string][]fakeFace
	failEmbed  map[string]bool
	delay      map[string]time.Duration
	embedCalls atomic.Int32

	// withEmbeddings lists photos whose detections carry their embeddings.
	withEmbeddings map[string]bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		photos:         map[string][]fakeFace{},
		failEmbed:      map[string]bool{},
		delay:          map[string]time.Duration{},
		withEmbeddings: map[string]bool{},
	}
}

func (e *fakeEngine) add(name string, embeddings ...Embedding) {
	list := make([]fakeFace, len(embeddings))
	for i, emb := range embeddings {
		list[i] = fakeFace{region: Region{10, 20 + 30*i, 30, 0 + 30*i}, embedding: emb}
	}
	e.photos[name] = list
}

func (e *fakeEngine) Model() string {
	return "fake"
}

func (e *fakeEngine) Detect(ctx context.Context, img *Image) ([]Detection, error) {
	name := string(img.JPEG)
	if d := e.delay[name]; d > 0 {
		time.Sleep(d)
	}
	list, ok := e.photos[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown photo %s", ErrDecode, name)
	}
	detections := make([]Detection, len(list))
	for i, f := range list {
		detections[i] = Detection{Region: f.region}
		if e.withEmbeddings[name] {
			detections[i].Embedding = f.embedding
		}
	}
	return detections, nil
}

func (e *fakeEngine) Embed(ctx context.Context, img *Image, region Region) (Embedding, error) {
	e.embedCalls.Add(1)
	name := string(img.JPEG)
	if e.failEmbed[name] {
		return nil, errors.New("model exploded")
	}
	for _, f := range e.photos[name] {
		if f.region == region {
			return f.embedding, nil
		}
	}
	return nil, ErrEmbedding
}

// loadName skips decoding so fixtures can be plain names.
func loadName(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrDecode
	}
	return &Image{JPEG: data}, nil
}

func photo(name string) *Image {
	return &Image{JPEG: []byte(name)}
}

type memoryCache struct {
	mutex sync.Mutex
	data  map[string]Embedding
}

func (c *memoryCache) Get(ctx context.Context, key string) (Embedding, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	e, ok := c.data[key]
	return e, ok
}

func (c *memoryCache) Set(ctx context.Context, key string, embedding Embedding) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.data == nil {
		c.data = map[string]Embedding{}
	}
	c.data[key] = embedding
}
