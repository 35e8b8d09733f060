package processing

import (
	"context"
	"sync"
	"time"

	"idcheck/faces"

	log "github.com/sirupsen/logrus"
)

const (
	Skipped       = 0
	Done          = 2
	Failed        = 3
	FailedStorage = 4
	FailedDB      = 5
)

// Upload is a recognized photo on its way through the post-recognition tasks.
type Upload struct {
	ID           string
	CreatedAt    time.Time
	FileName     string
	Image        *faces.Image
	Recognitions []faces.Recognition
	Expected     int
	ArchivePath  string         // set by the archive task
	Statuses     map[string]int // results of the tasks run so far
}

func (u *Upload) Accepted() bool {
	return len(u.Recognitions) == u.Expected
}

func (u *Upload) Labels() []string {
	return faces.Labels(faces.Matches(u.Recognitions))
}

type Task interface {
	Name() string
	ShouldHandle(*Upload) bool
	Process(context.Context, *Upload) int
}

// Runner runs the registered tasks, in registration order, for every upload.
// Task results never reach the HTTP client.
type Runner struct {
	tasks   []Task
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRunner(timeout time.Duration, tasks ...Task) *Runner {
	return &Runner{tasks: tasks, timeout: timeout}
}

func (r *Runner) Names() []string {
	names := make([]string, len(r.tasks))
	for i, t := range r.tasks {
		names[i] = t.Name()
	}
	return names
}

func (r *Runner) Run(ctx context.Context, upload *Upload) map[string]int {
	if upload.Statuses == nil {
		upload.Statuses = map[string]int{}
	}
	for _, task := range r.tasks {
		name := task.Name()
		if !task.ShouldHandle(upload) {
			upload.Statuses[name] = Skipped
			continue
		}
		start := time.Now()
		upload.Statuses[name] = task.Process(ctx, upload)
		log.Debugf("Task %s, upload: %s, result: %d, time: %v", name, upload.ID, upload.Statuses[name], time.Since(start))
	}
	return upload.Statuses
}

// Go runs the tasks in the background, detached from the request context.
func (r *Runner) Go(upload *Upload) {
	if len(r.tasks) == 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.Run(ctx, upload)
	}()
}

// Wait blocks until every upload passed to Go is done.
func (r *Runner) Wait() {
	r.wg.Wait()
}
