// Package app assembles the process-scoped pieces (engine, gallery, storage, tasks) from the configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"idcheck/cache"
	"idcheck/config"
	"idcheck/db"
	"idcheck/events"
	"idcheck/faces"
	"idcheck/faces/remote"
	"idcheck/models"
	"idcheck/processing"
	"idcheck/storage"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrEmptyGallery = errors.New("no identities enrolled")

// Time allowed for the post-recognition tasks of one upload.
const taskTimeout = 2 * time.Minute

// App is immutable once built and shared by all requests.
type App struct {
	Config     *config.Config
	Engine     faces.FaceEngine
	Gallery    *faces.Gallery
	Report     faces.BuildReport
	Recognizer *faces.Recognizer
	DB         *gorm.DB // nil without a database
	Storage    storage.StorageAPI
	Tasks      *processing.Runner

	closers []func()
}

// Progress reports gallery build progress, e.g. to a terminal progress bar. Both funcs are optional.
type Progress struct {
	Start func(total int)
	Step  func()
}

// New builds everything the HTTP server needs.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a, err := NewCore(ctx, cfg, Progress{})
	if err != nil {
		return nil, err
	}
	if err := a.initTasks(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// NewCore builds the engine, the database and the gallery, enough to recognize photos locally.
func NewCore(ctx context.Context, cfg *config.Config, progress Progress) (*App, error) {
	a := &App{Config: cfg}
	err := a.initEngine(ctx)
	if err == nil {
		err = a.initDB()
	}
	if err == nil {
		err = a.initGallery(ctx, progress)
	}
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) initEngine(ctx context.Context) error {
	cfg := a.Config
	switch cfg.FaceEngine {
	case "remote":
		engine := remote.New(cfg.EmbeddingURL, cfg.FacePadding, cfg.EmbeddingTimeout)
		if err := engine.Ping(ctx); err != nil {
			log.Warnf("Embedding server %s is not reachable yet: %v", cfg.EmbeddingURL, err)
		}
		a.Engine = engine
	default:
		engine, closer, err := newDlibEngine(cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, closer)
		a.Engine = engine
	}
	log.Infof("Face engine: %s", a.Engine.Model())
	return nil
}

func (a *App) initDB() error {
	cfg := a.Config
	conn, err := db.Open(cfg.MySQLDSN, cfg.SQLiteFile, cfg.DebugMode)
	if errors.Is(err, db.ErrNotConfigured) {
		if cfg.EnrollFromDB {
			return fmt.Errorf("ENROLL_FROM_DB needs MYSQL_DSN or SQLITE_FILE: %w", err)
		}
		log.Info("No database configured, attempts will not be recorded")
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := models.Init(conn); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	a.DB = conn
	a.closers = append(a.closers, func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return nil
}

func (a *App) enrollmentSource() faces.EnrollmentSource {
	if a.Config.EnrollFromDB {
		log.Info("Enrolling identities from the database")
		return models.IdentitySource{DB: a.DB}
	}
	log.Infof("Enrolling identities from %s", a.Config.KnownFacesDir)
	return faces.DirSource{Dir: a.Config.KnownFacesDir}
}

func (a *App) embeddingCache(ctx context.Context) faces.EmbeddingCache {
	cfg := a.Config
	if cfg.RedisAddr == "" {
		return nil
	}
	c := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.EmbeddingCacheTTL)
	if err := c.Ping(ctx); err != nil {
		log.Warnf("Redis at %s not available, enrolling without the embedding cache: %v", cfg.RedisAddr, err)
		_ = c.Close()
		return nil
	}
	a.closers = append(a.closers, func() { _ = c.Close() })
	return c
}

func (a *App) initGallery(ctx context.Context, progress Progress) error {
	cfg := a.Config
	items, err := a.enrollmentSource().Items(ctx)
	if err != nil {
		return fmt.Errorf("listing enrollment images: %w", err)
	}
	if progress.Start != nil {
		progress.Start(len(items))
	}
	gallery, report, err := faces.BuildGallery(ctx, faces.SliceSource(items), a.Engine, faces.GalleryOptions{
		MultiFace: faces.MultiFacePolicy(cfg.EnrollMultiFace),
		Workers:   cfg.EnrollWorkers,
		Load: func(data []byte) (*faces.Image, error) {
			return processing.Prepare(data, processing.PrepareOptions{MaxDimension: cfg.MaxImageDimension, Quality: cfg.JPEGQuality})
		},
		Cache:    a.embeddingCache(ctx),
		Progress: progress.Step,
	})
	if err != nil {
		return fmt.Errorf("building gallery: %w", err)
	}
	if gallery.Len() == 0 {
		if cfg.RequireGallery {
			return ErrEmptyGallery
		}
		log.Warn("Gallery is empty, every face will be Unknown")
	}
	a.Gallery, a.Report = gallery, report

	matcher := faces.NewMatcher(gallery, cfg.FaceTolerance)
	if cfg.GalleryIndex == "hnsw" {
		index := faces.NewHNSWIndex(gallery)
		log.Infof("HNSW index built with %d identities", index.Len())
		matcher = matcher.WithIndex(index)
	}
	a.Recognizer = faces.NewRecognizer(a.Engine, matcher)
	return nil
}

// initTasks registers the post-recognition tasks; record goes last so it stores the others' results.
func (a *App) initTasks() error {
	cfg := a.Config
	bucket := storage.NewBucket(cfg.UploadDir, cfg.TmpDir, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, cfg.S3Prefix, cfg.S3AccessKey, cfg.S3SecretKey)
	store, err := storage.StorageFrom(bucket)
	if err != nil {
		return fmt.Errorf("creating storage: %w", err)
	}
	a.Storage = store
	tasks := []processing.Task{processing.NewArchiveTask(store)}

	if cfg.MQTTBroker != "" {
		publisher, err := events.Connect(events.Options{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		tasks = append(tasks, processing.NewPublishTask(publisher))
	}
	if a.DB != nil {
		tasks = append(tasks, processing.NewRecordTask(a.DB))
	}
	a.Tasks = processing.NewRunner(taskTimeout, tasks...)
	log.Infof("Upload tasks: %v", a.Tasks.Names())
	return nil
}

// Close waits for running upload tasks and releases connections, in reverse order of creation.
func (a *App) Close() {
	if a.Tasks != nil {
		a.Tasks.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
