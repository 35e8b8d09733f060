package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"idcheck/app"
	"idcheck/handlers"
	"idcheck/processing"

	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Build the gallery from the enrollment images and serve
POST /upload, GET /, GET /gallery and GET /status.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("bind", "", "Address to listen on (overrides BIND_ADDRESS)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
		cfg.BindAddress = bind
	}
	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	h := handlers.New(handlers.Options{
		Recognizer:    a.Recognizer,
		Model:         a.Engine.Model(),
		Tasks:         a.Tasks,
		Prepare:       processing.PrepareOptions{MaxDimension: cfg.MaxImageDimension, Quality: cfg.JPEGQuality},
		ExpectedFaces: cfg.ExpectedFaces,
		MaxConcurrent: cfg.MaxConcurrentRecognitions,
		MaxUploadSize: cfg.MaxUploadSize,
		Storage:       a.Storage,
	})
	router := handlers.NewRouter(h, cfg.DebugMode)

	if domains := cfg.GetTLSDomains(); len(domains) > 0 {
		log.Infof("Serving TLS for %v", domains)
		err = autotls.RunWithContext(ctx, router, domains...)
	} else {
		err = listen(ctx, cfg.BindAddress, router)
	}
	log.Infof("Server stopped: %v", err)
	return err
}

func listen(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Server shutdown error: %v", err)
		}
	}()
	log.Infof("Listening on %s", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
