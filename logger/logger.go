package logger

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Init configures the global logrus logger: level, text format, stdout plus an optional file.
func Init(level, file string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info': %v", level, err)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	writers := []io.Writer{os.Stdout}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
			log.Errorf("Failed to create log directory for '%s': %v", file, err)
		} else if f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660); err != nil {
			log.Errorf("Failed to open log file '%s': %v", file, err)
		} else {
			writers = append(writers, f)
			log.Infof("Logging additionally to file: %s", file)
		}
	}
	log.SetOutput(io.MultiWriter(writers...))
}
