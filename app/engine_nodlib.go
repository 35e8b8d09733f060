//go:build nodlib

package app

import (
	"errors"

	"idcheck/config"
	"idcheck/faces"
)

// Built with -tags nodlib (no dlib libraries on the machine): only FACE_ENGINE=remote works.
func newDlibEngine(cfg *config.Config) (faces.FaceEngine, func(), error) {
	return nil, nil, errors.New("built without dlib support, use FACE_ENGINE=remote")
}
