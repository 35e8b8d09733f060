//go:build !nodlib

package app

import (
	"idcheck/config"
	"idcheck/faces"
	"idcheck/faces/dlib"
)

func newDlibEngine(cfg *config.Config) (faces.FaceEngine, func(), error) {
	engine, err := dlib.New(dlib.Options{ModelsDir: cfg.FaceModelsDir, CNN: cfg.FaceDetectCNN, Padding: cfg.FacePadding})
	if err != nil {
		return nil, nil, err
	}
	return engine, engine.Close, nil
}
