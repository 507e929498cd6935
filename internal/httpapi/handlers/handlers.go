// Package handlers implements the HTTP endpoints of the sceneforge API.
package handlers

import (
	"sceneforge/internal/config"
	"sceneforge/internal/job"
	"sceneforge/internal/pipeline"
	"sceneforge/internal/pkg/logger"
	"sceneforge/internal/ports"
)

type Deps struct {
	Store job.Store
	Pool  *pipeline.Pool
	SP    ports.StorageProvider
	Cfg   config.Config
	Log   *logger.Logger
}

type Handler struct {
	store job.Store
	pool  *pipeline.Pool
	sp    ports.StorageProvider
	cfg   config.Config
	log   *logger.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		store: d.Store,
		pool:  d.Pool,
		sp:    d.SP,
		cfg:   d.Cfg,
		log:   d.Log,
	}
}
