// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"github.com/mityademon-rgb/matveypt-bot/platform/config"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
	"github.com/mityademon-rgb/matveypt-bot/platform/metrics"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (listen address and CORS).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Metrics is exposed on /metrics. May be nil.
	Metrics *metrics.Recorder
	// Modules contains all HTTP-facing modules.
	Modules []Module
}
