// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sentinel

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/sentinel/services/sentinel/commander"
	"github.com/AleutianAI/sentinel/services/sentinel/telemetry"
)

// NewRouter builds the gin engine with middleware and all gate routes.
func NewRouter(svc *Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(svc.settings.Observability.ServiceName))
	router.Use(bodyLimit(svc.settings.Server.MaxBodyBytes))

	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc))

	if handler := telemetry.MetricsHandler(); handler != nil {
		router.GET("/metrics", gin.WrapH(handler))
	}
	return router
}

// bodyLimit rejects oversized request bodies before handlers read them.
func bodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// Serve runs the HTTP server until ctx is cancelled, then drains it.
//
// Description:
//
//	Starts the API listener and, when configured, the calibration record
//	watcher. On ctx cancellation the server gets the configured shutdown
//	grace period to finish in-flight requests.
func Serve(ctx context.Context, svc *Service) error {
	router := NewRouter(svc)

	server := &http.Server{
		Addr:         svc.settings.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  svc.settings.Server.ReadTimeout,
		WriteTimeout: svc.settings.Server.WriteTimeout,
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if svc.settings.Calibration.WatchRecord {
		go func() {
			err := commander.WatchCalibrationFile(watchCtx, svc.commander,
				svc.settings.Calibration.RecordPath, svc.logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				svc.logger.Warn("calibration watcher stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		svc.logger.Info("gate API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("gate API server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), svc.settings.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gate API shutdown: %w", err)
	}
	svc.logger.Info("gate API stopped")
	return nil
}
