// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/pkg/logging"
	"github.com/AleutianAI/sentinel/services/sentinel"
	"github.com/AleutianAI/sentinel/services/sentinel/telemetry"
)

// runServe starts the verification gate HTTP API.
func runServe(cmd *cobra.Command, args []string) {
	settings := loadSettings()

	if debugMode {
		gin.SetMode(gin.DebugMode)
		settings.Observability.LogLevel = "debug"
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(settings.Observability.LogLevel),
		Service: settings.Observability.ServiceName,
		JSON:    settings.Observability.LogFormat == "json",
	})
	defer logger.Close()
	slogger := logger.Slog()
	slog.SetDefault(slogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.FromSettings(settings.Observability))
	if err != nil {
		log.Fatalf("Error initializing telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			slogger.Warn("telemetry shutdown", "error", err)
		}
	}()

	svc, err := sentinel.NewService(settings, slogger)
	if err != nil {
		log.Fatalf("Error building service: %v", err)
	}
	defer svc.Close()

	printServeBanner(settings.Server.ListenAddr, svc)

	if err := sentinel.Serve(ctx, svc); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printServeBanner(addr string, svc *sentinel.Service) {
	cmdr := svc.Commander()
	fmt.Printf("Sentinel verification gate %s\n", sentinel.ServiceVersion)
	fmt.Printf("  listening:  %s\n", addr)
	fmt.Printf("  scorer:     %s\n", svc.Scorer().Name())
	fmt.Printf("  threshold:  %.4f (%s)\n", cmdr.Threshold(), cmdr.ThresholdSource())
	fmt.Printf("  verify:     POST /v1/sentinel/verify\n")
	fmt.Printf("  loop:       POST /v1/sentinel/loop\n")
	fmt.Printf("  health:     GET  /v1/sentinel/health\n")
	fmt.Println("Press Ctrl+C to stop")
}
