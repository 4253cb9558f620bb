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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all gate routes with the router group.
//
// Endpoints:
//
//	POST /v1/sentinel/verify - Verify one piece of candidate code
//	POST /v1/sentinel/loop - Run the generate-verify-correct loop
//	GET  /v1/sentinel/threshold - Current acceptance threshold
//	POST /v1/sentinel/threshold/reload - Re-read the calibration record
//	GET  /v1/sentinel/history/decisions - Recent verification decisions
//	GET  /v1/sentinel/history/loops - Recent loop outcomes
//	GET  /v1/sentinel/health - Health check
//
// Example:
//
//	svc, _ := sentinel.NewService(settings, logger)
//	handlers := sentinel.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	sentinel.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	gate := rg.Group("/sentinel")
	{
		gate.POST("/verify", handlers.HandleVerify)
		gate.POST("/loop", handlers.HandleLoop)

		gate.GET("/threshold", handlers.HandleThreshold)
		gate.POST("/threshold/reload", handlers.HandleThresholdReload)

		gate.GET("/history/decisions", handlers.HandleDecisions)
		gate.GET("/history/loops", handlers.HandleLoops)

		gate.GET("/health", handlers.HandleHealth)
	}
}
