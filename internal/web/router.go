// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package web

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP surface around a Handler. inviteGate guards the
// first-time setup routes; when it is nil those routes are not mounted, so
// a deployment without an invitation secret cannot expose them.
func NewRouter(h *Handler, inviteGate gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/login", h.Login)

	password := router.Group("/password")
	{
		password.POST("/reset/request", h.RequestPasswordReset)
		password.GET("/reset/validate", h.ValidateResetToken)
		password.POST("/reset", h.SetPasswordWithToken)
	}

	if inviteGate != nil {
		setup := password.Group("/setup")
		setup.Use(inviteGate)
		setup.GET("/validate", h.ValidateInitialUser)
		setup.POST("", h.SetInitialPassword)
	}

	authed := router.Group("/")
	authed.Use(h.AuthRequired())
	{
		authed.GET("/me", h.Me)
	}

	return router
}
