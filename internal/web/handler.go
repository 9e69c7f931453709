// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

// Package web exposes the credential lifecycle over HTTP.
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/deskhive/deskhive/internal/auth"
	"github.com/deskhive/deskhive/internal/logging"
	"github.com/deskhive/deskhive/internal/observability"
	"github.com/deskhive/deskhive/pkg/errutil"
)

// Handler carries the services behind the HTTP surface.
type Handler struct {
	auth     *auth.Service
	setup    *auth.SetupService
	verifier *auth.Verifier
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewHandler creates a new Handler. metrics may be nil when no
// observability server is running.
func NewHandler(authSvc *auth.Service, setupSvc *auth.SetupService, verifier *auth.Verifier, logger *slog.Logger, metrics *observability.Metrics) (*Handler, error) {
	if authSvc == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("auth service is required")
	}
	if setupSvc == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("setup service is required")
	}
	if verifier == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("verifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{auth: authSvc, setup: setupSvc, verifier: verifier, logger: logger, metrics: metrics}, nil
}

func (h *Handler) count(endpoint, status string) {
	if h.metrics != nil {
		h.metrics.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an email/password pair and returns a session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.count("/login", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, "/login", err)
		return
	}
	if !result.Success {
		h.count("/login", "rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.ErrorMessage})
		return
	}

	h.count("/login", "ok")
	c.SetCookie(auth.SessionCookieName, result.Token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": result.Token, "user_id": result.UserID})
}

type resetRequestRequest struct {
	Email string `json:"email" binding:"required"`
}

// RequestPasswordReset issues a reset token for the account. The response
// is 202 whether or not the email is known, so addresses cannot be
// enumerated; delivery is the host mailer's job.
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req resetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.count("/password/reset/request", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if _, err := h.setup.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.fail(c, "/password/reset/request", err)
		return
	}

	h.count("/password/reset/request", "ok")
	c.JSON(http.StatusAccepted, gin.H{})
}

// ValidateResetToken resolves a reset token for the password form.
func (h *Handler) ValidateResetToken(c *gin.Context) {
	validation, err := h.setup.ValidateResetToken(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.fail(c, "/password/reset/validate", err)
		return
	}
	if !validation.Valid {
		h.count("/password/reset/validate", "rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "error": validation.ErrorMessage})
		return
	}

	h.count("/password/reset/validate", "ok")
	c.JSON(http.StatusOK, gin.H{"valid": true, "email": validation.UserEmail})
}

type setPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SetPasswordWithToken commits a new password for a reset-token holder.
func (h *Handler) SetPasswordWithToken(c *gin.Context) {
	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.count("/password/reset", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result, err := h.setup.SetPasswordWithToken(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		h.fail(c, "/password/reset", err)
		return
	}
	if !result.Success {
		h.count("/password/reset", "rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.ErrorMessage})
		return
	}

	h.count("/password/reset", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ValidateInitialUser confirms the target of first-time setup exists. The
// route sits behind InvitationGate, which puts the verified user id on the
// context.
func (h *Handler) ValidateInitialUser(c *gin.Context) {
	userID, ok := invitedUser(c)
	if !ok {
		h.count("/password/setup/validate", "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no invitation in context"})
		return
	}

	validation, err := h.setup.ValidateInitialUser(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "/password/setup/validate", err)
		return
	}
	if !validation.Valid {
		h.count("/password/setup/validate", "rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "error": validation.ErrorMessage})
		return
	}

	h.count("/password/setup/validate", "ok")
	c.JSON(http.StatusOK, gin.H{"valid": true, "email": validation.UserEmail})
}

type initialPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// SetInitialPassword commits the first password for an invited user and
// signs them in. The target user id comes from InvitationGate, not from
// the request body.
func (h *Handler) SetInitialPassword(c *gin.Context) {
	userID, ok := invitedUser(c)
	if !ok {
		h.count("/password/setup", "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no invitation in context"})
		return
	}

	var req initialPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.count("/password/setup", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result, err := h.setup.SetInitialPassword(c.Request.Context(), userID, req.Password)
	if err != nil {
		h.fail(c, "/password/setup", err)
		return
	}
	if !result.Success {
		h.count("/password/setup", "rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.ErrorMessage})
		return
	}

	h.count("/password/setup", "ok")
	c.SetCookie(auth.SessionCookieName, result.LoginToken, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token":          result.LoginToken,
		"workspace_slug": result.WorkspaceSlug,
		"user_id":        result.UserID,
	})
}

// Me returns the authenticated principal.
func (h *Handler) Me(c *gin.Context) {
	principal, ok := auth.PrincipalFromContext(c.Request.Context())
	if !ok {
		h.count("/me", "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal in context"})
		return
	}

	h.count("/me", "ok")
	c.JSON(http.StatusOK, gin.H{
		"user_id":      principal.UserID,
		"email":        principal.Email,
		"name":         principal.Name,
		"system_admin": principal.SystemAdmin,
	})
}

// AuthRequired gates a route group on a verified session token.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := h.verifier.VerifyRequest(c.Request)
		if err != nil {
			if errors.Is(err, auth.ErrNoCredential) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			if oopsErr, ok := oops.AsOops(err); ok {
				switch oopsErr.Code() {
				case "VERIFY_INVALID_TOKEN", "VERIFY_TOKEN_EXPIRED", "VERIFY_USER_NOT_FOUND":
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": oopsErr.Error()})
					return
				}
			}
			errutil.LogError(h.logger, "token verification failed", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		ctx := auth.ContextWithPrincipal(c.Request.Context(), principal)
		c.Request = c.Request.WithContext(logging.ContextWithUserID(ctx, principal.UserID))
		c.Next()
	}
}

// fail answers an infrastructure error with a 500 and logs it.
func (h *Handler) fail(c *gin.Context, endpoint string, err error) {
	h.count(endpoint, "error")
	errutil.LogError(h.logger, "request failed", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
