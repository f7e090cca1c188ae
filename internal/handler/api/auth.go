// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ua "github.com/mileusna/useragent"

	"github.com/foliocms/foliocms/internal/auth"
	"github.com/foliocms/foliocms/internal/middleware"
	"github.com/foliocms/foliocms/internal/model"
)

// UserResponse represents the authenticated user in API responses.
type UserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Login handles POST /api/v1/auth/login. Failed attempts count toward
// the account lockout; success rotates the session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		WriteValidationError(w, "Email and password are required", nil)
		return
	}

	if locked, remaining := h.loginGuard.IsAccountLocked(email); locked {
		WriteError(w, http.StatusTooManyRequests, "account_locked",
			"Account temporarily locked, try again later", map[string]string{
				"retry_after": remaining.Round(time.Second).String(),
			})
		return
	}

	browser := parseBrowser(r.UserAgent())

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.failLogin(w, r, email, browser)
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		h.failLogin(w, r, email, browser)
		return
	}

	h.loginGuard.RecordSuccessfulLogin(email)

	// Rotate the session token on privilege change
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		slog.Error("renewing session token", "error", err)
		WriteInternalError(w, "Login failed")
		return
	}
	h.sessions.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	// Rehash transparently when parameters have been strengthened
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash); err != nil {
				slog.Warn("rehashing password", "user", user.ID, "error", err)
			}
		}
	}

	h.events.LogInfo(r.Context(), model.EventCategoryAuth, "login succeeded", map[string]any{
		"email":   email,
		"browser": browser,
	})
	WriteSuccess(w, UserResponse{ID: user.ID, Email: user.Email, Name: user.Name}, nil)
}

// failLogin records a failed attempt and answers with a uniform 401, so
// responses do not reveal whether the account exists.
func (h *Handler) failLogin(w http.ResponseWriter, r *http.Request, email, browser string) {
	locked, duration := h.loginGuard.RecordFailedAttempt(email)

	h.events.LogWarning(r.Context(), model.EventCategoryAuth, "login failed", map[string]any{
		"email":   email,
		"browser": browser,
	})

	if locked {
		WriteError(w, http.StatusTooManyRequests, "account_locked",
			"Account temporarily locked, try again later", map[string]string{
				"retry_after": duration.Round(time.Second).String(),
			})
		return
	}
	WriteUnauthorized(w, "Invalid email or password")
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r)
	if err := h.sessions.Destroy(r.Context()); err != nil {
		slog.Error("destroying session", "error", err)
		WriteInternalError(w, "Logout failed")
		return
	}

	h.events.LogInfo(r.Context(), model.EventCategoryAuth, "logout", map[string]any{
		"email": email,
	})
	WriteSuccess(w, map[string]any{"logged_out": true}, nil)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	WriteSuccess(w, UserResponse{ID: user.ID, Email: user.Email, Name: user.Name}, nil)
}

// parseBrowser condenses a User-Agent header into "Name version (OS)".
func parseBrowser(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	parsed := ua.Parse(userAgent)
	if parsed.Name == "" {
		return "unknown"
	}
	browser := parsed.Name
	if parsed.Version != "" {
		browser += " " + parsed.Version
	}
	if parsed.OS != "" {
		browser += " (" + parsed.OS + ")"
	}
	return browser
}
