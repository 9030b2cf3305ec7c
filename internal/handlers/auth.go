package handlers

import (
	"encoding/json"
	"net/http"

	"mangashelf/internal/database"
	"mangashelf/internal/logging"
	"mangashelf/internal/middleware"
)

// LoginRequest carries the single-user password.
type LoginRequest struct {
	Password string `json:"password"`
}

// SetupRequest creates the password on first run.
type SetupRequest struct {
	Password string `json:"password"`
}

// PasswordChangeRequest rotates the password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse is the response from authentication endpoints.
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// bcrypt truncates beyond 72 bytes, so longer passwords are rejected
// rather than silently shortened.
const (
	minPasswordLength = 6
	maxPasswordLength = 72
)

func validPasswordLength(password string) bool {
	return len(password) >= minPasswordLength && len(password) <= maxPasswordLength
}

// CheckSetupRequired returns whether initial setup is needed
func (h *Handlers) CheckSetupRequired(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"needsSetup": !h.db.HasUsers()})
}

// Setup creates the initial password
func (h *Handlers) Setup(w http.ResponseWriter, r *http.Request) {
	if h.db.HasUsers() {
		writeJSONError(w, "Setup already completed", http.StatusForbidden)
		return
	}

	var req SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !validPasswordLength(req.Password) {
		writeJSONError(w, "Password must be 6 to 72 characters", http.StatusBadRequest)
		return
	}

	if err := h.db.CreateUser(req.Password); err != nil {
		logging.Error("Failed to create user: %v", err)
		writeJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	logging.Info("Initial password configured")
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{Success: true, Message: "Password configured successfully"})
}

// Login authenticates with password and issues a session cookie
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.db.ValidatePassword(req.Password)
	if err != nil {
		logging.Warn("Failed login attempt")
		writeJSONError(w, "Invalid password", http.StatusUnauthorized)
		return
	}

	session, err := h.db.CreateSession(user.ID)
	if err != nil {
		logging.Error("Failed to create session: %v", err)
		writeJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	logging.Info("User logged in, session expires in %v", database.SessionDuration)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// Logout ends the current session
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		// Best effort: logout succeeds even when the session row is gone.
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			logging.Error("Failed to delete session during logout: %v", err)
		}
	}

	middleware.ClearSessionCookie(w)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{Success: true, Message: "Logged out successfully"})
}

// CheckAuth verifies the current session
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := h.db.ValidateSession(cookie.Value); err != nil {
		middleware.ClearSessionCookie(w)
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// ChangePassword rotates the password and invalidates all sessions
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.db.ValidatePassword(req.CurrentPassword); err != nil {
		logging.Warn("Failed password change attempt")
		writeJSONError(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}
	if !validPasswordLength(req.NewPassword) {
		writeJSONError(w, "New password must be 6 to 72 characters", http.StatusBadRequest)
		return
	}

	if err := h.db.UpdatePassword(req.NewPassword); err != nil {
		logging.Error("Failed to update password: %v", err)
		writeJSONError(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	logging.Info("Password changed, all sessions invalidated")
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{Success: true, Message: "Password updated successfully"})
}
