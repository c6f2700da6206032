package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"familylink/internal/security"
	"familylink/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	ParentCode string `json:"parent_code"`
}

// parentRefView identifies a parent to callers holding only its code
type parentRefView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a parent or child account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		ParentCode: req.ParentCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "Registration successful",
		User:    user.Basic(),
	})
}

// Login authenticates the user, sets the session cookie and returns the token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if statusForError(err) == http.StatusUnauthorized {
			log.Warn().Str("ip", security.GetClientIP(r)).Msg("Failed login attempt")
		}
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, result.Token, result.Session.ExpiresAt))

	writeJSON(w, http.StatusOK, envelope{
		Success:  true,
		Message:  "Login successful",
		User:     result.User.Basic(),
		Redirect: result.Redirect,
		Token:    result.Token,
	})
}

// Logout ends the current session if there is one and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.LogoutToken(r.Context(), security.TokenFromRequest(r)); err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out successfully"})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, r, service.ErrSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: user.Full()})
}

// ValidateParentCode reports whether a parent code belongs to a parent
func (h *AuthHandler) ValidateParentCode(w http.ResponseWriter, r *http.Request) {
	parent, err := h.authService.ValidateParentCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	valid := parent != nil
	resp := envelope{Success: true, Valid: &valid}
	if valid {
		resp.Parent = parentRefView{ID: parent.ID, Username: parent.Username}
	} else {
		resp.Message = service.ErrInvalidParentCode.Message
	}
	writeJSON(w, http.StatusOK, resp)
}
