package handlers

import (
	"net/http"

	"familylink/internal/models"
	"familylink/internal/service"
)

// ChildHandler handles child-related HTTP requests
type ChildHandler struct {
	childService *service.ChildService
}

// NewChildHandler creates a new child handler
func NewChildHandler(childService *service.ChildService) *ChildHandler {
	return &ChildHandler{childService: childService}
}

type childDashboardView struct {
	Child  models.UserFull   `json:"child"`
	Parent *models.UserBasic `json:"parent"`
}

func childFromRequest(w http.ResponseWriter, r *http.Request) (models.ChildAccount, bool) {
	child, ok := models.AsChild(GetUserFromContext(r.Context()))
	if !ok {
		writeError(w, r, service.ErrChildOnly)
	}
	return child, ok
}

func basicOrNil(u *models.User) *models.UserBasic {
	if u == nil {
		return nil
	}
	b := u.Basic()
	return &b
}

// Dashboard returns the child and its parent, if linked
func (h *ChildHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	child, ok := childFromRequest(w, r)
	if !ok {
		return
	}

	dash, err := h.childService.Dashboard(r.Context(), child)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: childDashboardView{
			Child:  dash.Child.Full(),
			Parent: basicOrNil(dash.Parent),
		},
	})
}

// GetProfile returns the child's profile together with its parent
func (h *ChildHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	child, ok := childFromRequest(w, r)
	if !ok {
		return
	}

	profile, err := h.childService.GetProfile(r.Context(), child)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := envelope{Success: true, Profile: profile.Child.Full()}
	if profile.Parent != nil {
		resp.Parent = profile.Parent.Basic()
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateProfile changes the child's username or email
func (h *ChildHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	child, ok := childFromRequest(w, r)
	if !ok {
		return
	}

	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.childService.UpdateProfile(r.Context(), child, service.ProfileInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Profile updated successfully", Profile: user.Full()})
}

// GetParent returns the linked parent
func (h *ChildHandler) GetParent(w http.ResponseWriter, r *http.Request) {
	child, ok := childFromRequest(w, r)
	if !ok {
		return
	}

	parent, err := h.childService.GetParent(r.Context(), child)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Parent: parent.Basic()})
}
