package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"familylink/internal/models"
	"familylink/internal/service"
)

// ParentHandler handles parent-related HTTP requests
type ParentHandler struct {
	parentService *service.ParentService
}

// NewParentHandler creates a new parent handler
func NewParentHandler(parentService *service.ParentService) *ParentHandler {
	return &ParentHandler{parentService: parentService}
}

type parentDashboardView struct {
	Parent     models.UserFull   `json:"parent"`
	Children   []models.UserFull `json:"children"`
	ParentCode string            `json:"parent_code"`
}

type parentCodeView struct {
	ParentCode string `json:"parent_code"`
}

type addChildRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateChildRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"is_active"`
}

type profileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

func fullViews(users []models.User) []models.UserFull {
	views := make([]models.UserFull, 0, len(users))
	for i := range users {
		views = append(views, users[i].Full())
	}
	return views
}

// parentFromRequest resolves the authenticated user as a parent account
func parentFromRequest(w http.ResponseWriter, r *http.Request) (models.ParentAccount, bool) {
	parent, ok := models.AsParent(GetUserFromContext(r.Context()))
	if !ok {
		writeError(w, r, service.ErrParentOnly)
	}
	return parent, ok
}

func childIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, ErrInvalidChildID)
		return 0, false
	}
	return id, true
}

// Dashboard returns the parent with its children and parent code
func (h *ParentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	parent, ok := parentFromRequest(w, r)
	if !ok {
		return
	}

	dash, err := h.parentService.Dashboard(r.Context(), parent)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: parentDashboardView{
			Parent:     dash.Parent.Full(),
			Children:   fullViews(dash.Children),
			ParentCode: dash.ParentCode,
		},
	})
}

// ListChildren returns the children linked to the parent
func (h *ParentHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	parent, ok := parentFromRequest(w, r)
	if !ok {
		return
	}

	children, err := h.parentService.ListChildren(r.Context(), parent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: fullViews(children)})
}

// AddChild creates a child account linked to the parent
func (h *ParentHandler) AddChild(w http.ResponseWriter, r *http.Request) {
	parent, ok := parentFromRequest(w, r)
	if !ok {
		return
	}

	var req addChildRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	child, err := h.parentService.AddChild(r.Context(), parent, service.AddChildInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "Child account created", Data: child.Full()})
}

// GetChild returns one of the parent's children
func (h *ParentHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	parent, ok := parentFromRequest(w, r)
	if !ok {
		return
	}
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}

	child, err := h.parentService.GetChild(r.Context(), parent, childID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: child.Full()})
}

// UpdateChild changes a child's username, email or active flag
func (h *ParentHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	parent, ok := parentFromRequest(w, r)
	if !ok {
		return
	}
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}

	var req updateChildRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	child, err := h.parentService.UpdateChild(r.Context(), parent, childID, service.UpdateChildInput{
		Username: req.Username,
		Email:    req.Email,
		IsActive: req.IsActive,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Child updated successfully", Data: child.Full()})
}

// RemoveChild unlinks a child from the parent
func (h *ParentHandler) RemoveChild(w http.ResponseWriter, r *http.Request) {
	parent, ok := parentFromRequest(w, r)
	if !ok {
		return
	}
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}

	if err := h.parentService.RemoveChild(r.Context(), parent, childID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Child removed successfully"})
}

// GetCode returns the parent's code
func (h *ParentHandler) GetCode(w http.ResponseWriter, r *http.Request) {
	parent, ok := parentFromRequest(w, r)
	if !ok {
		return
	}

	code, err := h.parentService.GetParentCode(r.Context(), parent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: parentCodeView{ParentCode: code}})
}

// GenerateCode replaces the parent's code
func (h *ParentHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	parent, ok := parentFromRequest(w, r)
	if !ok {
		return
	}

	code, err := h.parentService.GenerateParentCode(r.Context(), parent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "New parent code generated",
		Data:    parentCodeView{ParentCode: code},
	})
}

// GetProfile returns the parent's own profile
func (h *ParentHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	parent, ok := parentFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Profile: parent.User().Full()})
}

// UpdateProfile changes the parent's username or email
func (h *ParentHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	parent, ok := parentFromRequest(w, r)
	if !ok {
		return
	}

	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.parentService.UpdateProfile(r.Context(), parent, service.ProfileInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Profile updated successfully", Profile: user.Full()})
}
