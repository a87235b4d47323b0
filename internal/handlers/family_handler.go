package handlers

import (
	"net/http"

	"village/internal/service"
)

// FamilyHandler handles family and child profile requests from parents
type FamilyHandler struct {
	familyService *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

type familyRequest struct {
	Name string `json:"name"`
}

type childRequest struct {
	Name        string `json:"name"`
	GradeLevel  string `json:"grade_level"`
	BirthDate   *Date  `json:"birth_date"`
	AvatarColor string `json:"avatar_color"`
}

func (c childRequest) input() service.ChildInput {
	return service.ChildInput{
		Name:        c.Name,
		GradeLevel:  c.GradeLevel,
		BirthDate:   c.BirthDate.Ptr(),
		AvatarColor: c.AvatarColor,
	}
}

// ListFamilies lists the families the parent belongs to
func (h *FamilyHandler) ListFamilies(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	families, err := h.familyService.GetUserFamilies(user.ID)
	if err != nil {
		respondWithServiceError(w, "Failed to list families", err)
		return
	}
	respondOK(w, families)
}

// CreateFamily creates a family owned by the parent
func (h *FamilyHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var in familyRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	family, err := h.familyService.CreateFamily(in.Name, user.ID)
	if err != nil {
		respondWithServiceError(w, "Failed to create family", err)
		return
	}
	respondCreated(w, family)
}

// GetFamily returns a family with its parents and children
func (h *FamilyHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID, ok := pathID(w, r, "familyID")
	if !ok {
		return
	}

	details, err := h.familyService.GetFamilyDetails(user.ID, familyID)
	if err != nil {
		respondWithServiceError(w, "Failed to get family", err)
		return
	}
	respondOK(w, details)
}

// RenameFamily changes a family's display name
func (h *FamilyHandler) RenameFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID, ok := pathID(w, r, "familyID")
	if !ok {
		return
	}
	var in familyRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	if err := h.familyService.RenameFamily(user.ID, familyID, in.Name); err != nil {
		respondWithServiceError(w, "Failed to rename family", err)
		return
	}
	family, err := h.familyService.GetFamily(familyID)
	if err != nil {
		respondWithServiceError(w, "Failed to get family", err)
		return
	}
	respondOK(w, family)
}

// JoinFamily adds the parent to a family by its code
func (h *FamilyHandler) JoinFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var in struct {
		FamilyCode string `json:"family_code"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	family, err := h.familyService.JoinFamilyByCode(user.ID, in.FamilyCode)
	if err != nil {
		respondWithServiceError(w, "Failed to join family", err)
		return
	}
	respondOK(w, family)
}

// LeaveFamily removes the parent from a family
func (h *FamilyHandler) LeaveFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID, ok := pathID(w, r, "familyID")
	if !ok {
		return
	}

	if err := h.familyService.LeaveFamily(user.ID, familyID); err != nil {
		respondWithServiceError(w, "Failed to leave family", err)
		return
	}
	respondMessage(w, "Left family")
}

// ListFamilyChildren lists the children of one family
func (h *FamilyHandler) ListFamilyChildren(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID, ok := pathID(w, r, "familyID")
	if !ok {
		return
	}

	children, err := h.familyService.GetFamilyChildren(user.ID, familyID)
	if err != nil {
		respondWithServiceError(w, "Failed to list children", err)
		return
	}
	respondOK(w, children)
}

// ListChildren lists the children of every family the parent belongs to
func (h *FamilyHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	children, err := h.familyService.GetAllUserChildren(user.ID)
	if err != nil {
		respondWithServiceError(w, "Failed to list children", err)
		return
	}
	respondOK(w, children)
}

// CreateChild adds a child to a family. The response carries the generated
// username and PIN.
func (h *FamilyHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID, ok := pathID(w, r, "familyID")
	if !ok {
		return
	}
	var in childRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	child, err := h.familyService.CreateChild(user.ID, familyID, in.input())
	if err != nil {
		respondWithServiceError(w, "Failed to create child", err)
		return
	}
	respondCreated(w, child)
}

// GetChild returns one child profile
func (h *FamilyHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}

	child, err := h.familyService.ChildForUser(user.ID, childID)
	if err != nil {
		respondWithServiceError(w, "Failed to get child", err)
		return
	}
	respondOK(w, child)
}

// UpdateChild edits a child profile
func (h *FamilyHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	var in childRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	child, err := h.familyService.UpdateChild(user.ID, childID, in.input())
	if err != nil {
		respondWithServiceError(w, "Failed to update child", err)
		return
	}
	respondOK(w, child)
}

// RegeneratePIN issues a new login PIN for a child
func (h *FamilyHandler) RegeneratePIN(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}

	pin, err := h.familyService.RegeneratePIN(user.ID, childID)
	if err != nil {
		respondWithServiceError(w, "Failed to regenerate PIN", err)
		return
	}
	respondOK(w, map[string]string{"pin": pin})
}

// DeleteChild removes a child and all of their records
func (h *FamilyHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}

	if err := h.familyService.DeleteChild(user.ID, childID); err != nil {
		respondWithServiceError(w, "Failed to delete child", err)
		return
	}
	respondMessage(w, "Child deleted")
}
