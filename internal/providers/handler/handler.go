package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serviceconnect_backend/internal/providers/service"
	"serviceconnect_backend/internal/providers/transport"
	"serviceconnect_backend/platform/httpkit"
	"serviceconnect_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid ID"
	roleProvider        = "provider"
	roleAdmin           = "admin"
)

// Handler handles HTTP requests for the providers module.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new providers handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateProfile creates the caller's provider profile.
// POST /api/v1/providers
func (h *Handler) CreateProfile(c *gin.Context) {
	var req transport.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	if !identity.HasRole(roleProvider) {
		httpkit.Error(c, http.StatusForbidden, "provider role required", nil)
		return
	}

	result, err := h.svc.CreateProfile(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List returns the public provider listing.
// GET /api/v1/providers
func (h *Handler) List(c *gin.Context) {
	var req transport.ListProvidersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	identity := httpkit.GetIdentity(c)

	result, err := h.svc.ListProviders(c.Request.Context(), req, identity.HasRole(roleAdmin))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get returns one provider profile.
// GET /api/v1/providers/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.GetIdentity(c)

	result, err := h.svc.GetProfile(c.Request.Context(), id, identity.UserID(), identity.HasRole(roleAdmin))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MyProfile returns the caller's own profile.
// GET /api/v1/providers/me
func (h *Handler) MyProfile(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.MyProfile(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateProfile updates the caller's own profile.
// PUT /api/v1/providers/me
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req transport.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.UpdateProfile(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteProfile removes the caller's own profile.
// DELETE /api/v1/providers/me
func (h *Handler) DeleteProfile(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.DeleteProfile(c.Request.Context(), identity.UserID()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "profile deleted"})
}

// AddService adds a service offering to the caller's profile.
// POST /api/v1/providers/me/services
func (h *Handler) AddService(c *gin.Context) {
	var req transport.AddServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.AddService(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// RemoveService deletes a service from the caller's profile.
// DELETE /api/v1/providers/me/services/:serviceId
func (h *Handler) RemoveService(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("serviceId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.RemoveService(c.Request.Context(), identity.UserID(), serviceID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "service removed"})
}

// Stats summarizes a provider's track record.
// GET /api/v1/providers/:id/stats
func (h *Handler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.Stats(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ApproveService approves a single pending service (admin only).
// POST /api/v1/admin/providers/:id/services/:serviceId/approve
func (h *Handler) ApproveService(c *gin.Context) {
	profileID, serviceID, ok := parseServicePath(c)
	if !ok {
		return
	}

	result, err := h.svc.ApproveService(c.Request.Context(), profileID, serviceID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RejectService rejects a single pending service (admin only).
// POST /api/v1/admin/providers/:id/services/:serviceId/reject
func (h *Handler) RejectService(c *gin.Context) {
	profileID, serviceID, ok := parseServicePath(c)
	if !ok {
		return
	}
	var req transport.RejectServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.RejectService(c.Request.Context(), profileID, serviceID, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SuspendService suspends a single active service (admin only).
// POST /api/v1/admin/providers/:id/services/:serviceId/suspend
func (h *Handler) SuspendService(c *gin.Context) {
	profileID, serviceID, ok := parseServicePath(c)
	if !ok {
		return
	}

	result, err := h.svc.SuspendService(c.Request.Context(), profileID, serviceID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ReinstateService reinstates a suspended service (admin only).
// POST /api/v1/admin/providers/:id/services/:serviceId/reinstate
func (h *Handler) ReinstateService(c *gin.Context) {
	profileID, serviceID, ok := parseServicePath(c)
	if !ok {
		return
	}

	result, err := h.svc.ReinstateService(c.Request.Context(), profileID, serviceID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetModeration sets the profile-level moderation flags (admin only).
// PUT /api/v1/admin/providers/:id/moderation
func (h *Handler) SetModeration(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.SetModeration(c.Request.Context(), id, req.Approved, req.Suspended)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseServicePath(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, uuid.Nil, false
	}
	serviceID, err := uuid.Parse(c.Param("serviceId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return profileID, serviceID, true
}
