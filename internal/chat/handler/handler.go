package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serviceconnect_backend/internal/chat/service"
	"serviceconnect_backend/internal/chat/transport"
	"serviceconnect_backend/platform/httpkit"
	"serviceconnect_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid room ID"
)

// Handler handles HTTP requests for the chat module.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new chat handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// OpenRoom opens (or reuses) a direct room with another user.
// POST /api/v1/chat/rooms
func (h *Handler) OpenRoom(c *gin.Context) {
	var req transport.OpenRoomRequest
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

	result, err := h.svc.OpenRoom(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListRooms returns the caller's rooms with unread counts.
// GET /api/v1/chat/rooms
func (h *Handler) ListRooms(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListRooms(c.Request.Context(), identity.UserID(), identity.Roles())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SendMessage posts a message to a room.
// POST /api/v1/chat/rooms/:id/messages
func (h *Handler) SendMessage(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.SendMessageRequest
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

	result, err := h.svc.SendMessage(c.Request.Context(), roomID, identity.UserID(), identity.Roles(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// History returns a page of room messages in ascending time order.
// GET /api/v1/chat/rooms/:id/messages?before=<RFC3339>&pageSize=50
func (h *Handler) History(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var before *time.Time
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid before cursor", nil)
			return
		}
		before = &t
	}

	result, err := h.svc.History(c.Request.Context(), roomID, identity.UserID(), identity.Roles(), before, req.PageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MarkRead clears the caller's unread count for a room.
// POST /api/v1/chat/rooms/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), roomID, identity.UserID(), identity.Roles()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"read": true})
}
