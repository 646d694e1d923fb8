// Package uploads exposes presigned upload and download URLs for job
// attachments, portfolio images, and avatars.
package uploads

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"serviceconnect_backend/internal/adapters/storage"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/platform/config"
	"serviceconnect_backend/platform/httpkit"
	"serviceconnect_backend/platform/validator"
)

// UploadRequest asks for a presigned PUT URL.
type UploadRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=job-attachment portfolio avatar"`
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// DownloadRequest asks for a presigned GET URL.
type DownloadRequest struct {
	Kind    string `form:"kind" binding:"required"`
	FileKey string `form:"fileKey" binding:"required"`
}

// Module is the uploads module implementing http.Module.
type Module struct {
	store storage.Service
	cfg   config.MinIOConfig
	val   *validator.Validator
}

// NewModule creates the uploads module. store may be nil when object storage
// is disabled; routes then respond with 503.
func NewModule(store storage.Service, cfg config.MinIOConfig, val *validator.Validator) *Module {
	return &Module{store: store, cfg: cfg, val: val}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "uploads"
}

// RegisterRoutes mounts upload routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	uploads := ctx.Protected.Group("/uploads")
	uploads.POST("", m.createUploadURL)
	uploads.GET("/download", m.createDownloadURL)
}

func (m *Module) bucketFor(kind string) string {
	switch kind {
	case "portfolio":
		return m.cfg.GetMinioBucketPortfolio()
	case "avatar":
		return m.cfg.GetMinioBucketAvatars()
	default:
		return m.cfg.GetMinioBucketJobAttachments()
	}
}

// createUploadURL returns a presigned PUT URL scoped to the caller.
// POST /api/v1/uploads
func (m *Module) createUploadURL(c *gin.Context) {
	if m.store == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "object storage is not configured", nil)
		return
	}

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := m.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := m.store.GenerateUploadURL(c.Request.Context(),
		m.bucketFor(req.Kind), identity.UserID().String(), req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// createDownloadURL returns a presigned GET URL for a stored object.
// GET /api/v1/uploads/download?kind=job-attachment&fileKey=...
func (m *Module) createDownloadURL(c *gin.Context) {
	if m.store == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "object storage is not configured", nil)
		return
	}

	var req DownloadRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	result, err := m.store.GenerateDownloadURL(c.Request.Context(), m.bucketFor(req.Kind), req.FileKey)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	httpkit.OK(c, result)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
