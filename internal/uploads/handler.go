// Package uploads stages documents in object storage so they can be analyzed
// later through /documents/analyze-object.
package uploads

import (
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docrisk-backend/internal/shared/server/middleware"
	"docrisk-backend/internal/shared/server/respond"
	"docrisk-backend/internal/shared/storage/object"
	objects3 "docrisk-backend/internal/shared/storage/object/s3"
	"docrisk-backend/internal/shared/telemetry"
	"docrisk-backend/internal/shared/util"
)

const (
	presignExpires   = 15 * time.Minute
	defaultNamespace = "documents"
	multipartSlack   = 1 << 20
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"text/plain":    {},
	"text/markdown": {},
}

// Handler serves upload endpoints. Presign is nil unless documents live in S3,
// in which case the presign route answers 501.
type Handler struct {
	Store   object.ObjectStore
	Presign *s3.PresignClient
	Bucket  string
	// KeyPrefix is the store's own key prefix inside Bucket.
	KeyPrefix      string
	Namespace      string
	MaxUploadBytes int64
}

type presignRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	MimeType    string `json:"mimeType"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes" binding:"required,gt=0"`
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	StorageKey       string `json:"storageKey"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

type uploadResponse struct {
	StorageKey string `json:"storageKey"`
	FileName   string `json:"fileName"`
	SizeBytes  int64  `json:"sizeBytes"`
	MimeType   string `json:"mimeType"`
}

// RegisterRoutes attaches upload routes when a store is configured.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	if h == nil || h.Store == nil {
		return
	}
	rg.POST("/uploads", h.upload)
	rg.POST("/uploads/presign", h.presign)
}

func (h *Handler) namespace() string {
	if ns := strings.Trim(strings.TrimSpace(h.Namespace), "/"); ns != "" {
		return ns
	}
	return defaultNamespace
}

func (h *Handler) upload(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartSlack)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload size limit", gin.H{"maxBytes": h.MaxUploadBytes})
			return
		}
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is required", nil)
		return
	}
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload size limit", gin.H{"maxBytes": h.MaxUploadBytes})
		return
	}
	fileName, err := util.SanitizeFileName(fh.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid file name", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "could not read uploaded file", nil)
		return
	}
	defer f.Close()

	// one namespace per client
	ns := path.Join(h.namespace(), middleware.ClientKeyFromContext(c))
	stored, err := h.Store.Save(c.Request.Context(), ns, fileName, f)
	if err != nil {
		telemetry.Error("uploads.save_failed", map[string]any{
			"error":      err.Error(),
			"request_id": middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to store upload", nil)
		return
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = stored.MimeType
	}
	respond.Created(c, uploadResponse{
		StorageKey: stored.Key,
		FileName:   fileName,
		SizeBytes:  stored.SizeBytes,
		MimeType:   mimeType,
	})
}

func (h *Handler) presign(c *gin.Context) {
	if h.Presign == nil {
		respond.Error(c, http.StatusNotImplemented, "NOT_IMPLEMENTED", "presigned uploads require OBJECT_STORE=s3", nil)
		return
	}
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "fileName, mimeType and sizeBytes are required", nil)
		return
	}

	declared := req.MimeType
	if strings.TrimSpace(declared) == "" {
		declared = req.ContentType
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if _, ok := allowedContentTypes[contentType]; !ok {
		respond.Error(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", "mimeType is not allowed", gin.H{
			"mimeType": declared,
		})
		return
	}
	if h.MaxUploadBytes > 0 && req.SizeBytes > h.MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "sizeBytes exceeds limit", gin.H{"maxBytes": h.MaxUploadBytes})
		return
	}
	sanitized, err := util.SanitizeFileName(strings.TrimSpace(req.FileName))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid fileName", nil)
		return
	}

	storageKey := path.Join(h.namespace(), util.HashKey(middleware.ClientKeyFromContext(c)), uuid.NewString()+"_"+sanitized)
	objectKey := objects3.ObjectKey(h.KeyPrefix, storageKey)

	out, err := h.Presign.PresignPutObject(c.Request.Context(), presignInput(h.Bucket, objectKey), func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		telemetry.Error("uploads.presign_failed", map[string]any{
			"error":        err.Error(),
			"bucket":       h.Bucket,
			"key":          objectKey,
			"content_type": contentType,
			"size_bytes":   req.SizeBytes,
			"request_id":   middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to generate upload url", nil)
		return
	}

	respond.JSON(c, http.StatusOK, presignResponse{
		UploadURL:        out.URL,
		StorageKey:       storageKey,
		ExpiresInSeconds: int64(presignExpires.Seconds()),
	})
}

func presignInput(bucket, key string) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
}
