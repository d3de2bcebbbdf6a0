package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yunshang/merchant-admin-backend/internal/errors"
	"github.com/yunshang/merchant-admin-backend/internal/middleware"
	"github.com/yunshang/merchant-admin-backend/internal/storage"
)

type UploadController struct {
	storage *storage.S3Storage
}

func NewUploadController(storage *storage.S3Storage) *UploadController {
	return &UploadController{
		storage: storage,
	}
}

type PresignAvatarRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// PresignAvatarUpload issues a presigned URL for uploading an account avatar
// POST /api/v1/uploads/avatar/presign
func (ctrl *UploadController) PresignAvatarUpload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PresignAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid presign request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请求数据格式错误")
		return
	}

	// Avatars are images only
	allowedTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
	}
	if err := ctrl.storage.ValidateContentType(req.ContentType, allowedTypes); err != nil {
		log.Warn("Invalid avatar content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "仅支持图片文件 (JPEG, PNG, GIF, WEBP)")
		return
	}

	response, err := ctrl.storage.PresignUpload(req.Filename, req.ContentType, "avatars")
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename":     req.Filename,
			"content_type": req.ContentType,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "上传链接生成失败")
		return
	}

	log.Info("Avatar upload URL generated", map[string]interface{}{
		"filename": req.Filename,
		"key":      response.Key,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"upload_url": response.UploadURL,
		"file_url":   response.FileURL,
		"key":        response.Key,
	})
}
