package controller

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yunshang/merchant-admin-backend/internal/storage"
)

func setupUploadControllerTest(t *testing.T) *gin.Engine {
	s3Storage := storage.NewS3Storage("us-east-1", "test-bucket", "test-key", "test-secret", "")
	uploadController := NewUploadController(s3Storage)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	uploads := router.Group("/api/v1/uploads")
	{
		uploads.POST("/avatar/presign", uploadController.PresignAvatarUpload)
	}

	return router
}

func TestUploadController_PresignAvatarUpload(t *testing.T) {
	router := setupUploadControllerTest(t)

	w := postJSON(router, http.MethodPost, "/api/v1/uploads/avatar/presign", map[string]interface{}{
		"filename":     "avatar.png",
		"content_type": "image/png",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Ok        bool   `json:"ok"`
		UploadURL string `json:"upload_url"`
		FileURL   string `json:"file_url"`
		Key       string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Ok)
	assert.NotEmpty(t, resp.UploadURL)
	assert.True(t, strings.HasPrefix(resp.Key, "avatars/"))
	assert.True(t, strings.HasSuffix(resp.Key, ".png"))
}

func TestUploadController_PresignAvatarUpload_RejectsNonImage(t *testing.T) {
	router := setupUploadControllerTest(t)

	w := postJSON(router, http.MethodPost, "/api/v1/uploads/avatar/presign", map[string]interface{}{
		"filename":     "report.pdf",
		"content_type": "application/pdf",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Ok    bool   `json:"ok"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Ok)
	assert.Equal(t, "UPLOAD_INVALID_FILE_TYPE", resp.Error)
}

func TestUploadController_PresignAvatarUpload_MissingFields(t *testing.T) {
	router := setupUploadControllerTest(t)

	w := postJSON(router, http.MethodPost, "/api/v1/uploads/avatar/presign", map[string]interface{}{
		"filename": "avatar.png",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
