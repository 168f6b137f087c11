package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"store-api/internal/apperr"
	"store-api/internal/auth"
	"store-api/internal/respond"
)

const maxUploadSizeBytes = 10 << 20

type ImageUploader interface {
	UploadImage(ctx context.Context, imageSource string) (string, error)
}

type UploadHandler struct {
	uploader ImageUploader
}

// NewUploadHandler accepts a nil uploader; the endpoint then answers 503.
func NewUploadHandler(uploader ImageUploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

func (h *UploadHandler) Routes(mux *http.ServeMux, gate *auth.Gate) {
	mux.Handle("POST /api/v1/media/upload", gate.Require(auth.RequireAdmin(http.HandlerFunc(h.Upload))))
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		respond.Fail(w, http.StatusServiceUnavailable, "image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSizeBytes+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSizeBytes); err != nil {
		respond.Error(w, apperr.Validation("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, apperr.Validation("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
	if err != nil {
		respond.Error(w, apperr.Validation("failed to read file"))
		return
	}
	switch {
	case len(data) == 0:
		respond.Error(w, apperr.Validation("file is empty"))
		return
	case len(data) > maxUploadSizeBytes:
		respond.Error(w, apperr.Validation("file is too large"))
		return
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		respond.Error(w, apperr.Validation("file must be an image"))
		return
	}

	source := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	secureURL, err := h.uploader.UploadImage(r.Context(), source)
	if err != nil {
		sentry.CaptureException(err)
		respond.Fail(w, http.StatusBadGateway, "failed to upload image")
		return
	}

	respond.JSON(w, http.StatusOK, "image uploaded successfully", map[string]any{"secure_url": secureURL})
}
