package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	source string
	err    error
}

func (u *stubUploader) UploadImage(_ context.Context, source string) (string, error) {
	u.source = source
	if u.err != nil {
		return "", u.err
	}
	return "https://res.cloudinary.com/demo/img.png", nil
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func multipartRequest(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="img.png"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(h *UploadHandler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestUploadReturnsSecureURL(t *testing.T) {
	uploader := &stubUploader{}
	rec, body := serve(NewUploadHandler(uploader), multipartRequest(t, "", pngHeader))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://res.cloudinary.com/demo/img.png", body["secure_url"])
	assert.True(t, strings.HasPrefix(uploader.source, "data:image/png;base64,"))
}

func TestUploadWithoutUploader(t *testing.T) {
	rec, _ := serve(NewUploadHandler(nil), multipartRequest(t, "", pngHeader))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUploadRejectsBadInput(t *testing.T) {
	h := NewUploadHandler(&stubUploader{})

	rec, body := serve(h, multipartRequest(t, "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file is required", body["message"])

	rec, body = serve(h, multipartRequest(t, "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file must be an image", body["message"])

	rec, _ = serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", strings.NewReader("{}")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadUpstreamFailure(t *testing.T) {
	rec, body := serve(NewUploadHandler(&stubUploader{err: errors.New("timeout")}), multipartRequest(t, "image/png", pngHeader))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to upload image", body["message"])
}
