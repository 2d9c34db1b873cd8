package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"skillmart/cmd/server/testutil"
	"skillmart/internal/services/media"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const testMaxBytes = 1024

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) PresignUpload(ctx context.Context, req media.UploadRequest) (*media.PresignResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.PresignResponse), args.Error(1)
}

func (m *MockMediaService) Upload(ctx context.Context, req media.UploadRequest, body []byte) (*media.UploadResponse, error) {
	args := m.Called(ctx, req, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.UploadResponse), args.Error(1)
}

func (m *MockMediaService) Open(ctx context.Context, key string) (*media.Object, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.Object), args.Error(1)
}

func setupMediaTest(t *testing.T) (*fiber.App, *MockMediaService) {
	app := testutil.CreateTestApp(t)
	svc := new(MockMediaService)
	h := NewHandlers(svc, testutil.CreateTestValidator(t), testMaxBytes)

	api := app.Group("/api/user")
	api.Get("/image", h.Image)
	protected := api.Group("", testutil.FakeAuth())
	protected.Get("/upload-url", h.UploadURL)
	protected.Post("/upload-file", h.UploadFile)

	return app, svc
}

func TestUploadURL(t *testing.T) {
	app, svc := setupMediaTest(t)
	me := bson.NewObjectID().Hex()

	want := media.UploadRequest{Filename: "kitchen.jpg", ContentType: "image/jpeg"}
	svc.On("PresignUpload", mock.Anything, want).Return(&media.PresignResponse{
		URL:       "https://bucket.s3.amazonaws.com/uploads/k?X-Amz-Signature=abc",
		Key:       "uploads/k",
		PublicURL: "https://bucket.s3.amazonaws.com/uploads/k",
	}, nil)

	resp, err := app.Test(testutil.AsUser("GET", "/api/user/upload-url?filename=kitchen.jpg&contentType=image/jpeg", nil, me))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body media.PresignResponse
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "uploads/k", body.Key)
	assert.Contains(t, body.URL, "X-Amz-Signature")
}

func TestUploadURL_Errors(t *testing.T) {
	app, svc := setupMediaTest(t)
	me := bson.NewObjectID().Hex()

	resp, err := app.Test(testutil.AsUser("GET", "/api/user/upload-url?contentType=image/jpeg", nil, me))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "filename is required")

	svc.On("PresignUpload", mock.Anything, media.UploadRequest{Filename: "a.exe", ContentType: "application/x-msdownload"}).
		Return(nil, media.ErrUnsupportedType)
	resp, err = app.Test(testutil.AsUser("GET", "/api/user/upload-url?filename=a.exe&contentType=application/x-msdownload", nil, me))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	svc.On("PresignUpload", mock.Anything, media.UploadRequest{Filename: "b.png", ContentType: "image/png"}).
		Return(nil, media.ErrStorageUnavailable)
	resp, err = app.Test(testutil.AsUser("GET", "/api/user/upload-url?filename=b.png&contentType=image/png", nil, me))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(testutil.CreateJSONRequest("GET", "/api/user/upload-url?filename=b.png&contentType=image/png", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUploadFile(t *testing.T) {
	app, svc := setupMediaTest(t)
	me := bson.NewObjectID().Hex()

	svc.On("Upload", mock.Anything, media.UploadRequest{Filename: "cat.png", ContentType: "image/png"}, pngBytes).
		Return(&media.UploadResponse{Key: "uploads/x-cat.png", PublicURL: "https://cdn/uploads/x-cat.png"}, nil)

	req := testutil.CreateMultipartRequest(t, "/api/user/upload-file", "file", "cat.png", pngBytes)
	req.Header.Set("X-Test-User", me)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body media.UploadResponse
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "uploads/x-cat.png", body.Key)
	svc.AssertExpectations(t)
}

func TestUploadFile_Errors(t *testing.T) {
	app, svc := setupMediaTest(t)
	me := bson.NewObjectID().Hex()

	resp, err := app.Test(testutil.AsUser("POST", "/api/user/upload-file", nil, me))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "raw body without filename")

	big := bytes.Repeat([]byte{'a'}, testMaxBytes+1)
	req := testutil.CreateMultipartRequest(t, "/api/user/upload-file", "file", "big.png", big)
	req.Header.Set("X-Test-User", me)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	svc.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(nil, media.ErrContentMismatch)
	req = testutil.CreateMultipartRequest(t, "/api/user/upload-file?contentType=image/png", "file", "fake.png", []byte("<html></html>"))
	req.Header.Set("X-Test-User", me)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	svc.AssertNumberOfCalls(t, "Upload", 1)
}

func rawUpload(url, contentType, userID string, body []byte) *http.Request {
	req := httptest.NewRequest("POST", url, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Test-User", userID)
	return req
}

func TestUploadFile_RawBody(t *testing.T) {
	me := bson.NewObjectID().Hex()

	t.Run("declared type", func(t *testing.T) {
		app, svc := setupMediaTest(t)
		svc.On("Upload", mock.Anything, media.UploadRequest{Filename: "a.png", ContentType: "image/png"}, pngBytes).
			Return(&media.UploadResponse{Key: "uploads/x-a.png", PublicURL: "https://cdn/uploads/x-a.png"}, nil)

		resp, err := app.Test(rawUpload("/api/user/upload-file?filename=a.png&contentType=image/png", "image/png", me, pngBytes))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body media.UploadResponse
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, "uploads/x-a.png", body.Key)
		svc.AssertExpectations(t)
	})

	t.Run("type from request header", func(t *testing.T) {
		app, svc := setupMediaTest(t)
		svc.On("Upload", mock.Anything, media.UploadRequest{Filename: "b.png", ContentType: "image/png"}, pngBytes).
			Return(&media.UploadResponse{Key: "uploads/x-b.png"}, nil)

		resp, err := app.Test(rawUpload("/api/user/upload-file?filename=b.png", "image/png", me, pngBytes))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("octet-stream is sniffed", func(t *testing.T) {
		app, svc := setupMediaTest(t)
		svc.On("Upload", mock.Anything, media.UploadRequest{Filename: "c.png", ContentType: "image/png"}, pngBytes).
			Return(&media.UploadResponse{Key: "uploads/x-c.png"}, nil)

		resp, err := app.Test(rawUpload("/api/user/upload-file?filename=c.png", fiber.MIMEOctetStream, me, pngBytes))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("too large", func(t *testing.T) {
		app, svc := setupMediaTest(t)
		big := bytes.Repeat([]byte{'a'}, testMaxBytes+1)

		resp, err := app.Test(rawUpload("/api/user/upload-file?filename=big.png", "image/png", me, big))
		require.NoError(t, err)
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("filename required", func(t *testing.T) {
		app, svc := setupMediaTest(t)

		resp, err := app.Test(rawUpload("/api/user/upload-file?contentType=image/png", "image/png", me, pngBytes))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body map[string]string
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, media.ErrFilenameRequired.Error(), body["error"])
		svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestImage(t *testing.T) {
	app, svc := setupMediaTest(t)
	key := "uploads/01JX2Q8ZK3V5N7M9P1R3T5W7Y9-cat.png"

	svc.On("Open", mock.Anything, key).Return(&media.Object{
		Body:        io.NopCloser(bytes.NewReader(pngBytes)),
		ContentType: "image/png",
		Size:        int64(len(pngBytes)),
	}, nil)

	resp, err := app.Test(testutil.CreateJSONRequest("GET", "/api/user/image?key="+key, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, ImageCacheControl, resp.Header.Get("Cache-Control"))

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)
}

func TestImage_Errors(t *testing.T) {
	app, svc := setupMediaTest(t)

	svc.On("Open", mock.Anything, "").Return(nil, media.ErrInvalidKey)
	svc.On("Open", mock.Anything, "uploads/missing.png").Return(nil, media.ErrNotFound)

	resp, err := app.Test(testutil.CreateJSONRequest("GET", "/api/user/image", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(testutil.CreateJSONRequest("GET", "/api/user/image?key=uploads/missing.png", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "Image not found", body["error"])
}

func TestUploadContentType(t *testing.T) {
	app := fiber.New()
	var got []string
	app.Post("/", func(c *fiber.Ctx) error {
		got = append(got, uploadContentType(c, c.Get("X-Part-Type"), pngBytes))
		return nil
	})

	for _, tc := range []struct{ url, part string }{
		{"/?contentType=video/mp4", "image/png"},
		{"/", "image/webp"},
		{"/", fiber.MIMEOctetStream},
		{"/", ""},
	} {
		req, _ := http.NewRequest("POST", tc.url, nil)
		req.Header.Set("X-Part-Type", tc.part)
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"video/mp4", "image/webp", "image/png", "image/png"}, got)
}
