package media

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"skillmart/cmd/server/handlers/handlerutil"
	"skillmart/cmd/server/handlers/httperr"
	"skillmart/internal/logger"
	"skillmart/internal/services/media"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ImageCacheControl is sent with every proxied object. Keys are never reused.
const ImageCacheControl = "public, max-age=31536000, immutable"

var errFileRequired = errors.New("file is required")

// MediaService is what the upload routes need from the media service
type MediaService interface {
	PresignUpload(ctx context.Context, req media.UploadRequest) (*media.PresignResponse, error)
	Upload(ctx context.Context, req media.UploadRequest, body []byte) (*media.UploadResponse, error)
	Open(ctx context.Context, key string) (*media.Object, error)
}

// Handlers contains the media HTTP handlers
type Handlers struct {
	svc       MediaService
	validator *validator.Validate
	maxBytes  int
}

// NewHandlers creates new media handlers. maxBytes bounds how much of an
// uploaded file is read into memory.
func NewHandlers(svc MediaService, v *validator.Validate, maxBytes int) *Handlers {
	return &Handlers{svc: svc, validator: v, maxBytes: maxBytes}
}

// UploadURL issues a presigned PUT URL
// @Summary Presigned upload URL
// @Description The client PUTs the file to url with the same Content-Type, then stores publicUrl on its profile.
// @Tags media
// @Produce json
// @Security Bearer
// @Param filename query string true "Original file name"
// @Param contentType query string true "MIME type"
// @Success 200 {object} media.PresignResponse
// @Failure 400 {object} httperr.E
// @Failure 503 {object} httperr.E
// @Router /upload-url [get]
func (h *Handlers) UploadURL(c *fiber.Ctx) error {
	var req media.UploadRequest
	if err := handlerutil.ParseAndValidateQuery(c, &req, h.validator, "UploadURL"); err != nil {
		return err
	}

	resp, err := h.svc.PresignUpload(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "UploadURL", "filename", req.Filename)
	}
	return c.JSON(resp)
}

// UploadFile stores a file through the server. The body is either the raw
// bytes, named by the filename query, or a multipart form with a file part.
// @Summary Upload a file
// @Tags media
// @Accept octet-stream
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param filename query string false "File name, required for a raw body"
// @Param contentType query string false "MIME type, defaults to the request or part Content-Type"
// @Param file formData file false "Image or video, for multipart uploads"
// @Success 200 {object} media.UploadResponse
// @Failure 400 {object} httperr.E
// @Failure 413 {object} httperr.E
// @Failure 503 {object} httperr.E
// @Router /upload-file [post]
func (h *Handlers) UploadFile(c *fiber.Ctx) error {
	if isMultipart(c) {
		return h.uploadMultipart(c)
	}
	return h.uploadRaw(c)
}

func (h *Handlers) uploadRaw(c *fiber.Ctx) error {
	filename := strings.TrimSpace(c.Query("filename"))
	if filename == "" {
		logger.L().Warn("raw upload without filename", "handler", "UploadFile")
		return httperr.BadRequest(media.ErrFilenameRequired)
	}

	body := c.Body()
	if len(body) > h.maxBytes {
		return httperr.Fail(httperr.ErrPayloadTooLarge)
	}

	req := media.UploadRequest{Filename: filename, ContentType: uploadContentType(c, c.Get(fiber.HeaderContentType), body)}
	resp, err := h.svc.Upload(c.UserContext(), req, body)
	if err != nil {
		return handlerutil.ServiceError(err, "UploadFile", "filename", filename, "size", len(body))
	}
	return c.JSON(resp)
}

func (h *Handlers) uploadMultipart(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		logger.L().Warn("missing upload file", "handler", "UploadFile", "error", err)
		return httperr.BadRequest(errFileRequired)
	}
	if fh.Size > int64(h.maxBytes) {
		return httperr.Fail(httperr.ErrPayloadTooLarge)
	}

	f, err := fh.Open()
	if err != nil {
		logger.L().Error("failed to open upload", "handler", "UploadFile", "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}
	defer func() { _ = f.Close() }()

	body, err := io.ReadAll(io.LimitReader(f, int64(h.maxBytes)+1))
	if err != nil {
		logger.L().Error("failed to read upload", "handler", "UploadFile", "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	filename := fh.Filename
	if q := strings.TrimSpace(c.Query("filename")); q != "" {
		filename = q
	}

	req := media.UploadRequest{Filename: filename, ContentType: uploadContentType(c, fh.Header.Get(fiber.HeaderContentType), body)}
	resp, err := h.svc.Upload(c.UserContext(), req, body)
	if err != nil {
		return handlerutil.ServiceError(err, "UploadFile", "filename", filename, "size", fh.Size)
	}
	return c.JSON(resp)
}

func isMultipart(c *fiber.Ctx) bool {
	mt, _, err := mime.ParseMediaType(c.Get(fiber.HeaderContentType))
	return err == nil && mt == fiber.MIMEMultipartForm
}

// Image streams a stored object
// @Summary Fetch an uploaded object
// @Tags media
// @Produce octet-stream
// @Param key query string true "Object key under uploads/"
// @Success 200 {file} binary
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /image [get]
func (h *Handlers) Image(c *fiber.Ctx) error {
	key := c.Query("key")
	obj, err := h.svc.Open(c.UserContext(), key)
	if err != nil {
		return handlerutil.ServiceError(err, "Image", "key", key)
	}

	if obj.ContentType != "" {
		c.Set(fiber.HeaderContentType, obj.ContentType)
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	}
	c.Set(fiber.HeaderCacheControl, ImageCacheControl)

	size := -1
	if obj.Size > 0 {
		size = int(obj.Size)
	}
	// fasthttp closes the body once it has been written
	return c.SendStream(obj.Body, size)
}

// uploadContentType prefers an explicit contentType query, then the request or
// part header, then sniffing. Browsers often label files application/octet-stream.
func uploadContentType(c *fiber.Ctx, partType string, body []byte) string {
	if ct := c.Query("contentType"); ct != "" {
		return ct
	}
	if partType != "" && partType != fiber.MIMEOctetStream {
		return partType
	}
	return http.DetectContentType(body)
}
