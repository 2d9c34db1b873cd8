package media

import "errors"

// ErrStorageUnavailable is returned by every operation when no object store is configured.
var ErrStorageUnavailable = errors.New("object storage is not configured")

// ErrFilenameRequired is returned for an empty filename.
var ErrFilenameRequired = errors.New("filename is required")

// ErrUnsupportedType is returned for content types outside the allow list.
var ErrUnsupportedType = errors.New("unsupported content type")

// ErrContentMismatch is returned when uploaded bytes do not look like the declared type.
var ErrContentMismatch = errors.New("file content does not match content type")

// ErrEmptyFile is returned for a zero-length proxy upload.
var ErrEmptyFile = errors.New("file is empty")

// ErrTooLarge is returned when a proxy upload exceeds the size ceiling.
var ErrTooLarge = errors.New("file exceeds upload size limit")

// ErrInvalidKey is returned for keys outside the upload prefix.
var ErrInvalidKey = errors.New("invalid key")

// ErrNotFound is returned when the object does not exist.
var ErrNotFound = errors.New("Image not found")

// ErrUpstream is returned for object store failures.
var ErrUpstream = errors.New("object storage request failed")
