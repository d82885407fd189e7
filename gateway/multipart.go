package gateway

import (
	"bytes"
	"fmt"
	"mime/multipart"
)

// MultipartBody is a fully assembled multipart/form-data payload. The
// gateway passes it through unmodified: the content type carries the
// boundary generated by the multipart writer, so no encoding override
// is applied.
type MultipartBody struct {
	payload     []byte
	contentType string
}

// ContentType returns the boundary-bearing content type
func (m *MultipartBody) ContentType() string {
	return m.contentType
}

// FormFile is one file part of a multipart submission
type FormFile struct {
	Field   string
	Name    string
	Content []byte
}

// NewMultipartForm assembles a multipart/form-data body from plain
// fields and file parts. Used by the admin product flows for image
// uploads.
func NewMultipartForm(fields map[string]string, files ...FormFile) (*MultipartBody, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for field, value := range fields {
		if err := writer.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %q: %w", field, err)
		}
	}

	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create file part %q: %w", file.Field, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, fmt.Errorf("failed to write file part %q: %w", file.Field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &MultipartBody{
		payload:     buf.Bytes(),
		contentType: writer.FormDataContentType(),
	}, nil
}
