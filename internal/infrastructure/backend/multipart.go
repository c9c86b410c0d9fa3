package backend

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// EncodeMultipart re-encodes a parsed multipart form into a fresh body,
// field-for-field. The browser's original stream is never forwarded upstream
// because it may carry cookies and headers that must stay on this side.
func EncodeMultipart(form *multipart.Form) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for field, values := range form.Value {
		for _, v := range values {
			if err := w.WriteField(field, v); err != nil {
				return nil, "", fmt.Errorf("write field %q: %w", field, err)
			}
		}
	}
	for field, headers := range form.File {
		for _, fh := range headers {
			part, err := w.CreateFormFile(field, fh.Filename)
			if err != nil {
				return nil, "", fmt.Errorf("create file part %q: %w", field, err)
			}
			f, err := fh.Open()
			if err != nil {
				return nil, "", fmt.Errorf("open file part %q: %w", field, err)
			}
			_, err = io.Copy(part, f)
			f.Close()
			if err != nil {
				return nil, "", fmt.Errorf("copy file part %q: %w", field, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
