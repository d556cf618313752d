// Package media moves user images to the remote image host and back out.
package media

import (
	"context"
	"errors"
	"io"
)

var (
	ErrUpload = errors.New("upload failed")
	ErrNoFile = errors.New("no image file in request")
	ErrTooBig = errors.New("upload exceeds size limit")
)

// Object is an image ready to be stored.
type Object struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

// Asset is what the host hands back: a public URL and the handle needed to
// delete it later.
type Asset struct {
	URL    string `json:"secure_url"`
	Handle string `json:"public_id"`
}

type Host interface {
	Upload(ctx context.Context, obj Object) (Asset, error)
	Delete(ctx context.Context, handle string) error
}
