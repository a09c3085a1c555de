// Package upload validates user-supplied files by content, not by name.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	WebP = "image/webp"
)

var (
	ErrEmpty           = errors.New("file is empty")
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrUndecodable     = errors.New("image could not be read")
	ErrDimensions      = errors.New("image dimensions are out of range")
)

// File is an uploaded file that can be opened more than once.
type File struct {
	Name string
	Size int64
	open func() (io.ReadCloser, error)
}

func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, ErrEmpty
	}
	return f.open()
}

// FromMultipart wraps a multipart file header.
func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Name: fh.Filename,
		Size: fh.Size,
		open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// FromBytes wraps an in-memory payload.
func FromBytes(name string, b []byte) File {
	return File{
		Name: name,
		Size: int64(len(b)),
		open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil },
	}
}

// ImagePolicy bounds what counts as an acceptable image.
type ImagePolicy struct {
	MaxBytes  int64
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
	// Allowed holds MIME types; empty means jpeg, png and webp.
	Allowed []string
}

// Image is a validated image held in memory.
type Image struct {
	Name        string
	ContentType string
	Ext         string
	Width       int
	Height      int
	Size        int64
	data        []byte
}

func (i *Image) Reader() io.Reader { return bytes.NewReader(i.data) }

// Validate reads f, sniffs its real type and checks its dimensions from the header.
func (p ImagePolicy) Validate(f File) (*Image, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	r := io.Reader(rc)
	if p.MaxBytes > 0 {
		r = io.LimitReader(rc, p.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return nil, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !p.allows(mt) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUndecodable
	}
	if cfg.Width < p.MinWidth || cfg.Height < p.MinHeight ||
		(p.MaxWidth > 0 && cfg.Width > p.MaxWidth) ||
		(p.MaxHeight > 0 && cfg.Height > p.MaxHeight) {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, cfg.Width, cfg.Height)
	}

	return &Image{
		Name:        f.Name,
		ContentType: baseType(mt),
		Ext:         mt.Extension(),
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        int64(len(data)),
		data:        data,
	}, nil
}

func (p ImagePolicy) allows(mt *mimetype.MIME) bool {
	allowed := p.Allowed
	if len(allowed) == 0 {
		allowed = []string{JPEG, PNG, WebP}
	}
	for _, a := range allowed {
		if mt.Is(a) {
			return true
		}
	}
	return false
}

func baseType(mt *mimetype.MIME) string {
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is(JPEG):
			return JPEG
		case m.Is(PNG):
			return PNG
		case m.Is(WebP):
			return WebP
		}
	}
	return mt.String()
}
