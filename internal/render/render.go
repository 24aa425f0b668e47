// Package render provides graphics backends that receive decoded frames.
//
// Real GPU upload is outside this module. Software turns level 0 of each
// frame into an RGBA image so it can be inspected or exported, and Null only
// counts calls.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/draw"

	"github.com/smazurov/ddsmovie/pkg/dds"
)

// ErrNoFrame is returned when nothing has been uploaded yet.
var ErrNoFrame = errors.New("render: no frame uploaded")

// SnapshotFormat selects the encoding of a snapshot.
type SnapshotFormat string

// Snapshot encodings.
const (
	SnapshotPNG  SnapshotFormat = "png"
	SnapshotJPEG SnapshotFormat = "jpeg"
)

// Software decompresses the first surface of each uploaded frame.
type Software struct {
	mu      sync.RWMutex
	current *image.NRGBA
	uploads uint64
	draws   uint64
}

// NewSoftware creates an empty software backend.
func NewSoftware() *Software {
	return &Software{}
}

// Upload decompresses level 0 of layer 0. For cubemaps this is the +X face.
func (s *Software) Upload(img *dds.Image) error {
	surface, ok := img.Surface(0, 0)
	if !ok {
		return fmt.Errorf("upload: image has no surfaces")
	}
	rgba, err := dds.DecodeSurface(img, surface)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	s.mu.Lock()
	s.current = rgba
	s.uploads++
	s.mu.Unlock()
	return nil
}

// Draw records a draw of the current frame.
func (s *Software) Draw() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoFrame
	}
	s.draws++
	return nil
}

// Current returns the last uploaded frame. The image must not be modified.
func (s *Software) Current() (*image.NRGBA, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Stats returns the upload and draw counts.
func (s *Software) Stats() (uploads, draws uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploads, s.draws
}

// Snapshot encodes the current frame, scaled down to fit maxWidth when it is
// positive.
func (s *Software) Snapshot(w io.Writer, format SnapshotFormat, maxWidth, quality int) error {
	src, ok := s.Current()
	if !ok {
		return ErrNoFrame
	}
	return Encode(w, Fit(src, maxWidth), format, quality)
}

// Fit scales img down to maxWidth keeping its aspect ratio. Images already
// narrow enough are returned unchanged.
func Fit(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	height := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Encode writes img in the requested format.
func Encode(w io.Writer, img image.Image, format SnapshotFormat, quality int) error {
	switch format {
	case SnapshotPNG, "":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode PNG: %w", err)
		}
	case SnapshotJPEG:
		if quality <= 0 {
			quality = 85
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encode JPEG: %w", err)
		}
	default:
		return fmt.Errorf("unsupported snapshot format: %s", format)
	}
	return nil
}

// Null accepts every frame and only counts calls.
type Null struct {
	mu      sync.Mutex
	uploads uint64
	draws   uint64
	last    *dds.Image
}

// Upload records the frame.
func (n *Null) Upload(img *dds.Image) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.uploads++
	n.last = img
	return nil
}

// Draw records a draw.
func (n *Null) Draw() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.draws++
	return nil
}

// Stats returns the upload and draw counts.
func (n *Null) Stats() (uploads, draws uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.uploads, n.draws
}

// Last returns the most recently uploaded image.
func (n *Null) Last() *dds.Image {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}
