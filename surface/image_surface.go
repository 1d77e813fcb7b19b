// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"sync"

	"github.com/gogpu/fractal"
)

// ImageSurface keeps a copy of the most recently presented frame.
//
// ImageSurface is safe for concurrent use: the renderer presents from its
// tick goroutine while a host reads snapshots from another.
type ImageSurface struct {
	mu     sync.Mutex
	img    *image.RGBA
	frames int
}

var _ fractal.DisplaySurface = (*ImageSurface)(nil)

// NewImageSurface creates an empty surface.
func NewImageSurface() *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, 0, 0))}
}

// Present implements fractal.DisplaySurface.
func (s *ImageSurface) Present(frame *fractal.Pixmap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.img.Bounds() != frame.Bounds() {
		s.img = image.NewRGBA(frame.Bounds())
	}
	copy(s.img.Pix, frame.Data())
	s.frames++
	return nil
}

// Snapshot returns a copy of the latest frame. It is empty before the
// first Present.
func (s *ImageSurface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Frames returns the number of frames presented so far.
func (s *ImageSurface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
