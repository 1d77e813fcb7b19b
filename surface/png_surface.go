// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/fractal"
)

// ErrInvalidScale is returned by NewPNGSurface for a scale below 1.
var ErrInvalidScale = errors.New("surface: scale must be at least 1")

// PNGSurface writes each presented frame to dir/prefix-NNNN.png.
// With a scale above 1 frames are enlarged by nearest-neighbour sampling
// before encoding.
type PNGSurface struct {
	mu     sync.Mutex
	dir    string
	prefix string
	scale  int
	frames int
	last   string
}

var _ fractal.DisplaySurface = (*PNGSurface)(nil)

// NewPNGSurface creates dir if needed and returns a surface writing into it.
func NewPNGSurface(dir, prefix string, scale int) (*PNGSurface, error) {
	if scale < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScale, scale)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("surface: create output dir: %w", err)
	}
	if prefix == "" {
		prefix = "frame"
	}
	return &PNGSurface{dir: dir, prefix: prefix, scale: scale}, nil
}

// Present implements fractal.DisplaySurface.
func (s *PNGSurface) Present(frame *fractal.Pixmap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, fmt.Sprintf("%s-%04d.png", s.prefix, s.frames))
	if err := s.write(path, frame); err != nil {
		return fmt.Errorf("surface: write %s: %w", path, err)
	}
	s.frames++
	s.last = path
	return nil
}

func (s *PNGSurface) write(path string, frame *fractal.Pixmap) error {
	if s.scale == 1 {
		return frame.SavePNG(path)
	}
	f, err := os.Create(path) //nolint:gosec // path is built from caller-supplied dir
	if err != nil {
		return err
	}
	img := frame.Scaled(frame.Width()*s.scale, frame.Height()*s.scale)
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Frames returns the number of frames written.
func (s *PNGSurface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// LastPath returns the file written by the latest Present, or "".
func (s *PNGSurface) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
