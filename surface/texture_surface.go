// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/fractal"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Common errors returned by TextureSurface.
var (
	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("surface: nil DeviceProvider")

	// ErrNilCreator is returned when no texture creation func is passed.
	ErrNilCreator = errors.New("surface: nil texture creator")

	// ErrSurfaceClosed is returned by Present after Close.
	ErrSurfaceClosed = errors.New("surface: surface is closed")
)

// CreateTextureFunc creates a host texture from tightly packed pixel data in
// the provider's surface format. It usually wraps the host's
// NewTextureFromRGBA.
type CreateTextureFunc func(width, height int, data []byte) (any, error)

// textureDestroyer matches the host texture's Destroy method.
type textureDestroyer interface {
	Destroy()
}

// TextureSurface uploads frames to a GPU texture owned by a host window.
//
// The texture is created lazily on the first Present and recreated when the
// frame size changes. Later frames of the same size are uploaded in place
// when the texture implements gpucontext.TextureUpdater. Frames are
// swizzled to BGRA when the provider's surface format asks for it.
type TextureSurface struct {
	mu       sync.Mutex
	provider gpucontext.DeviceProvider
	create   CreateTextureFunc
	texture  any
	width    int
	height   int
	scratch  []byte
	uploads  int
	closed   bool
}

var _ fractal.DisplaySurface = (*TextureSurface)(nil)

// NewTextureSurface creates a surface for the given host device.
func NewTextureSurface(provider gpucontext.DeviceProvider, create CreateTextureFunc) (*TextureSurface, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if create == nil {
		return nil, ErrNilCreator
	}
	return &TextureSurface{provider: provider, create: create}, nil
}

// Present implements fractal.DisplaySurface.
func (s *TextureSurface) Present(frame *fractal.Pixmap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSurfaceClosed
	}
	data := s.convert(frame.Data())

	if s.texture != nil && s.width == frame.Width() && s.height == frame.Height() {
		if updater, ok := s.texture.(gpucontext.TextureUpdater); ok {
			if err := updater.UpdateData(data); err != nil {
				return fmt.Errorf("surface: texture update failed: %w", err)
			}
			s.uploads++
			return nil
		}
	}

	tex, err := s.create(frame.Width(), frame.Height(), data)
	if err != nil {
		return fmt.Errorf("surface: texture creation failed: %w", err)
	}
	s.destroyTexture()
	s.texture = tex
	s.width, s.height = frame.Width(), frame.Height()
	s.uploads++
	return nil
}

// convert returns data in the provider's surface format. RGBA data is
// returned as is; BGRA is produced in a reused scratch buffer.
func (s *TextureSurface) convert(data []byte) []byte {
	if s.provider.SurfaceFormat() != gputypes.TextureFormatBGRA8Unorm {
		return data
	}
	if len(s.scratch) != len(data) {
		s.scratch = make([]byte, len(data))
	}
	for i := 0; i+3 < len(data); i += 4 {
		s.scratch[i+0] = data[i+2]
		s.scratch[i+1] = data[i+1]
		s.scratch[i+2] = data[i+0]
		s.scratch[i+3] = data[i+3]
	}
	return s.scratch
}

// Texture returns the current host texture, or nil before the first Present.
func (s *TextureSurface) Texture() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.texture
}

// Uploads returns the number of frames uploaded.
func (s *TextureSurface) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// Provider returns the DeviceProvider, or nil after Close.
func (s *TextureSurface) Provider() gpucontext.DeviceProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.provider
}

// Close destroys the texture. Close is idempotent.
func (s *TextureSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.destroyTexture()
	s.provider = nil
	return nil
}

func (s *TextureSurface) destroyTexture() {
	if s.texture == nil {
		return
	}
	if d, ok := s.texture.(textureDestroyer); ok {
		d.Destroy()
	}
	s.texture = nil
}
