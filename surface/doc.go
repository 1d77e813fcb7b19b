// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides display surfaces for fractal.Renderer.
//
// A display surface receives each finished frame from the renderer's Tick.
// The renderer treats Present as a fire-and-forget handoff: errors are
// logged and rendering continues.
//
// # Surface Types
//
//   - ImageSurface: keeps a copy of the latest frame in memory
//   - PNGSurface: writes every frame to a numbered PNG file
//   - TextureSurface: uploads frames to a host GPU texture via gpucontext
//
// # Usage
//
//	s := surface.NewImageSurface()
//	r, err := fractal.NewRenderer(640, 480, fractal.WithDisplay(s))
//	...
//	_ = r.Tick(ctx)
//	img := s.Snapshot()
package surface
