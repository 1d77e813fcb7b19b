package fractal

// DisplaySurface receives finished frames. Present is a fire-and-forget
// handoff: the Renderer logs a returned error and keeps going.
//
// The frame is only valid for the duration of the call; implementations
// that keep it must copy it.
type DisplaySurface interface {
	Present(frame *Pixmap) error
}
