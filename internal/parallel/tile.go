// Package parallel splits a frame into independent tiles and sweeps them
// on a work-stealing goroutine pool.
//
// Each tile covers a disjoint pixel rectangle, so workers writing their own
// tile into a shared frame buffer never touch the same bytes.
package parallel

// TileSize is the edge length of a full tile in pixels.
// 64×64 RGBA is 16KB, which keeps a tile's output in L1 cache.
const TileSize = 64

// Tile is a rectangular pixel region of a frame.
// Edge tiles may be smaller than TileSize.
type Tile struct {
	X, Y          int // top-left pixel
	Width, Height int
}

// Contains reports whether pixel (x, y) lies within the tile.
func (t Tile) Contains(x, y int) bool {
	return x >= t.X && x < t.X+t.Width && y >= t.Y && y < t.Y+t.Height
}

// Pixels returns the number of pixels in the tile.
func (t Tile) Pixels() int {
	return t.Width * t.Height
}

// Split divides a width × height frame into tiles of at most size × size
// pixels, in row-major order. A non-positive size means TileSize.
// An empty frame yields no tiles.
func Split(width, height, size int) []Tile {
	if width <= 0 || height <= 0 {
		return nil
	}
	if size <= 0 {
		size = TileSize
	}
	cols := (width + size - 1) / size
	rows := (height + size - 1) / size
	tiles := make([]Tile, 0, cols*rows)
	for ty := range rows {
		for tx := range cols {
			x, y := tx*size, ty*size
			tiles = append(tiles, Tile{
				X:      x,
				Y:      y,
				Width:  min(size, width-x),
				Height: min(size, height-y),
			})
		}
	}
	return tiles
}
