package parallel

import "testing"

func TestSplit(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		size          int
		wantTiles     int
	}{
		{"exact", 128, 64, 64, 2},
		{"edge tiles", 130, 65, 64, 6},
		{"default size", 200, 100, 0, 8},
		{"smaller than tile", 10, 10, 64, 1},
		{"empty width", 0, 10, 64, 0},
		{"empty height", 10, -1, 64, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := Split(tt.width, tt.height, tt.size)
			if len(tiles) != tt.wantTiles {
				t.Fatalf("Split(%d, %d, %d) = %d tiles, want %d",
					tt.width, tt.height, tt.size, len(tiles), tt.wantTiles)
			}
			total := 0
			for _, tile := range tiles {
				total += tile.Pixels()
			}
			if want := max(tt.width, 0) * max(tt.height, 0); len(tiles) > 0 && total != want {
				t.Errorf("tiles cover %d pixels, want %d", total, want)
			}
		})
	}
}

func TestSplit_RowMajor(t *testing.T) {
	tiles := Split(100, 100, 50)
	want := []Tile{
		{X: 0, Y: 0, Width: 50, Height: 50},
		{X: 50, Y: 0, Width: 50, Height: 50},
		{X: 0, Y: 50, Width: 50, Height: 50},
		{X: 50, Y: 50, Width: 50, Height: 50},
	}
	for i := range want {
		if tiles[i] != want[i] {
			t.Errorf("tiles[%d] = %+v, want %+v", i, tiles[i], want[i])
		}
	}
}

func TestTile_Contains(t *testing.T) {
	tile := Tile{X: 64, Y: 0, Width: 6, Height: 64}

	tests := []struct {
		x, y int
		want bool
	}{
		{64, 0, true},
		{69, 63, true},
		{70, 0, false},
		{63, 10, false},
		{64, 64, false},
	}
	for _, tt := range tests {
		if got := tile.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}
