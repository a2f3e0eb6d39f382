package savegame

import (
	"errors"
	"strings"
	"testing"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/config"
	"github.com/lixenwraith/vi-traffic/engine"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Board.Size = 6
	cfg.Board.Seed = 0xDEADBEEFCAFEF00D
	return cfg
}

func sampleWorld(t *testing.T) *engine.World {
	t.Helper()
	w, err := engine.NewWorld(testConfig())
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	cells := []board.Cell{
		{X: 1, Y: 3}, {X: 2, Y: 3}, {X: 3, Y: 3}, {X: 4, Y: 3}, {X: 5, Y: 3},
		{X: 3, Y: 1}, {X: 3, Y: 2}, {X: 3, Y: 4}, {X: 3, Y: 5},
	}
	if n := w.PlaceRoads(cells); n != len(cells) {
		t.Fatalf("placed %d of %d roads", n, len(cells))
	}
	w.ToggleIntersectionControl(board.Cell{X: 3, Y: 3})
	if !w.ToggleTrafficDirection(board.Cell{X: 4, Y: 3}) {
		t.Fatal("one-way toggle rejected")
	}

	shop, _ := board.LotKindByName("shop")
	if _, ok := w.AddLot(shop, board.Anchor{Cell: board.Cell{X: 2, Y: 3}, Direction: board.Down}); !ok {
		t.Fatal("shop rejected")
	}
	return w
}

func TestRoundTrip(t *testing.T) {
	w := sampleWorld(t)
	data, err := Encode(w)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	t.Logf("save:\n%s", data)

	got, err := Decode(data, config.Default())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Board().Equal(w.Board()) {
		t.Error("board differs after round trip")
	}
	if got.Seed() != w.Seed() {
		t.Errorf("seed %x, want %x", got.Seed(), w.Seed())
	}
	wantLots, gotLots := w.Lots(), got.Lots()
	if len(gotLots) != len(wantLots) {
		t.Fatalf("%d lots, want %d", len(gotLots), len(wantLots))
	}
	for i := range wantLots {
		if gotLots[i] != wantLots[i] {
			t.Errorf("lot %d: %+v, want %+v", i, gotLots[i], wantLots[i])
		}
	}
	if got.Network().Len() != w.Network().Len() || got.Network().EdgeCount() != w.Network().EdgeCount() {
		t.Errorf("network %d/%d, want %d/%d", got.Network().Len(), got.Network().EdgeCount(),
			w.Network().Len(), w.Network().EdgeCount())
	}
}

func TestDecode_Errors(t *testing.T) {
	const base = `
version = 1
size = 4
seed = "2a"

[[tiles]]
x = 1
y = 2
id = 4

[[tiles]]
x = 2
y = 2
id = 2
`
	tests := []struct {
		name   string
		data   string
		target any
	}{
		{"version", strings.Replace(base, "version = 1", "version = 7", 1), new(*VersionError)},
		{"tile outside", strings.Replace(base, "x = 2", "x = 5", 1), new(*CoordinateError)},
		{"duplicate tile", strings.Replace(base, "x = 2", "x = 1", 1), new(*CoordinateError)},
		{"tile id range", strings.Replace(base, "id = 2", "id = 16", 1), new(*TileError)},
		{"tile id mismatch", strings.Replace(base, "id = 2", "id = 3", 1), new(*TileError)},
		{"bad control", base + "control = \"roundabout\"\n", new(*TileError)},
		{"unknown lot", base + "\n[[lots]]\nid = 1\nkind = \"castle\"\nx = 1\ny = 2\ndirection = \"up\"\n", new(*UnknownLotError)},
		{"lot outside", base + "\n[[lots]]\nid = 1\nkind = \"house\"\nx = 0\ny = 2\ndirection = \"up\"\n", new(*CoordinateError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Decode([]byte(tt.data), config.Default())
			if err == nil {
				t.Fatal("corrupt save decoded")
			}
			if w != nil {
				t.Error("corrupt save returned a world")
			}
			if !errors.As(err, tt.target) {
				t.Errorf("error %T %q is not %T", err, err, tt.target)
			}
		})
	}

	if _, err := Decode([]byte(base), config.Default()); err != nil {
		t.Fatalf("base document rejected: %v", err)
	}
}

func TestDecode_InvalidLotIsRejected(t *testing.T) {
	data := `
version = 1
size = 4
seed = "1"

[[tiles]]
x = 2
y = 2
id = 0

[[lots]]
id = 3
kind = "house"
x = 2
y = 2
direction = "up"
`
	_, err := Decode([]byte(data), config.Default())
	if err == nil || !strings.Contains(err.Error(), "does not fit") {
		t.Fatalf("lot beside an isolated road: %v", err)
	}
}
