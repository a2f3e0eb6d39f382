// Package savegame converts a World to and from a flat versioned TOML document
// Only user data is stored: road cells with their tile ids, modifiers, lots and the seed.
// Cars and lights are transient and restart from the layout
package savegame

import (
	"fmt"
	"strconv"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/config"
	"github.com/lixenwraith/vi-traffic/engine"
	"github.com/lixenwraith/vi-traffic/toml"
)

// Version is the format written by Encode
const Version = 1

type file struct {
	Version int          `toml:"version"`
	Size    int          `toml:"size"`
	Seed    string       `toml:"seed"` // hex, uint64 exceeds the TOML integer range
	Tiles   []tileRecord `toml:"tiles"`
	Lots    []lotRecord  `toml:"lots"`
}

type tileRecord struct {
	X  int `toml:"x"`
	Y  int `toml:"y"`
	ID int `toml:"id"`

	Control     string `toml:"control,omitempty"`
	Orientation string `toml:"orientation,omitempty"`
	OneWay      string `toml:"one_way,omitempty"`
}

type lotRecord struct {
	ID        int    `toml:"id"`
	Kind      string `toml:"kind"`
	X         int    `toml:"x"`
	Y         int    `toml:"y"`
	Direction string `toml:"direction"`
}

// Encode writes the layout of w
func Encode(w *engine.World) ([]byte, error) {
	b := w.Board()
	f := file{
		Version: Version,
		Size:    b.Size(),
		Seed:    strconv.FormatUint(w.Seed(), 16),
	}

	for _, c := range b.Cells() {
		shape, _ := b.Shape(c)
		rec := tileRecord{X: c.X, Y: c.Y, ID: int(shape)}
		if m, ok := b.Modifier(c); ok {
			if m.HasControl {
				rec.Control = m.Control.Kind.String()
				rec.Orientation = m.Control.Orientation.String()
			}
			if m.Traffic.OneWay {
				rec.OneWay = m.Traffic.Direction.String()
			}
		}
		f.Tiles = append(f.Tiles, rec)
	}

	for _, l := range w.Lots() {
		f.Lots = append(f.Lots, lotRecord{
			ID:        int(l.ID),
			Kind:      l.Kind.Name,
			X:         l.Anchor.Cell.X,
			Y:         l.Anchor.Cell.Y,
			Direction: l.Anchor.Direction.String(),
		})
	}

	data, err := toml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("savegame: %w", err)
	}
	return data, nil
}

// Decode rebuilds a world from data; cfg supplies everything but the board size and seed
// A corrupt save yields an error and no world
func Decode(data []byte, cfg config.Config) (*engine.World, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("savegame: %w", err)
	}
	if f.Version != Version {
		return nil, &VersionError{Got: f.Version, Want: Version}
	}
	seed, err := strconv.ParseUint(f.Seed, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("savegame: seed %q: %w", f.Seed, err)
	}

	cfg.Board.Size = f.Size
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("savegame: %w", err)
	}

	b, err := decodeBoard(f)
	if err != nil {
		return nil, err
	}
	lots, err := decodeLots(f)
	if err != nil {
		return nil, err
	}

	w, err := engine.Restore(cfg, b, lots, seed)
	if err != nil {
		return nil, fmt.Errorf("savegame: %w", err)
	}
	return w, nil
}

func decodeBoard(f file) (*board.Board, error) {
	b := board.New(f.Size)
	for _, t := range f.Tiles {
		c := board.Cell{X: t.X, Y: t.Y}
		if !c.InBounds(f.Size) {
			return nil, &CoordinateError{X: t.X, Y: t.Y, Size: f.Size, Msg: "road outside the board"}
		}
		if b.Has(c) {
			return nil, &CoordinateError{X: t.X, Y: t.Y, Size: f.Size, Msg: "road listed twice"}
		}
		if t.ID < 0 || t.ID > int(board.MaxShape) {
			return nil, &TileError{X: t.X, Y: t.Y, Msg: fmt.Sprintf("id %d outside [0, %d]", t.ID, board.MaxShape)}
		}
		b.SetRoad(c)

		m, err := decodeModifier(t)
		if err != nil {
			return nil, err
		}
		if m != (board.Modifier{}) {
			b.SetModifier(c, m)
		}
	}

	// tile ids are derived from neighbors; a mismatch means the save was edited or truncated
	b.ApplyMask()
	for _, t := range f.Tiles {
		shape, _ := b.Shape(board.Cell{X: t.X, Y: t.Y})
		if int(shape) != t.ID {
			return nil, &TileError{X: t.X, Y: t.Y, Msg: fmt.Sprintf("id %d does not match its neighbors (%d)", t.ID, shape)}
		}
	}
	return b, nil
}

func decodeModifier(t tileRecord) (board.Modifier, error) {
	var m board.Modifier
	if t.Control != "" {
		kind, ok := board.ParseControlKind(t.Control)
		if !ok {
			return m, &TileError{X: t.X, Y: t.Y, Msg: fmt.Sprintf("unknown control %q", t.Control)}
		}
		var o board.Orientation
		if t.Orientation != "" {
			if o, ok = board.ParseOrientation(t.Orientation); !ok {
				return m, &TileError{X: t.X, Y: t.Y, Msg: fmt.Sprintf("unknown orientation %q", t.Orientation)}
			}
		}
		m.Control = board.Control{Kind: kind, Orientation: o}
		m.HasControl = true
	}
	if t.OneWay != "" {
		d, ok := board.ParseDirection(t.OneWay)
		if !ok {
			return m, &TileError{X: t.X, Y: t.Y, Msg: fmt.Sprintf("unknown one-way direction %q", t.OneWay)}
		}
		m.Traffic = board.TrafficDirection{OneWay: true, Direction: d}
	}
	return m, nil
}

func decodeLots(f file) ([]board.Lot, error) {
	lots := make([]board.Lot, 0, len(f.Lots))
	for _, r := range f.Lots {
		kind, ok := board.LotKindByName(r.Kind)
		if !ok {
			return nil, &UnknownLotError{ID: r.ID, Name: r.Kind}
		}
		c := board.Cell{X: r.X, Y: r.Y}
		if !c.InBounds(f.Size) {
			return nil, &CoordinateError{X: r.X, Y: r.Y, Size: f.Size, Msg: fmt.Sprintf("lot %d anchor outside the board", r.ID)}
		}
		d, ok := board.ParseDirection(r.Direction)
		if !ok {
			return nil, &CoordinateError{X: r.X, Y: r.Y, Size: f.Size, Msg: fmt.Sprintf("lot %d has unknown direction %q", r.ID, r.Direction)}
		}
		lots = append(lots, board.Lot{ID: board.LotID(r.ID), Kind: kind, Anchor: board.Anchor{Cell: c, Direction: d}})
	}
	return lots, nil
}
