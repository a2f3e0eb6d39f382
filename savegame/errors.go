package savegame

import "fmt"

// VersionError is a save written by an unsupported format version
type VersionError struct {
	Got, Want int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("savegame: version %d not supported, want %d", e.Got, e.Want)
}

// CoordinateError is a cell outside the board or listed twice
type CoordinateError struct {
	X, Y int
	Size int
	Msg  string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("savegame: %s at (%d, %d) on a %dx%d board", e.Msg, e.X, e.Y, e.Size, e.Size)
}

// UnknownLotError is a lot kind not in the registry
type UnknownLotError struct {
	ID   int
	Name string
}

func (e *UnknownLotError) Error() string {
	return fmt.Sprintf("savegame: lot %d has unknown kind %q", e.ID, e.Name)
}

// TileError is a tile id or modifier that cannot belong to the saved board
type TileError struct {
	X, Y int
	Msg  string
}

func (e *TileError) Error() string {
	return fmt.Sprintf("savegame: tile (%d, %d): %s", e.X, e.Y, e.Msg)
}
