package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/config"
	"github.com/lixenwraith/vi-traffic/engine"
	"github.com/lixenwraith/vi-traffic/savegame"
)

var (
	configPath = flag.String("config", "", "config file (default: config/vi-traffic.toml, then built-in)")
	loadPath   = flag.String("load", "", "savegame to load")
	savePath   = flag.String("save", "vi-traffic.save.toml", "savegame written by the save key")
	seedFlag   = flag.Uint64("seed", 0, "random seed, overrides the config when non-zero")
	debugFlag  = flag.Bool("debug", false, "write a debug log to logs/")
)

func main() {
	flag.Parse()

	if f := setupLogging(*debugFlag); f != nil {
		defer f.Close()
	}

	cfg, source, err := config.LoadAuto(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vi-traffic: %v\n", err)
		os.Exit(1)
	}
	log.Printf("config loaded from %s", source)
	if *seedFlag != 0 {
		cfg.Board.Seed = *seedFlag
	}

	w, err := loadWorld(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vi-traffic: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vi-traffic: terminal: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "vi-traffic: terminal: %v\n", err)
		os.Exit(1)
	}

	// Restore the terminal before printing a crash
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "vi-traffic crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()
	defer screen.Fini()

	run(screen, w)
}

func loadWorld(cfg config.Config) (*engine.World, error) {
	if *loadPath != "" {
		data, err := os.ReadFile(*loadPath)
		if err != nil {
			return nil, err
		}
		w, err := savegame.Decode(data, cfg)
		if err != nil {
			return nil, err
		}
		log.Printf("world loaded from %s", *loadPath)
		return w, nil
	}

	w, err := engine.NewWorld(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Board.Town {
		engine.GenerateTown(w, cfg.Board.Seed)
	}
	return w, nil
}

// run owns the terminal; the scheduler goroutine owns the world
func run(screen tcell.Screen, w *engine.World) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := w.Config()
	size := cfg.Board.Size
	v := newViewer(screen, w.Status())
	sched := engine.NewScheduler(nil, cfg.Tick.Traffic, cfg.Tick.Environment)

	frames := make(chan frame, 1)
	var overlay atomic.Bool
	var results outcome

	done := make(chan error, 1)
	go func() {
		done <- sched.Run(ctx, w, func(w *engine.World) {
			if len(frames) == 0 {
				frames <- snapshot(w, overlay.Load())
			}
		})
	}()

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	// edit queues a world command; the outcome reaches the status line with a later frame
	edit := func(name string, fn func(*engine.World) bool) {
		c := v.cursor
		sched.Do(ctx, func(w *engine.World) {
			if !fn(w) {
				log.Printf("%s at %v rejected", name, c)
				results.report(name + " rejected")
				return
			}
			results.report(name)
		})
		v.message = name + "..."
	}

	last := frame{size: size}
	for {
		select {
		case f := <-frames:
			last = f
			if msg, ok := results.take(); ok {
				v.message = msg
			}
			v.draw(last)

		case err := <-done:
			if err != nil && ctx.Err() == nil {
				log.Printf("scheduler stopped: %v", err)
			}
			return

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				v.draw(last)

			case *tcell.EventKey:
				switch ev.Key() {
				case tcell.KeyEscape, tcell.KeyCtrlC:
					return
				case tcell.KeyUp:
					v.move(board.Up, size)
				case tcell.KeyDown:
					v.move(board.Down, size)
				case tcell.KeyLeft:
					v.move(board.Left, size)
				case tcell.KeyRight:
					v.move(board.Right, size)
				case tcell.KeyRune:
					if !handleRune(ctx, ev.Rune(), v, sched, edit, &overlay, &results) {
						return
					}
				}
				v.draw(last)
			}
		}
	}
}

// handleRune maps editing keys to world commands; false quits
func handleRune(ctx context.Context, r rune, v *viewer, sched *engine.Scheduler,
	edit func(string, func(*engine.World) bool), overlay *atomic.Bool, results *outcome) bool {
	c := v.cursor
	switch r {
	case 'q':
		return false
	case 'r':
		edit("road", func(w *engine.World) bool { return w.PlaceRoad(c) })
	case 'x':
		edit("remove", func(w *engine.World) bool { return w.RemoveRoad(c) })
	case 'c':
		edit("control", func(w *engine.World) bool { return w.ToggleIntersectionControl(c) })
	case 'o':
		edit("one-way", func(w *engine.World) bool { return w.ToggleTrafficDirection(c) })
	case 'l':
		kind, dir := board.LotKinds[v.lotKind], v.lotDir
		edit("lot", func(w *engine.World) bool {
			_, ok := w.AddLot(kind, board.Anchor{Cell: c, Direction: dir})
			return ok
		})
	case 'k':
		v.lotKind = (v.lotKind + 1) % len(board.LotKinds)
	case 'd':
		v.lotDir = v.lotDir.Clockwise()
	case ' ':
		sched.Do(ctx, func(w *engine.World) {
			if w.Running() {
				w.Pause()
			} else {
				w.Resume()
			}
		})
	case '.':
		sched.Do(ctx, func(w *engine.World) { w.Step() })
	case 'n':
		v.overlay = !v.overlay
		overlay.Store(v.overlay)
	case 'w':
		path := *savePath
		sched.Do(ctx, func(w *engine.World) {
			results.report(saveWorld(w, path))
		})
		v.message = "saving " + path
	}
	return true
}

// saveWorld writes the savegame and returns the status line text
func saveWorld(w *engine.World, path string) string {
	data, err := savegame.Encode(w)
	if err == nil {
		err = os.WriteFile(path, data, 0644)
	}
	if err != nil {
		log.Printf("save to %s failed: %v", path, err)
		return fmt.Sprintf("save failed: %v", err)
	}
	log.Printf("world saved to %s", path)
	return "saved " + path
}

// outcome hands the latest command result from the scheduler goroutine to the UI
type outcome struct {
	msg atomic.Pointer[string]
}

func (o *outcome) report(msg string) {
	o.msg.Store(&msg)
}

func (o *outcome) take() (string, bool) {
	p := o.msg.Swap(nil)
	if p == nil {
		return "", false
	}
	return *p, true
}
