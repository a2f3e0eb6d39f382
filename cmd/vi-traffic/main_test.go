package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lixenwraith/vi-traffic/config"
	"github.com/lixenwraith/vi-traffic/engine"
)

func TestSaveWorld(t *testing.T) {
	restoreLogger(t)
	w, err := engine.NewWorld(config.Default())
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		want string
		ok   bool
	}{
		{"writable", filepath.Join(dir, "world.toml"), "saved ", true},
		{"missing directory", filepath.Join(dir, "nope", "world.toml"), "save failed", false},
	}
	for _, tt := range tests {
		msg := saveWorld(w, tt.path)
		if !strings.HasPrefix(msg, tt.want) {
			t.Errorf("%s: message %q, want prefix %q", tt.name, msg, tt.want)
		}
		_, err := os.Stat(tt.path)
		if (err == nil) != tt.ok {
			t.Errorf("%s: file written %v, want %v", tt.name, err == nil, tt.ok)
		}
	}
}

func TestOutcome_LatestWins(t *testing.T) {
	var o outcome
	if _, ok := o.take(); ok {
		t.Fatal("empty outcome reported a message")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		o.report("road")
		o.report("saved world.toml")
	}()
	wg.Wait()

	msg, ok := o.take()
	if !ok || msg != "saved world.toml" {
		t.Errorf("take: %q, %v", msg, ok)
	}
	if _, ok := o.take(); ok {
		t.Error("message taken twice")
	}
}

func TestHandleRune_OverlayKeepsUp(t *testing.T) {
	v := &viewer{}
	var overlay atomic.Bool
	var results outcome
	for presses := 1; presses <= 5; presses++ {
		if !handleRune(context.Background(), 'n', v, nil, nil, &overlay, &results) {
			t.Fatal("overlay key quit")
		}
		want := presses%2 == 1
		if v.overlay != want || overlay.Load() != want {
			t.Errorf("after %d presses: viewer %v, frames %v, want %v", presses, v.overlay, overlay.Load(), want)
		}
	}
}
