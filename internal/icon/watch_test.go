// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package icon

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.astrophena.name/base/testutil"

	"github.com/fsnotify/fsnotify"
)

func TestWatch(t *testing.T) {
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "logo.png")
	writeTestPNG(t, src, opaqueImage(100, 50))

	ready := make(chan struct{})
	watchReadyHook = func() {
		ready <- struct{}{}
	}
	defer func() { watchReadyHook = nil }()

	errCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- Watch(ctx, &Config{Src: src, Dst: dstDir})
	}()

	// Wait until the watcher is running.
	select {
	case <-ready:
	case err := <-errCh:
		t.Fatalf("Watch failed during startup: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("Watch didn't become ready in time")
	}

	// The initial generation is done by now: a 100×50 source squares to
	// 100×100 with a transparent top quarter.
	m := decodeTestPNG(t, filepath.Join(dstDir, "icon-512.png"))
	testutil.AssertEqual(t, alphaAt(m, 256, 10), uint32(0))

	// Replace the source with an already-square image and wait for the
	// debounced regeneration to make the top rows opaque.
	writeTestPNG(t, src, opaqueImage(200, 200))

	deadline := time.Now().Add(10 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("icons were not regenerated after the source changed")
		}
		m := decodeTestPNG(t, filepath.Join(dstDir, "icon-512.png"))
		if alphaAt(m, 256, 10) == 0xffff {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	// Cancel the context and make sure Watch returns cleanly.
	cancel()
	wg.Wait()
	if err := <-errCh; err != nil {
		t.Fatalf("Watch failed during shutdown: %v", err)
	}
}

func TestShouldRegenerate(t *testing.T) {
	src := filepath.Join("assets", "logo.png")

	cases := map[string]struct {
		event fsnotify.Event
		want  bool
	}{
		"write to source": {
			event: fsnotify.Event{Name: src, Op: fsnotify.Write},
			want:  true,
		},
		"source recreated": {
			event: fsnotify.Event{Name: src, Op: fsnotify.Create},
			want:  true,
		},
		"source replaced by rename": {
			event: fsnotify.Event{Name: src, Op: fsnotify.Rename},
			want:  true,
		},
		"chmod on source": {
			event: fsnotify.Event{Name: src, Op: fsnotify.Chmod},
			want:  false,
		},
		"unrelated file": {
			event: fsnotify.Event{Name: filepath.Join("assets", "icon-512.png"), Op: fsnotify.Write},
			want:  false,
		},
		"ds_store": {
			event: fsnotify.Event{Name: filepath.Join("assets", ".DS_Store"), Op: fsnotify.Create},
			want:  false,
		},
		"vim probe file": {
			event: fsnotify.Event{Name: filepath.Join("assets", "4913"), Op: fsnotify.Create},
			want:  false,
		},
		"vim backup": {
			event: fsnotify.Event{Name: src + "~", Op: fsnotify.Create},
			want:  false,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, shouldRegenerate(src, tc.event), tc.want)
		})
	}
}
