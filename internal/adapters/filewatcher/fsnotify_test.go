package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/0xcro3dile/ragroute/internal/domain/ports"
)

func TestFSNotifyWatcher_Creation(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(0, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if watcher.debounce != DefaultDebounce {
		t.Errorf("expected default debounce, got %v", watcher.debounce)
	}
}

func TestFSNotifyWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	watcher, _ := NewFSNotifyWatcher(20*time.Millisecond, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, path)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(path, []byte("version: 2\n"), 0644)
	}()

	select {
	case event := <-events:
		if event.Operation != ports.FileModified {
			t.Errorf("expected modify event, got %v", event.Operation)
		}
		if filepath.Base(event.Path) != "routing.yaml" {
			t.Errorf("unexpected path: %s", event.Path)
		}
	case <-ctx.Done():
		t.Error("timeout waiting for event")
	}
}

func TestFSNotifyWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.yaml")
	os.WriteFile(path, []byte("version: 1\n"), 0644)

	watcher, _ := NewFSNotifyWatcher(20*time.Millisecond, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	events, _ := watcher.Watch(ctx, path)

	os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("{}"), 0644)

	select {
	case <-events:
		t.Error("should not receive event for a sibling file")
	case <-time.After(300 * time.Millisecond):
		// Expected - no event
	}
}

func TestFSNotifyWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.yaml")
	os.WriteFile(path, []byte("version: 1\n"), 0644)

	watcher, _ := NewFSNotifyWatcher(150*time.Millisecond, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, _ := watcher.Watch(ctx, path)

	for i := 0; i < 3; i++ {
		os.WriteFile(path, []byte("version: 2\n"), 0644)
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-events:
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}

	select {
	case <-events:
		t.Error("burst should produce a single event")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestFSNotifyWatcher_Stop(t *testing.T) {
	watcher, _ := NewFSNotifyWatcher(0, nil)
	if err := watcher.Stop(); err != nil {
		t.Errorf("stop failed: %v", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("second stop failed: %v", err)
	}
}
