// Package tailer follows log files and feeds appended lines, stamped with
// the observation time, into the jails. It is a collaborator of the
// detection engine: the engine never reads files or samples the clock
// itself.
package tailer

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Line is one appended log line with its source and observation time.
type Line struct {
	Path string
	Text string
	Time time.Time
}

// Tailer reads newly appended lines from watched files.
type Tailer struct {
	mu    sync.Mutex
	files map[string]*trackedFile
	out   chan Line
	fsw   *fsnotify.Watcher
	paths []string
	log   *slog.Logger
}

type trackedFile struct {
	path   string
	file   *os.File
	offset int64
	buf    string // partial line carry-over
}

// ResolvePaths expands doublestar glob patterns into concrete file paths.
// Patterns that expand to nothing are skipped with a warning.
func ResolvePaths(patterns []string, logger *slog.Logger) []string {
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			logger.Warn("cannot expand watch pattern", "pattern", pattern, "error", err)
			continue
		}
		if len(matches) == 0 {
			logger.Warn("watch pattern matched no files", "pattern", pattern)
			continue
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				continue
			}
			paths = append(paths, abs)
		}
	}
	return paths
}

// New creates a Tailer following the given files from their current end.
func New(paths []string, logger *slog.Logger) (*Tailer, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	t := &Tailer{
		files: make(map[string]*trackedFile),
		out:   make(chan Line, 512),
		fsw:   fsw,
		paths: paths,
		log:   logger,
	}

	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			logger.Warn("cannot watch file", "path", p, "error", err)
			continue
		}
	}
	return t, nil
}

// Lines returns the channel where appended lines are delivered.
func (t *Tailer) Lines() <-chan Line {
	return t.out
}

// Start processes file events. Blocks until the context is cancelled.
func (t *Tailer) Start(ctx context.Context) {
	defer close(t.out)
	defer t.fsw.Close()

	for _, p := range t.paths {
		t.openFile(p, true)
	}

	for {
		select {
		case <-ctx.Done():
			t.closeAll()
			return

		case ev, ok := <-t.fsw.Events:
			if !ok {
				return
			}
			t.handleEvent(ev)

		case err, ok := <-t.fsw.Errors:
			if !ok {
				return
			}
			t.log.Warn("file watcher error", "error", err)
		}
	}
}

// handleEvent dispatches fsnotify events.
func (t *Tailer) handleEvent(ev fsnotify.Event) {
	switch {
	case ev.Op&fsnotify.Write != 0:
		t.readNewLines(ev.Name)

	case ev.Op&fsnotify.Create != 0:
		// File reappeared after rotation: read from the start.
		t.openFile(ev.Name, false)
		t.readNewLines(ev.Name)

	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		t.closeFile(ev.Name)
		go t.reconnect(ev.Name)
	}
}

// openFile starts tracking a file. With seekEnd, reading begins at the
// current end so historical lines are not replayed.
func (t *Tailer) openFile(path string, seekEnd bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		t.log.Warn("cannot open file", "path", path, "error", err)
		return
	}

	var offset int64
	if seekEnd {
		offset, _ = f.Seek(0, io.SeekEnd)
	}

	t.files[path] = &trackedFile{
		path:   path,
		file:   f,
		offset: offset,
	}
}

// readNewLines reads from the last offset to EOF and emits complete lines.
func (t *Tailer) readNewLines(path string) {
	t.mu.Lock()
	tf, ok := t.files[path]
	t.mu.Unlock()
	if !ok {
		return
	}

	reader := bufio.NewReader(tf.file)
	for {
		chunk, err := reader.ReadString('\n')
		if err != nil {
			// Keep a trailing partial write until its newline arrives.
			tf.buf += chunk
			if err != io.EOF {
				t.log.Warn("read error", "path", path, "error", err)
			}
			break
		}
		line := strings.TrimRight(tf.buf+chunk, "\r\n")
		tf.buf = ""

		t.out <- Line{Path: path, Text: line, Time: time.Now()}
	}

	pos, _ := tf.file.Seek(0, io.SeekCurrent)
	tf.offset = pos
}

// closeFile releases a tracked file.
func (t *Tailer) closeFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tf, ok := t.files[path]; ok {
		tf.file.Close()
		delete(t.files, path)
	}
}

// reconnect polls for a file to reappear after rotation.
func (t *Tailer) reconnect(path string) {
	for i := 0; i < 5; i++ {
		time.Sleep(time.Second)
		if _, err := os.Stat(path); err == nil {
			t.log.Info("reconnected to rotated file", "path", path)
			_ = t.fsw.Add(path)
			t.openFile(path, false)
			t.readNewLines(path)
			return
		}
	}
	t.log.Warn("gave up reconnecting", "path", path)
}

// closeAll closes all tracked file handles.
func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tf := range t.files {
		tf.file.Close()
		delete(t.files, path)
	}
}
