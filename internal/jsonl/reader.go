package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/xraph/logrelay/event"
)

// Reader feeds parsed lines to a handler. Lines that fail to parse are
// logged and skipped.
type Reader struct {
	handle func(*event.Event)
	logger *slog.Logger
}

// NewReader creates a reader that calls handle for every parsed line.
func NewReader(handle func(*event.Event), logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{handle: handle, logger: logger}
}

// Read consumes src until EOF or until ctx is done.
func (r *Reader) Read(ctx context.Context, src io.Reader) error {
	br := bufio.NewReader(src)
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := br.ReadBytes('\n')
		r.line(line)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("jsonl: read: %w", err)
		}
	}
}

// Follow reads lines appended to path after the call, until ctx is done.
// A trailing partial line is held until its newline arrives.
func (r *Reader) Follow(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("cannot add file to watcher: %w", err)
	}

	br := bufio.NewReader(file)
	var partial []byte

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) {
				r.logger.DebugContext(ctx, "ignoring file event", "path", path, "event", ev.String())
				continue
			}

			for {
				chunk, err := br.ReadBytes('\n')
				partial = append(partial, chunk...)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("jsonl: read %s: %w", path, err)
				}
				r.line(partial)
				partial = partial[:0]
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("jsonl: watch %s: %w", path, err)
		}
	}
}

func (r *Reader) line(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	evt, err := Parse(line)
	if err != nil {
		r.logger.Warn("skipping unparsable line", "error", err)
		return
	}
	r.handle(evt)
}
