// Package tail incrementally reads lines appended to a growing log file.
package tail

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"grimm.is/firewatch/internal/logging"
)

// DefaultPollInterval between reads when no new bytes are present.
const DefaultPollInterval = 200 * time.Millisecond

// Tailer watches a single file for appended lines. Lines written before
// the tailer starts are never delivered; full-history replay is a
// separate path.
type Tailer struct {
	path         string
	pollInterval time.Duration
	log          *logging.Logger
}

// New creates a tailer for the given path.
func New(path string, pollInterval time.Duration, log *logging.Logger) *Tailer {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Tailer{
		path:         path,
		pollInterval: pollInterval,
		log:          log.WithComponent("tailer"),
	}
}

// Run watches the file until ctx is cancelled, calling emit for every
// complete trimmed line appended after the watch began. A missing file at
// startup is polled for, not an error. If the file becomes inaccessible
// mid-run the tailer logs and stops; the rest of the process keeps
// serving, so no error is returned.
func (t *Tailer) Run(ctx context.Context, emit func(line string)) error {
	f, err := t.waitForFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	// Only bytes appended from now on are delivered.
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		t.log.Error("seek to end failed, stopping tailer", "path", t.path, "error", err)
		return nil
	}

	t.log.Info("watching for new lines", "path", t.path)

	// Carries an unterminated trailing fragment between reads so a line
	// written in two chunks is never emitted as two fragments.
	var pending strings.Builder
	buf := make([]byte, 64*1024)

	for {
		n, err := f.Read(buf)
		if n > 0 {
			pending.Write(buf[:n])
			rest := emitCompleteLines(pending.String(), emit)
			pending.Reset()
			pending.WriteString(rest)
		}
		if err != nil && err != io.EOF {
			t.log.Error("log file became unreadable, stopping tailer", "path", t.path, "error", err)
			return nil
		}
		if n == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.pollInterval):
			}
		}
	}
}

// waitForFile polls until the file exists and can be opened.
func (t *Tailer) waitForFile(ctx context.Context) (*os.File, error) {
	warned := false
	for {
		f, err := os.Open(t.path)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", t.path, err)
		}
		if !warned {
			t.log.Warn("log file not found, waiting", "path", t.path)
			warned = true
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// emitCompleteLines emits every terminated line in chunk and returns the
// unterminated remainder.
func emitCompleteLines(chunk string, emit func(string)) string {
	for {
		idx := strings.IndexByte(chunk, '\n')
		if idx < 0 {
			return chunk
		}
		line := strings.TrimSpace(chunk[:idx])
		if line != "" {
			emit(line)
		}
		chunk = chunk[idx+1:]
	}
}
