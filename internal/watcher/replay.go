package watcher

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"grimm.is/firewatch/internal/model"
)

// ScanAll re-reads the entire log file from the start, independent of the
// live tailer's cursor, and classifies every non-empty line with the
// active classifier. It returns the alerting entries indexed by 1-based
// line position. A missing file yields an empty result, not an error.
func (w *Watcher) ScanAll(ctx context.Context) ([]model.AlertRequest, error) {
	w.metrics.ReplayScans.Inc()

	f, err := os.Open(w.opts.LogPath)
	if err != nil {
		if os.IsNotExist(err) {
			w.log.Info("replay requested but log file absent", "path", w.opts.LogPath)
			return []model.AlertRequest{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", w.opts.LogPath, err)
	}
	defer f.Close()

	entries := []model.AlertRequest{}
	now := w.opts.Clock.Now().Format(time.RFC3339)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		verdict := w.opts.Classifier.Classify(line)
		if !verdict.Alert {
			continue
		}

		fwID := verdict.FirewallID
		if fwID == "" {
			fwID = fmt.Sprintf("FW-%04d", lineNo)
		}

		entries = append(entries, model.AlertRequest{
			Index:      uint64(lineNo),
			FirewallID: fwID,
			Timestamp:  now,
			BugType:    verdict.BugType,
			Severity:   verdict.Severity,
			Type:       model.CategoryFor(verdict.BugType),
			RawLog:     line,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", w.opts.LogPath, err)
	}

	w.log.Info("replay scan complete", "lines", lineNo, "alerts", len(entries))
	return entries, nil
}
