// Package model defines the records flowing through the watch pipeline:
// parsed log lines, classifier verdicts, and the alert requests broadcast
// to connected clients.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MinFields is the number of comma-separated fields a log line must carry
// to be parseable. The trailing flag field is optional.
const MinFields = 15

// LogLine is one parsed line of the firewall log. Immutable once parsed;
// it is passed by value through the pipeline.
type LogLine struct {
	Timestamp  string
	FirewallID string
	SrcIP      string
	DstIP      string
	SrcPort    int
	DstPort    int
	Protocol   string
	Action     string
	// Byte counts are opaque integers from the exporter; negative values
	// occur in real captures and are not validated here.
	BytesIn   int64
	BytesOut  int64
	TCPFlag   string
	SessionID string
	// Field 13 is reserved and always empty in the current layout.
	Explanation string
	Status      string
	Extra       string
	Raw         string
}

// ParseLine splits a raw CSV log line into a LogLine. Lines with fewer
// than MinFields fields are malformed and rejected.
func ParseLine(raw string) (LogLine, error) {
	fields := strings.Split(raw, ",")
	if len(fields) < MinFields {
		return LogLine{}, fmt.Errorf("malformed log line: %d fields, want at least %d", len(fields), MinFields)
	}

	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}

	srcPort, err := strconv.Atoi(fields[4])
	if err != nil {
		return LogLine{}, fmt.Errorf("bad src port %q: %w", fields[4], err)
	}
	dstPort, err := strconv.Atoi(fields[5])
	if err != nil {
		return LogLine{}, fmt.Errorf("bad dst port %q: %w", fields[5], err)
	}
	bytesIn, err := strconv.ParseInt(fields[8], 10, 64)
	if err != nil {
		return LogLine{}, fmt.Errorf("bad inbound byte count %q: %w", fields[8], err)
	}
	bytesOut, err := strconv.ParseInt(fields[9], 10, 64)
	if err != nil {
		return LogLine{}, fmt.Errorf("bad outbound byte count %q: %w", fields[9], err)
	}

	ll := LogLine{
		Timestamp:   fields[0],
		FirewallID:  fields[1],
		SrcIP:       fields[2],
		DstIP:       fields[3],
		SrcPort:     srcPort,
		DstPort:     dstPort,
		Protocol:    fields[6],
		Action:      fields[7],
		BytesIn:     bytesIn,
		BytesOut:    bytesOut,
		TCPFlag:     fields[10],
		SessionID:   fields[11],
		Explanation: fields[13],
		Status:      fields[14],
		Raw:         raw,
	}
	if len(fields) > 15 {
		ll.Extra = fields[15]
	}
	return ll, nil
}

// FirewallIDFromLine extracts the firewall identifier (second CSV field)
// without requiring a full parse. Returns the fallback when the line has
// no second field.
func FirewallIDFromLine(raw, fallback string) string {
	if strings.Contains(raw, ",") {
		parts := strings.SplitN(raw, ",", 3)
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1])
		}
	}
	return fallback
}
