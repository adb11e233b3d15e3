package classify

import (
	"strings"

	"grimm.is/firewatch/internal/model"
)

// patternEntry maps a lowercase substring to its attack classification.
type patternEntry struct {
	substr  string
	bugType model.BugType
}

// patternTable is checked in order; the first matching substring wins.
// A slice keeps table iteration deterministic.
var patternTable = []patternEntry{
	{"sql injection", model.BugSQLInjection},
	{"suspicious payload", model.BugSQLInjection},
	{"xss", model.BugXSS},
	{"brute force", model.BugBruteForceSSH},
	{"failed ssh", model.BugBruteForceSSH},
	{"port scan", model.BugPortScan},
	{"malware", model.BugMalwareDownload},
	{"malicious file", model.BugMalwareDownload},
	{"ddos", model.BugDDoS},
	{"high traffic", model.BugDDoS},
	{"unauthorized", model.BugUnauthorized},
}

// Pattern is the deterministic keyword classifier.
type Pattern struct{}

// NewPattern returns the keyword classifier.
func NewPattern() *Pattern {
	return &Pattern{}
}

// Classify lowercases the line and tests the pattern table against it.
// Malformed lines never alert.
func (p *Pattern) Classify(line string) model.Verdict {
	ll, err := model.ParseLine(line)
	if err != nil {
		return model.NoAlert
	}
	return p.classifyParsed(ll)
}

func (p *Pattern) classifyParsed(ll model.LogLine) model.Verdict {
	bt, ok := MatchKeyword(ll.Raw)
	if !ok {
		return model.NoAlert
	}

	fwID := ll.FirewallID
	if fwID == "" {
		fwID = DefaultFirewallID
	}

	return model.Verdict{
		Alert:      true,
		BugType:    bt,
		Severity:   model.SeverityFor(bt),
		FirewallID: fwID,
		SrcIP:      ll.SrcIP,
		DstIP:      ll.DstIP,
		SrcPort:    ll.SrcPort,
		DstPort:    ll.DstPort,
	}
}

// MatchKeyword scans text for a pattern table keyword, case-insensitively.
func MatchKeyword(text string) (model.BugType, bool) {
	lower := strings.ToLower(text)
	for _, e := range patternTable {
		if strings.Contains(lower, e.substr) {
			return e.bugType, true
		}
	}
	return "", false
}
