// Package classify turns raw log lines into verdicts. Two interchangeable
// strategies exist: a deterministic keyword matcher and a statistical
// model backed matcher that falls back to the keyword matcher when the
// model's answer is ambiguous.
package classify

import (
	"grimm.is/firewatch/internal/model"
)

// Classifier decides whether a single log line is an alert. Implementations
// must never return an error to the pipeline; failures are benign verdicts.
type Classifier interface {
	Classify(line string) model.Verdict
}

// DefaultFirewallID is used when a line carries no firewall identifier.
const DefaultFirewallID = "FW-0001"
