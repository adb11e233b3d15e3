package model

// BugType is the closed set of attack categories the classifiers emit.
type BugType string

const (
	BugSQLInjection    BugType = "sql_injection"
	BugXSS             BugType = "xss"
	BugBruteForceSSH   BugType = "brut_force_ssh"
	BugPortScan        BugType = "port_scan"
	BugMalwareDownload BugType = "malware_download"
	BugDDoS            BugType = "ddos"
	BugUnauthorized    BugType = "unauthorized_access"
)

// Severity of an alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Downgrade returns the severity one tier lower. Low stays low.
func (s Severity) Downgrade() Severity {
	switch s {
	case SeverityHigh:
		return SeverityMedium
	case SeverityMedium:
		return SeverityLow
	default:
		return SeverityLow
	}
}

// Priority tiers embedded in generic model labels ("attack_high" etc).
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Verdict is the classifier's per-line decision. Alert is false for benign
// or unparseable lines; the remaining fields are only meaningful when
// Alert is true.
type Verdict struct {
	Alert      bool
	BugType    BugType
	Severity   Severity
	Confidence float64
	Priority   Priority
	FirewallID string
	SrcIP      string
	DstIP      string
	SrcPort    int
	DstPort    int
}

// NoAlert is the benign verdict.
var NoAlert = Verdict{}

// severityByBugType is the static type to severity table.
var severityByBugType = map[BugType]Severity{
	BugSQLInjection:    SeverityHigh,
	BugXSS:             SeverityMedium,
	BugBruteForceSSH:   SeverityHigh,
	BugPortScan:        SeverityLow,
	BugMalwareDownload: SeverityHigh,
	BugDDoS:            SeverityHigh,
	BugUnauthorized:    SeverityHigh,
}

// SeverityFor returns the static severity for a bug type, defaulting to
// medium for types missing from the table.
func SeverityFor(bt BugType) Severity {
	if s, ok := severityByBugType[bt]; ok {
		return s
	}
	return SeverityMedium
}
