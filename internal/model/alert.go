package model

// Categories shown to operators, keyed by bug type.
const (
	CategorySecurity    = "Security"
	CategoryNetwork     = "Network"
	CategoryAccess      = "Access"
	CategoryPerformance = "Performance"
	CategoryValidation  = "Validation"
)

var categoryByBugType = map[BugType]string{
	BugSQLInjection:    CategorySecurity,
	BugXSS:             CategorySecurity,
	BugBruteForceSSH:   CategorySecurity,
	BugMalwareDownload: CategorySecurity,
	BugDDoS:            CategoryNetwork,
	BugPortScan:        CategoryNetwork,
	BugUnauthorized:    CategoryAccess,
}

// CategoryFor maps a bug type to its operator-facing category. Unmapped
// bug types fall back to Security; an absent bug type means the line
// failed validation rather than matched an attack.
func CategoryFor(bt BugType) string {
	if bt == "" {
		return CategoryValidation
	}
	if c, ok := categoryByBugType[bt]; ok {
		return c
	}
	return CategorySecurity
}

// AlertRequest is the externally visible record derived from a positive
// verdict and broadcast to clients as a "new_request" message. Explanation
// and FixProposal are filled by a downstream collaborator and stay null
// here.
type AlertRequest struct {
	Index       uint64   `json:"index"`
	FirewallID  string   `json:"firewall_id"`
	Timestamp   string   `json:"timestamp"`
	BugType     BugType  `json:"bug_type"`
	Severity    Severity `json:"severity"`
	Explanation *string  `json:"explanation"`
	Type        string   `json:"type"`
	FixProposal *string  `json:"fix_proposal"`
	RawLog      string   `json:"raw_log,omitempty"`
}
