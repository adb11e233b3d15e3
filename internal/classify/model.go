package classify

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"grimm.is/firewatch/internal/dedup"
	"grimm.is/firewatch/internal/logging"
	"grimm.is/firewatch/internal/metrics"
	"grimm.is/firewatch/internal/model"
)

// ConfidenceThreshold below which the static severity is downgraded a tier.
const ConfidenceThreshold = 0.5

// verdictCacheSize bounds the memoized model verdicts. Full-history replay
// re-classifies every line in the file, so repeated inference on identical
// lines is worth avoiding.
const verdictCacheSize = 4096

// Vectorizer turns assembled feature text into a numeric feature vector.
type Vectorizer interface {
	Vectorize(text string) ([]float64, error)
}

// Predictor scores a feature vector, returning a label and a confidence
// in [0,1].
type Predictor interface {
	Predict(features []float64) (label string, confidence float64, err error)
}

// benignLabels map straight to NoAlert, case-insensitively.
var benignLabels = map[string]struct{}{
	"normal": {},
	"ok":     {},
	"benign": {},
}

// labelToBugType maps model output labels to the closed bug type set.
// Generic "attack" labels carry a priority tier instead of a type.
var labelToBugType = map[string]model.BugType{
	"sql_injection":       model.BugSQLInjection,
	"sqli":                model.BugSQLInjection,
	"xss":                 model.BugXSS,
	"brut_force_ssh":      model.BugBruteForceSSH,
	"brute_force":         model.BugBruteForceSSH,
	"port_scan":           model.BugPortScan,
	"malware_download":    model.BugMalwareDownload,
	"malware":             model.BugMalwareDownload,
	"ddos":                model.BugDDoS,
	"unauthorized_access": model.BugUnauthorized,
}

// Model is the statistical classifier. It vectorizes the line's textual
// fields, asks the predictor for a label, and falls back to the keyword
// matcher when the model is unavailable or its label cannot be mapped.
type Model struct {
	vec      Vectorizer
	pred     Predictor
	fallback *Pattern
	log      *logging.Logger
	cache    *lru.Cache[uint64, model.Verdict]
	metrics  *metrics.Registry
}

// NewModel builds the model classifier around injected vectorize and
// predict capabilities.
func NewModel(vec Vectorizer, pred Predictor, log *logging.Logger) *Model {
	cache, _ := lru.New[uint64, model.Verdict](verdictCacheSize)
	return &Model{
		vec:      vec,
		pred:     pred,
		fallback: NewPattern(),
		log:      log,
		cache:    cache,
		metrics:  metrics.Get(),
	}
}

// Classify implements Classifier. Failures inside vectorization or
// inference never propagate; the worst case is a benign verdict.
func (m *Model) Classify(line string) model.Verdict {
	fp := dedup.Fingerprint(line)
	if v, ok := m.cache.Get(fp); ok {
		return v
	}
	v := m.classify(line)
	m.cache.Add(fp, v)
	return v
}

func (m *Model) classify(line string) model.Verdict {
	ll, err := model.ParseLine(line)
	if err != nil {
		return model.NoAlert
	}

	if m.vec == nil || m.pred == nil {
		return m.fallback.classifyParsed(ll)
	}

	m.metrics.ModelCalls.Inc()
	features, err := m.vec.Vectorize(FeatureText(ll))
	if err != nil {
		m.metrics.ModelErrors.Inc()
		m.log.Warn("vectorizer unavailable, using keyword matcher", "error", err)
		return m.fallback.classifyParsed(ll)
	}

	label, confidence, err := m.pred.Predict(features)
	if err != nil {
		m.metrics.ModelErrors.Inc()
		m.log.Warn("model unavailable, using keyword matcher", "error", err)
		return m.fallback.classifyParsed(ll)
	}

	label = strings.ToLower(strings.TrimSpace(label))
	if _, benign := benignLabels[label]; benign || label == "" {
		return model.NoAlert
	}

	bugType, priority := mapLabel(label)
	if bugType == "" {
		// Generic attack label: try the keyword table over the whole
		// line, then over the explanation field as a last resort.
		if bt, ok := MatchKeyword(ll.Raw); ok {
			bugType = bt
		} else if bt, ok := MatchKeyword(ll.Explanation); ok {
			bugType = bt
		} else {
			// Keep the raw label; the category table treats unmapped
			// types as generic security findings.
			bugType = model.BugType(label)
		}
	}

	severity := model.SeverityFor(bugType)
	if confidence < ConfidenceThreshold {
		severity = severity.Downgrade()
	}

	fwID := ll.FirewallID
	if fwID == "" {
		fwID = DefaultFirewallID
	}

	return model.Verdict{
		Alert:      true,
		BugType:    bugType,
		Severity:   severity,
		Confidence: confidence,
		Priority:   priority,
		FirewallID: fwID,
		SrcIP:      ll.SrcIP,
		DstIP:      ll.DstIP,
		SrcPort:    ll.SrcPort,
		DstPort:    ll.DstPort,
	}
}

// mapLabel resolves a model label into a bug type and an optional priority
// tier embedded in generic labels such as "attack_high".
func mapLabel(label string) (model.BugType, model.Priority) {
	var priority model.Priority
	trimmed := label
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		if strings.HasSuffix(trimmed, "_"+string(p)) {
			priority = p
			trimmed = strings.TrimSuffix(trimmed, "_"+string(p))
			break
		}
	}
	if bt, ok := labelToBugType[trimmed]; ok {
		return bt, priority
	}
	return "", priority
}

// FeatureText assembles the non-empty textual fields of a line in the
// order the model was trained on.
func FeatureText(ll model.LogLine) string {
	fields := []string{
		ll.Explanation,
		ll.SrcIP,
		ll.DstIP,
		strconv.Itoa(ll.DstPort),
		ll.Protocol,
		ll.Action,
		ll.Status,
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
