package providers

import "strings"

// Internal three-way outcome for provider-reported statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

// statusRule maps a lowercase token to an internal outcome via substring
// matching. Providers are inconsistent about casing and exact wording, so
// the match is deliberately loose.
type statusRule struct {
	token   string
	outcome string
}

// Success rules run before failure rules so that "successful" and
// "completed" never fall through. Anything unmatched is pending.
var defaultRules = []statusRule{
	{"success", StatusSuccess},
	{"successful", StatusSuccess},
	{"completed", StatusSuccess},
	{"fail", StatusFailed},
	{"failed", StatusFailed},
	{"cancel", StatusFailed},
}

// StatusTable is a per-provider status vocabulary. Exact entries handle
// provider-specific codes ("TS", "succeeded"); unmatched values fall back
// to the shared substring rules. New vocabularies are additive.
type StatusTable struct {
	Exact map[string]string
}

// Normalize maps a provider status string onto {success, failed, pending}.
func (t StatusTable) Normalize(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if outcome, ok := t.Exact[s]; ok {
		return outcome
	}
	for _, rule := range defaultRules {
		if strings.Contains(s, rule.token) {
			return rule.outcome
		}
	}
	return StatusPending
}

// NormalizeStatus applies the shared vocabulary with no provider overrides.
func NormalizeStatus(status string) string {
	return StatusTable{}.Normalize(status)
}
