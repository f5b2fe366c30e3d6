package normalize

import "strings"

// Canonical priority levels
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// DefaultPriority is returned for unrecognized priority input
const DefaultPriority = PriorityMedium

// Canonical severity levels
const (
	SeveritySev1 = "sev1"
	SeveritySev2 = "sev2"
	SeveritySev3 = "sev3"
	SeveritySev4 = "sev4"
)

// DefaultSeverity is returned for unrecognized severity input
const DefaultSeverity = SeveritySev3

// DefaultTheme is returned for unrecognized theme input
const DefaultTheme = "system"

// key lower-cases and strips separators so "In Progress", "in_progress"
// and "in-progress" all produce the same lookup key
func key(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch r {
		case ' ', '-', '_', '.', '/':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var priorityAliases = map[string]string{
	"urgent":   PriorityUrgent,
	"p0":       PriorityUrgent,
	"p1":       PriorityUrgent,
	"critical": PriorityUrgent,
	"blocker":  PriorityUrgent,
	"asap":     PriorityUrgent,
	"highest":  PriorityUrgent,
	"high":     PriorityHigh,
	"p2":       PriorityHigh,
	"important": PriorityHigh,
	"major":     PriorityHigh,
	"medium":    PriorityMedium,
	"normal":    PriorityMedium,
	"p3":        PriorityMedium,
	"default":   PriorityMedium,
	"moderate":  PriorityMedium,
	"low":       PriorityLow,
	"p4":        PriorityLow,
	"minor":     PriorityLow,
	"trivial":   PriorityLow,
	"whenever":  PriorityLow,
	"someday":   PriorityLow,
}

// Priority maps free-text priority spellings to a canonical level.
// Unrecognized input returns DefaultPriority; this never fails.
func Priority(raw string) string {
	if v, ok := priorityAliases[key(raw)]; ok {
		return v
	}
	return DefaultPriority
}

var severityAliases = map[string]string{
	"sev1":         SeveritySev1,
	"s1":           SeveritySev1,
	"critical":     SeveritySev1,
	"outage":       SeveritySev1,
	"blocker":      SeveritySev1,
	"sev2":         SeveritySev2,
	"s2":           SeveritySev2,
	"major":        SeveritySev2,
	"high":         SeveritySev2,
	"degraded":     SeveritySev2,
	"sev3":         SeveritySev3,
	"s3":           SeveritySev3,
	"minor":        SeveritySev3,
	"medium":       SeveritySev3,
	"moderate":     SeveritySev3,
	"sev4":         SeveritySev4,
	"s4":           SeveritySev4,
	"low":          SeveritySev4,
	"cosmetic":     SeveritySev4,
	"informational": SeveritySev4,
}

// Severity maps free-text severity spellings to a canonical level.
// Unrecognized input returns DefaultSeverity; this never fails.
func Severity(raw string) string {
	if v, ok := severityAliases[key(raw)]; ok {
		return v
	}
	return DefaultSeverity
}

var themeAliases = map[string]string{
	"dark":   "dark",
	"night":  "dark",
	"black":  "dark",
	"light":  "light",
	"day":    "light",
	"white":  "light",
	"bright": "light",
	"system": "system",
	"auto":   "system",
}

// Theme maps free-text theme spellings to dark, light or system.
// Unrecognized input returns DefaultTheme; this never fails.
func Theme(raw string) string {
	if v, ok := themeAliases[key(raw)]; ok {
		return v
	}
	return DefaultTheme
}

var pageAliases = map[string]string{
	"board":       "board",
	"kanban":      "board",
	"tasks":       "board",
	"sprint":      "board",
	"inbox":       "inbox",
	"mail":        "inbox",
	"email":       "inbox",
	"emails":      "inbox",
	"messages":    "inbox",
	"reports":     "reports",
	"analytics":   "reports",
	"charts":      "reports",
	"metrics":     "reports",
	"dashboard":   "reports",
	"settings":    "settings",
	"prefs":       "settings",
	"preferences": "settings",
	"config":      "settings",
	"calendar":    "calendar",
	"schedule":    "calendar",
	"meetings":    "calendar",
	"incidents":   "incidents",
	"oncall":      "incidents",
	"alerts":      "incidents",
}

// KnownPages is the set of valid page ids. Callers that get back a value
// absent from this set must reject the input with the valid alternatives.
var KnownPages = []string{"board", "inbox", "reports", "settings", "calendar", "incidents"}

// Page maps free-text page spellings to a canonical page id.
// Input not in the alias table is returned unchanged: the caller must check
// the result against KnownPages and reject anything unknown.
func Page(raw string) string {
	if v, ok := pageAliases[key(raw)]; ok {
		return v
	}
	return strings.TrimSpace(raw)
}

// IsKnownPage reports whether id is a valid page id
func IsKnownPage(id string) bool {
	for _, p := range KnownPages {
		if p == id {
			return true
		}
	}
	return false
}

// StatusKey exposes the alias key normalization for status/column matching
func StatusKey(raw string) string {
	return key(raw)
}
