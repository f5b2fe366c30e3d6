package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFormatsHint describes the accepted date grammar; validation failure
// messages include it so callers can self-correct.
const DateFormatsHint = `accepted formats: "today", "tomorrow", "yesterday", ` +
	`"in N days", "next week", "next <weekday>", or an ISO date like 2026-03-15`

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sun":       time.Sunday,
	"mon":       time.Monday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"wed":       time.Wednesday,
	"thu":       time.Thursday,
	"thur":      time.Thursday,
	"thurs":     time.Thursday,
	"fri":       time.Friday,
	"sat":       time.Saturday,
}

var inDaysRe = regexp.MustCompile(`^in\s+(\d+)\s+days?$`)

// midnight truncates t to the start of its day
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Date parses a constrained natural-language date grammar relative to now.
// It returns the resolved timestamp at midnight and true, or the zero time
// and false when the input is unparseable. It never panics or errors.
func Date(raw string, now time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return time.Time{}, false
	}

	today := midnight(now)

	switch s {
	case "today", "now":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	case "next week":
		return today.AddDate(0, 0, 7), true
	}

	if m := inDaysRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return today.AddDate(0, 0, n), true
		}
	}

	// "next friday" resolves to the nearest strictly-future occurrence;
	// if the named weekday is today or already past this week, roll over 7 days
	if rest, ok := strings.CutPrefix(s, "next "); ok {
		if wd, ok := weekdays[strings.TrimSpace(rest)]; ok {
			delta := (int(wd) - int(today.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			return today.AddDate(0, 0, delta), true
		}
	}

	// Bare weekday names also resolve to the nearest future occurrence
	if wd, ok := weekdays[s]; ok {
		delta := (int(wd) - int(today.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return today.AddDate(0, 0, delta), true
	}

	// ISO prefix: accept "2026-03-15" and longer strings starting with it
	if len(s) >= 10 {
		if t, err := time.ParseInLocation("2006-01-02", s[:10], now.Location()); err == nil {
			return t, true
		}
	}

	// Generic fallback layouts
	for _, layout := range []string{"Jan 2 2006", "Jan 2, 2006", "2 Jan 2006", "01/02/2006"} {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return midnight(t), true
		}
	}

	return time.Time{}, false
}

var (
	clock24Re = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	clock12Re = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)
)

// TimeOfDay parses "HH:MM", "H:MM am/pm" and bare "Hpm"/"Ham", setting the
// hour and minute on the given date while leaving other fields unchanged.
// Returns false when the input is unparseable.
func TimeOfDay(raw string, on time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))

	at := func(hour, min int) (time.Time, bool) {
		if hour < 0 || hour > 23 || min < 0 || min > 59 {
			return time.Time{}, false
		}
		return time.Date(on.Year(), on.Month(), on.Day(), hour, min, 0, 0, on.Location()), true
	}

	if m := clock24Re.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		return at(hour, min)
	}

	if m := clock12Re.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		min := 0
		if m[2] != "" {
			min, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		if m[3] == "pm" && hour != 12 {
			hour += 12
		}
		if m[3] == "am" && hour == 12 {
			hour = 0
		}
		return at(hour, min)
	}

	return time.Time{}, false
}

var durationRe = regexp.MustCompile(`^(\d+)\s*(m|min|mins|minute|minutes|h|hr|hrs|hour|hours|d|day|days|w|week|weeks)$`)

// Duration parses "30m", "2h", "1d", "90 minutes" and similar spellings.
// Returns false when the input is unparseable.
func Duration(raw string) (time.Duration, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))

	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	switch m[2][0] {
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, true
	}
	return 0, false
}

// FormatDate renders a timestamp the way tool messages present dates
func FormatDate(t time.Time) string {
	return t.Format("Mon, Jan 2 2006")
}

// FormatDateTime renders a timestamp with its time of day
func FormatDateTime(t time.Time) string {
	return t.Format("Mon, Jan 2 2006 15:04")
}

// FormatDuration renders a duration in compact h/m form
func FormatDuration(d time.Duration) string {
	if d >= 24*time.Hour {
		days := d / (24 * time.Hour)
		rem := d % (24 * time.Hour)
		if rem == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd%dh", days, rem/time.Hour)
	}
	if d >= time.Hour {
		if d%time.Hour == 0 {
			return fmt.Sprintf("%dh", d/time.Hour)
		}
		return fmt.Sprintf("%dh%dm", d/time.Hour, (d%time.Hour)/time.Minute)
	}
	return fmt.Sprintf("%dm", d/time.Minute)
}
