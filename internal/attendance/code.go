package attendance

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const (
	suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	dateLayout     = "2006-01-02"
)

// acceptedDateLayouts are tried in order. Layouts with a zone offset are
// converted to UTC before the time of day is dropped.
var acceptedDateLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// ParseSessionDate normalizes raw to a UTC calendar date.
func ParseSessionDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range acceptedDateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// FormatDate renders a session date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// FormatSessionCode builds {courseCode}-{YYYYMMDD}-{suffix}.
func FormatSessionCode(courseCode string, date time.Time, suffix string) string {
	return courseCode + "-" + date.Format("20060102") + "-" + suffix
}

// RandomSuffix returns n characters drawn uniformly from [A-Z0-9].
func RandomSuffix(n int) (string, error) {
	const limit = 256 - 256%len(suffixAlphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, suffixAlphabet[int(b)%len(suffixAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
