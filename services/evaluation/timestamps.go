package evaluation

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// moment is a parsed timestamp. A clock-only value (e.g. "9:30") carries no
// date and must be anchored before use.
type moment struct {
	at    time.Time
	dated bool
}

// referenceDate anchors clock-only times when the request names no date.
var referenceDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02 3:04PM",
	"2006-01-02 3:04 PM",
	"2006/01/02 3:04PM",
	"2006/01/02 3:04 PM",
	time.RFC1123Z,
	time.RFC1123,
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04:05 PM",
	"3PM",
	"3 PM",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Monday, January 2, 2006",
}

var meridiemReplacer = strings.NewReplacer("A.M.", "AM", "P.M.", "PM")

// normalizeClockText upper-cases meridiem markers so the Go layouts accept
// "9:30 pm", "9:30p.m." and "9:30 PM" alike.
func normalizeClockText(s string) string {
	return meridiemReplacer.Replace(strings.ToUpper(strings.TrimSpace(s)))
}

// parseMoment interprets a scalar node as a timestamp.
func parseMoment(n *node) (moment, bool) {
	switch n.kind {
	case kindNumber:
		if t, ok := parseEpoch(n.num); ok {
			return moment{at: t, dated: true}, true
		}
		return moment{}, false
	case kindString:
		return parseMomentText(n.str)
	default:
		return moment{}, false
	}
}

func parseMomentText(s string) (moment, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return moment{}, false
	}

	if isDigits(s) {
		if t, ok := parseEpoch(json.Number(s)); ok {
			return moment{at: t, dated: true}, true
		}
		return moment{}, false
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return moment{at: t, dated: true}, true
		}
	}

	upper := normalizeClockText(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return moment{at: t, dated: true}, true
		}
	}
	if t, ok := parseClock(upper); ok {
		return moment{at: t}, true
	}
	return moment{}, false
}

func parseClock(s string) (time.Time, bool) {
	s = normalizeClockText(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseEpoch reads unix seconds, or milliseconds when the value exceeds 1e12.
// Values before 1973 are rejected as too small to be a timestamp.
func parseEpoch(num json.Number) (time.Time, bool) {
	if i, err := num.Int64(); err == nil {
		switch {
		case i > 1e12:
			return time.UnixMilli(i).UTC(), true
		case i >= 1e8:
			return time.Unix(i, 0).UTC(), true
		default:
			return time.Time{}, false
		}
	}

	f, err := num.Float64()
	if err != nil || f < 1e8 {
		return time.Time{}, false
	}
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec := int64(f)
	return time.Unix(sec, int64((f-float64(sec))*1e9)).UTC(), true
}

// parseDate interprets a scalar node as a calendar date. Full timestamps are
// accepted too and contribute their date.
func parseDate(n *node) (time.Time, bool) {
	if n.kind == kindString {
		s := strings.TrimSpace(n.str)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	if m, ok := parseMoment(n); ok && m.dated {
		return m.at, true
	}
	return time.Time{}, false
}

// anchor places a clock-only moment on the given date. Dated moments are
// returned unchanged.
func anchor(m moment, date time.Time) time.Time {
	if m.dated {
		return m.at
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		m.at.Hour(), m.at.Minute(), m.at.Second(), m.at.Nanosecond(), date.Location())
}

var (
	rangePattern = regexp.MustCompile(`(?i)(\d{1,2}(?::\d{2}){0,2}\s*(?:[ap]\.?m\.?)?)\s*(?:-|–|—|~|\bto\b|\buntil\b|\btill\b)\s*(\d{1,2}(?::\d{2}){0,2}\s*(?:[ap]\.?m\.?)?)`)
	meridiem     = regexp.MustCompile(`(?i)[ap]\.?m\.?$`)
)

// parseClockRange finds the first "9:00-10:30" style range in s. Each side
// needs minutes or a meridiem so that plain number ranges are ignored; a
// meridiem on the right side only ("9-11am") applies to both.
func parseClockRange(s string) (start, end moment, ok bool) {
	for _, m := range rangePattern.FindAllStringSubmatch(s, -1) {
		left, right := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if !isClockLike(left) && !isClockLike(right) {
			continue
		}

		if mer := meridiem.FindString(right); mer != "" && !meridiem.MatchString(left) {
			left += mer
		}
		if !isClockLike(left) || !isClockLike(right) {
			continue
		}

		l, lok := parseClock(left)
		r, rok := parseClock(right)
		if lok && rok {
			return moment{at: l}, moment{at: r}, true
		}
	}
	return moment{}, moment{}, false
}

func isClockLike(s string) bool {
	return strings.Contains(s, ":") || meridiem.MatchString(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
