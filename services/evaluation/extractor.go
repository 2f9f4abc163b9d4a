package evaluation

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

type role int

const (
	roleStart role = iota
	roleEnd
	rolePurpose
	roleDate
	roleRange
	roleCount
)

// nameQuality ranks how literally a key names a role.
type nameQuality int

const (
	noMatch nameQuality = iota
	affixMatch
	daySynonymMatch
	synonymMatch
	exactMatch
)

type roleNames struct {
	canonical string
	synonyms  map[string]struct{}
	// affixes may appear as a leading or trailing word run of a longer key
	affixes map[string]struct{}
	// dayNames are synonyms that name the day rather than the moment, so
	// "startTime" outranks "startDate" when both are present
	dayNames map[string]struct{}
}

func newRoleNames(canonical string, synonyms []string, noAffix ...string) roleNames {
	rn := roleNames{
		canonical: canonical,
		synonyms:  make(map[string]struct{}, len(synonyms)),
		affixes:   map[string]struct{}{canonical: {}},
	}
	skip := make(map[string]struct{}, len(noAffix))
	for _, s := range noAffix {
		skip[s] = struct{}{}
	}
	for _, s := range synonyms {
		rn.synonyms[s] = struct{}{}
		if _, ok := skip[s]; !ok {
			rn.affixes[s] = struct{}{}
		}
	}
	return rn
}

func (rn roleNames) withDayNames(dayNames ...string) roleNames {
	rn.dayNames = make(map[string]struct{}, len(dayNames))
	for _, s := range dayNames {
		rn.dayNames[s] = struct{}{}
	}
	return rn
}

var names = [roleCount]roleNames{
	roleStart: newRoleNames("start",
		[]string{"starttime", "startat", "startdatetime", "startdate", "starts", "begin", "begins",
			"beginat", "begintime", "beginning", "from", "fromtime", "timefrom", "since", "checkin"},
		"from", "since", "starts", "begins").withDayNames("startdate"),
	roleEnd: newRoleNames("end",
		[]string{"endtime", "endat", "enddatetime", "enddate", "ends", "finish", "finishtime",
			"finishat", "to", "totime", "timeto", "until", "till", "checkout"},
		"to", "until", "till", "ends").withDayNames("enddate"),
	rolePurpose: newRoleNames("purpose",
		[]string{"reason", "activity", "description", "details", "event", "usage", "title",
			"subject", "topic", "agenda", "note", "notes", "comment", "comments"},
		"event", "title", "note", "notes", "usage", "details"),
	roleDate: newRoleNames("date",
		[]string{"day", "reservationdate", "bookingdate", "eventdate", "startdate", "on"},
		"day", "on"),
	roleRange: newRoleNames("time",
		[]string{"timeslot", "slot", "period", "session", "hours", "schedule", "timerange", "timeframe", "window"},
		"hours", "session", "window", "period"),
}

// candidate is the best value found so far for one role.
type candidate struct {
	quality nameQuality
	depth   int
	path    string
	node    *node
}

// offer replaces the candidate when the new value ranks higher: a more
// literal name first, then a deeper position. Ties keep the earlier value.
func (c *candidate) offer(q nameQuality, depth int, path string, n *node) bool {
	if q == noMatch {
		return false
	}
	if c.node == nil || q > c.quality || (q == c.quality && depth > c.depth) {
		*c = candidate{quality: q, depth: depth, path: path, node: n}
		return true
	}
	return false
}

type extraction struct {
	start, end, purpose, date candidate
	rangeStart, rangeEnd      moment
	rangeCand                 candidate
	startM, endM              moment
}

// Extract locates the start, end and purpose of a reservation in arbitrary
// JSON. It never fails: anything it cannot identify is left nil, including
// everything when raw is not valid JSON.
func Extract(raw []byte) ExtractedFields {
	doc, err := parseDocument(raw)
	if err != nil {
		return ExtractedFields{}
	}
	return extractFields(doc)
}

func extractFields(doc *node) ExtractedFields {
	var ex extraction
	ex.walk(doc, 0, "")

	var out ExtractedFields

	if ex.purpose.node != nil {
		p := strings.TrimSpace(ex.purpose.node.str)
		out.Purpose = &p
		out.PurposePath = ex.purpose.path
	}

	start, end := ex.startM, ex.endM
	hasStart, hasEnd := ex.start.node != nil, ex.end.node != nil
	out.StartPath, out.EndPath = ex.start.path, ex.end.path

	if !hasStart && !hasEnd {
		switch {
		case ex.rangeCand.node != nil:
			start, end = ex.rangeStart, ex.rangeEnd
			hasStart, hasEnd = true, true
			out.StartPath, out.EndPath = ex.rangeCand.path, ex.rangeCand.path
		case out.Purpose != nil:
			if s, e, ok := parseClockRange(*out.Purpose); ok {
				start, end = s, e
				hasStart, hasEnd = true, true
				out.StartPath, out.EndPath = out.PurposePath, out.PurposePath
			}
		}
	}

	day := referenceDate
	switch {
	case ex.date.node != nil:
		day, _ = parseDate(ex.date.node)
	case hasStart && start.dated:
		day = start.at
	case hasEnd && end.dated:
		day = end.at
	}

	if hasStart {
		t := anchor(start, day)
		out.Start = &t
	}
	if hasEnd {
		t := anchor(end, day)
		out.End = &t
	}
	return out
}

func (ex *extraction) walk(n *node, depth int, path string) {
	switch n.kind {
	case kindObject:
		for _, f := range n.fields {
			childPath := joinPath(path, f.key)
			ex.consider(f.key, f.value, depth, childPath)
			ex.walk(f.value, depth+1, childPath)
		}
	case kindArray:
		for i, item := range n.items {
			ex.walk(item, depth+1, path+"["+strconv.Itoa(i)+"]")
		}
	}
}

// consider offers one key/value pair to every role it could fill.
func (ex *extraction) consider(key string, value *node, depth int, path string) {
	words := keyWords(key)

	if q := matchName(words, names[roleStart]); q != noMatch {
		if m, ok := momentOf(value); ok && ex.start.offer(q, depth, path, value) {
			ex.startM = m
		}
	}

	if q := matchName(words, names[roleEnd]); q != noMatch {
		if m, ok := momentOf(value); ok && ex.end.offer(q, depth, path, value) {
			ex.endM = m
		}
	}

	if q := matchName(words, names[rolePurpose]); q != noMatch && isPurposeText(value) {
		_ = ex.purpose.offer(q, depth, path, value)
	}

	if q := matchName(words, names[roleDate]); q != noMatch {
		if _, ok := parseDate(value); ok {
			_ = ex.date.offer(q, depth, path, value)
		}
	}

	if q := matchName(words, names[roleRange]); q != noMatch && value.kind == kindString {
		if s, e, ok := parseClockRange(value.str); ok && ex.rangeCand.offer(q, depth, path, value) {
			ex.rangeStart, ex.rangeEnd = s, e
		}
	}
}

// momentOf reads a timestamp from a scalar, or from an object that splits it
// into date and time parts such as {"date": "2025-05-01", "time": "09:00"}.
func momentOf(n *node) (moment, bool) {
	if n.kind != kindObject {
		return parseMoment(n)
	}

	if v, ok := n.lookup(func(k string) bool {
		switch joinWords(keyWords(k)) {
		case "datetime", "timestamp", "value", "iso":
			return true
		}
		return false
	}); ok {
		if m, ok := parseMoment(v); ok {
			return m, true
		}
	}

	clockNode, ok := n.lookup(func(k string) bool { return joinWords(keyWords(k)) == "time" })
	if !ok {
		return moment{}, false
	}
	m, ok := parseMoment(clockNode)
	if !ok {
		return moment{}, false
	}
	if dateNode, ok := n.lookup(func(k string) bool {
		w := joinWords(keyWords(k))
		return w == "date" || w == "day"
	}); ok && !m.dated {
		if d, ok := parseDate(dateNode); ok {
			return moment{at: anchor(m, d), dated: true}, true
		}
	}
	return m, true
}

// isPurposeText accepts non-empty strings that are not themselves timestamps.
func isPurposeText(n *node) bool {
	if n.kind != kindString || strings.TrimSpace(n.str) == "" {
		return false
	}
	_, isTime := parseMomentText(n.str)
	return !isTime
}

// matchName grades a key, given as folded words, against a role's names.
func matchName(words []string, rn roleNames) nameQuality {
	if len(words) == 0 {
		return noMatch
	}

	joined := joinWords(words)
	if joined == rn.canonical {
		return exactMatch
	}
	if _, ok := rn.dayNames[joined]; ok {
		return daySynonymMatch
	}
	if _, ok := rn.synonyms[joined]; ok {
		return synonymMatch
	}

	for i := 1; i < len(words); i++ {
		if _, ok := rn.affixes[joinWords(words[:i])]; ok {
			return affixMatch
		}
		if _, ok := rn.affixes[joinWords(words[i:])]; ok {
			return affixMatch
		}
	}
	return noMatch
}

// keyWords splits a key on separators and camelCase boundaries and case-folds
// each word: "startTime", "start_time" and "Start-Time" all become
// ["start", "time"].
func keyWords(key string) []string {
	var words []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, cases.Fold().String(string(cur)))
			cur = cur[:0]
		}
	}

	runes := []rune(key)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func joinWords(words []string) string {
	return strings.Join(words, "")
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
