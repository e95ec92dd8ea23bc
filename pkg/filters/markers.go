package filters

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
)

// Reserved markers delimiting a masked XLIFF tag.
const (
	LtPlaceholder = "##LESSTHAN##"
	GtPlaceholder = "##GREATERTHAN##"
)

// Wire format of sub-filtered placeholders.
const (
	PlaceholderIDPrefix = "mtc_"
	Base64Prefix        = "base64:"
)

var (
	// xliffTagRe matches a complete XLIFF inline tag. Group 1 is the
	// closing slash, group 2 the tag name, group 3 the attributes including
	// a trailing self-closing slash.
	xliffTagRe = regexp.MustCompile(`(?i)<(/?)(g|x|bx|ex|bpt|ept|ph|it|mrk)((?:[\s/][^<>]*)?)>`)

	// xliffTagExactRe is xliffTagRe anchored to a whole string.
	xliffTagExactRe = regexp.MustCompile(`(?i)^<(/?)(g|x|bx|ex|bpt|ept|ph|it|mrk)((?:[\s/][^<>]*)?)>$`)

	// xliffOpenerRe matches the start of anything that claims to be an
	// XLIFF inline tag, terminated or not.
	xliffOpenerRe = regexp.MustCompile(`(?i)</?(?:g|x|bx|ex|bpt|ept|ph|it|mrk)(?:[\s/>]|$)`)

	maskedRe    = regexp.MustCompile(`##LESSTHAN##([A-Za-z0-9+/=]*)##GREATERTHAN##`)
	delimitedRe = regexp.MustCompile(`(?s)##LESSTHAN##(.*?)##GREATERTHAN##`)

	idAttrRe = regexp.MustCompile(`(?i)\sid\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	mtcIDRe  = regexp.MustCompile(`^mtc_(\d+)$`)

	// subFilteredRe matches placeholders in the exact form newPlaceholder
	// writes them.
	subFilteredRe = regexp.MustCompile(`<ph id="mtc_\d+" equiv-text="base64:([^"]*)"\s*/>`)
)

// newPlaceholder renders a sub-filtered placeholder for raw.
func newPlaceholder(id int, raw string) string {
	var b strings.Builder

	b.WriteString(`<ph id="`)
	b.WriteString(PlaceholderIDPrefix)
	b.WriteString(strconv.Itoa(id))
	b.WriteString(`" equiv-text="`)
	b.WriteString(Base64Prefix)
	b.WriteString(base64.StdEncoding.EncodeToString([]byte(raw)))
	b.WriteString(`"/>`)

	return b.String()
}

// tagID extracts the id attribute from the attribute part of a tag.
func tagID(attrs string) (string, bool) {
	m := idAttrRe.FindStringSubmatchIndex(attrs)
	if m == nil {
		return "", false
	}

	if m[2] >= 0 {
		return attrs[m[2]:m[3]], true
	}

	return attrs[m[4]:m[5]], true
}

// nextPlaceholderID returns one more than the highest mtc_ id used by a ph
// tag of segment, looking at literal and masked tags alike.
func nextPlaceholderID(segment string) int {
	highest := 0

	observe := func(name, attrs string) {
		if !strings.EqualFold(name, "ph") {
			return
		}

		id, ok := tagID(attrs)
		if !ok {
			return
		}

		if m := mtcIDRe.FindStringSubmatch(id); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
				highest = n
			}
		}
	}

	for _, m := range xliffTagRe.FindAllStringSubmatch(segment, -1) {
		observe(m[2], m[3])
	}

	for _, m := range maskedRe.FindAllStringSubmatch(segment, -1) {
		body, err := base64.StdEncoding.DecodeString(m[1])
		if err != nil {
			continue
		}

		if t := xliffTagExactRe.FindStringSubmatch("<" + string(body) + ">"); t != nil {
			observe(t[2], t[3])
		}
	}

	return highest + 1
}

// mapText applies fn to the text between recognized XLIFF tags, leaving
// the tags themselves byte-identical.
func mapText(segment string, fn func(string) string) string {
	locs := xliffTagRe.FindAllStringIndex(segment, -1)
	if locs == nil {
		return fn(segment)
	}

	var b strings.Builder
	b.Grow(len(segment))

	prev := 0
	for _, loc := range locs {
		b.WriteString(fn(segment[prev:loc[0]]))
		b.WriteString(segment[loc[0]:loc[1]])
		prev = loc[1]
	}

	b.WriteString(fn(segment[prev:]))

	return b.String()
}

// containsMarker reports whether s carries a reserved XLIFF tag marker.
func containsMarker(s string) bool {
	return strings.Contains(s, LtPlaceholder) || strings.Contains(s, GtPlaceholder)
}
