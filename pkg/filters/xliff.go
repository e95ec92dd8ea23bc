package filters

import (
	"encoding/base64"
	"strings"

	"github.com/hupe1980/subfilter/pkg/pipeline"
)

// PlaceHoldXliffTags masks every XLIFF inline tag (g, x, bx, ex, bpt, ept,
// ph, it, mrk) as `##LESSTHAN##<base64 body>##GREATERTHAN##` so that later
// entity and HTML steps leave author tags alone.
//
// It rejects segments that already carry the reserved markers, that
// contain an unterminated XLIFF tag, or whose ph tags share an id.
type PlaceHoldXliffTags struct{}

// Name implements pipeline.Step.
func (PlaceHoldXliffTags) Name() string { return "PlaceHoldXliffTags" }

// Transform implements pipeline.Step.
func (s PlaceHoldXliffTags) Transform(segment string) (string, error) {
	if containsMarker(segment) {
		i := strings.Index(segment, LtPlaceholder)
		if i < 0 {
			i = strings.Index(segment, GtPlaceholder)
		}

		return "", pipeline.NewValidationError(s.Name(), segment[i:], "reserved placeholder marker in input")
	}

	matches := xliffTagRe.FindAllStringSubmatchIndex(segment, -1)

	complete := make(map[int]bool, len(matches))
	for _, m := range matches {
		complete[m[0]] = true
	}

	for _, loc := range xliffOpenerRe.FindAllStringIndex(segment, -1) {
		if !complete[loc[0]] {
			return "", pipeline.NewValidationError(s.Name(), segment[loc[0]:], "unterminated tag")
		}
	}

	if len(matches) == 0 {
		return segment, nil
	}

	seen := make(map[string]bool)

	var b strings.Builder
	b.Grow(len(segment) + len(matches)*len(LtPlaceholder+GtPlaceholder))

	prev := 0
	for _, m := range matches {
		tag := segment[m[0]:m[1]]
		closing := m[3] > m[2]
		name := segment[m[4]:m[5]]
		attrs := segment[m[6]:m[7]]

		if !closing && strings.EqualFold(name, "ph") {
			if id, ok := tagID(attrs); ok {
				if seen[id] {
					return "", pipeline.NewValidationError(s.Name(), tag, "duplicate placeholder id "+`"`+id+`"`)
				}

				seen[id] = true
			}
		}

		b.WriteString(segment[prev:m[0]])
		b.WriteString(LtPlaceholder)
		b.WriteString(base64.StdEncoding.EncodeToString([]byte(tag[1 : len(tag)-1])))
		b.WriteString(GtPlaceholder)
		prev = m[1]
	}

	b.WriteString(segment[prev:])

	return b.String(), nil
}

// RestoreXliffTagsContent decodes the body of masked XLIFF tags while
// keeping the reserved markers, so that later steps can inspect the tag
// text before RestorePlaceHoldersToXLIFFLtGt turns the markers back into
// angle brackets.
type RestoreXliffTagsContent struct{}

// Name implements pipeline.Step.
func (RestoreXliffTagsContent) Name() string { return "RestoreXliffTagsContent" }

// Transform implements pipeline.Step.
func (s RestoreXliffTagsContent) Transform(segment string) (string, error) {
	return replaceMasked(s.Name(), segment, func(body string) string {
		return LtPlaceholder + body + GtPlaceholder
	})
}

// RestoreXliffTagsForView turns masked XLIFF tags directly back into
// literal tags.
type RestoreXliffTagsForView struct{}

// Name implements pipeline.Step.
func (RestoreXliffTagsForView) Name() string { return "RestoreXliffTagsForView" }

// Transform implements pipeline.Step.
func (s RestoreXliffTagsForView) Transform(segment string) (string, error) {
	return replaceMasked(s.Name(), segment, func(body string) string {
		return "<" + body + ">"
	})
}

// RestorePlaceHoldersToXLIFFLtGt replaces the remaining reserved markers
// with angle brackets.
type RestorePlaceHoldersToXLIFFLtGt struct{}

var markerReplacer = strings.NewReplacer(LtPlaceholder, "<", GtPlaceholder, ">")

// Name implements pipeline.Step.
func (RestorePlaceHoldersToXLIFFLtGt) Name() string { return "RestorePlaceHoldersToXLIFFLtGt" }

// Transform implements pipeline.Step.
func (RestorePlaceHoldersToXLIFFLtGt) Transform(segment string) (string, error) {
	return markerReplacer.Replace(segment), nil
}

// RestoreEquivTextPhToXliffOriginal works on delimited tags (after
// RestoreXliffTagsContent). A ph tag whose base64 equiv-text decodes to an
// XLIFF inline tag is replaced by that original tag.
//
// Sub-filtered placeholders (mtc_ ids) are never promoted. Author tags are
// masked before HtmlToPh runs, so an mtc_ payload that looks like an XLIFF
// tag was escaped text in storage and must come back as text.
type RestoreEquivTextPhToXliffOriginal struct{}

// Name implements pipeline.Step.
func (RestoreEquivTextPhToXliffOriginal) Name() string { return "RestoreEquivTextPhToXliffOriginal" }

// Transform implements pipeline.Step.
func (s RestoreEquivTextPhToXliffOriginal) Transform(segment string) (string, error) {
	if !strings.Contains(segment, LtPlaceholder) {
		return segment, nil
	}

	var firstErr error

	out := delimitedRe.ReplaceAllStringFunc(segment, func(token string) string {
		if firstErr != nil {
			return token
		}

		body := token[len(LtPlaceholder) : len(token)-len(GtPlaceholder)]

		t := xliffTagExactRe.FindStringSubmatch("<" + body + ">")
		if t == nil || t[1] != "" || !strings.EqualFold(t[2], "ph") {
			return token
		}

		if id, ok := tagID(t[3]); ok && mtcIDRe.MatchString(id) {
			return token
		}

		payload, ok := equivTextPayload(t[3])
		if !ok {
			return token
		}

		original, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			firstErr = pipeline.NewValidationError(s.Name(), token, "invalid base64 equiv-text")
			return token
		}

		if !xliffTagExactRe.Match(original) {
			return token
		}

		return LtPlaceholder + string(original[1:len(original)-1]) + GtPlaceholder
	})

	if firstErr != nil {
		return "", firstErr
	}

	return out, nil
}

// equivTextPayload returns the base64 payload of an equiv-text attribute.
func equivTextPayload(attrs string) (string, bool) {
	const key = `equiv-text="` + Base64Prefix

	i := strings.Index(attrs, key)
	if i < 0 {
		return "", false
	}

	rest := attrs[i+len(key):]

	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", false
	}

	return rest[:end], true
}

// replaceMasked decodes every masked tag body and substitutes render(body).
func replaceMasked(step, segment string, render func(body string) string) (string, error) {
	if !strings.Contains(segment, LtPlaceholder) {
		return segment, nil
	}

	var firstErr error

	out := maskedRe.ReplaceAllStringFunc(segment, func(token string) string {
		if firstErr != nil {
			return token
		}

		encoded := token[len(LtPlaceholder) : len(token)-len(GtPlaceholder)]

		body, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			firstErr = pipeline.NewValidationError(step, token, "invalid base64 tag body")
			return token
		}

		return render(string(body))
	})

	if firstErr != nil {
		return "", firstErr
	}

	return out, nil
}
