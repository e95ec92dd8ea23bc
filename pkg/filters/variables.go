package filters

import "regexp"

var (
	// sprintfRe matches printf-style conversions: %s, %1$d, %-5.2f, %@.
	// A literal "%%" is matched so it can be skipped.
	sprintfRe = regexp.MustCompile(`%%|%(?:[1-9][0-9]*\$)?[-+0#]*[0-9]*(?:\.[0-9]+)?[bcdeEfFgGiosuxX@]`)

	// twigRe matches Twig expressions, statements and comments.
	twigRe = regexp.MustCompile(`(?s)\{\{.*?\}\}|\{%.*?%\}|\{#.*?#\}`)
)

// SprintfToPh masks printf-style variables outside tags into sub-filtered
// placeholders. It is not part of any default direction; features insert
// it after HtmlToPh.
type SprintfToPh struct{}

// Name implements pipeline.Step.
func (SprintfToPh) Name() string { return "SprintfToPh" }

// Transform implements pipeline.Step.
func (SprintfToPh) Transform(segment string) (string, error) {
	return maskVariables(segment, sprintfRe, func(m string) bool { return m != "%%" }), nil
}

// TwigToPh masks Twig template syntax outside tags into sub-filtered
// placeholders.
type TwigToPh struct{}

// Name implements pipeline.Step.
func (TwigToPh) Name() string { return "TwigToPh" }

// Transform implements pipeline.Step.
func (TwigToPh) Transform(segment string) (string, error) {
	return maskVariables(segment, twigRe, nil), nil
}

// maskVariables replaces every match of re outside tags (and accepted by
// keep, when given) with a placeholder, continuing the segment's mtc_
// numbering. A match spanning a masked XLIFF tag is left alone.
func maskVariables(segment string, re *regexp.Regexp, keep func(string) bool) string {
	if !re.MatchString(segment) {
		return segment
	}

	next := nextPlaceholderID(segment)

	return mapText(segment, func(text string) string {
		return re.ReplaceAllStringFunc(text, func(m string) string {
			if containsMarker(m) || (keep != nil && !keep(m)) {
				return m
			}

			ph := newPlaceholder(next, m)
			next++

			return ph
		})
	})
}
