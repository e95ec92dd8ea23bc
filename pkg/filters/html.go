package filters

import (
	"encoding/base64"
	"strings"

	"golang.org/x/net/html"

	"github.com/hupe1980/subfilter/pkg/pipeline"
)

// HtmlToPh replaces literal HTML markup with sub-filtered placeholders
// whose equiv-text is the base64 of the original bytes.
//
// The segment is tokenized with golang.org/x/net/html rather than a regular
// expression so that quoted attributes containing '>' stay inside their tag.
// Start, end and self-closing tags, complete comments and doctypes are
// masked. Everything else, including stray '<' characters, bogus comments
// and unterminated tags, is passed through unchanged for the LtGt steps.
type HtmlToPh struct{}

// Name implements pipeline.Step.
func (HtmlToPh) Name() string { return "HtmlToPh" }

// Transform implements pipeline.Step.
func (HtmlToPh) Transform(segment string) (string, error) {
	if !strings.Contains(segment, "<") {
		return segment, nil
	}

	next := nextPlaceholderID(segment)
	z := html.NewTokenizer(strings.NewReader(segment))

	var b strings.Builder
	b.Grow(len(segment) * 2)

	pos := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// Bytes of an unterminated construct at the end never make it
			// into a token.
			b.WriteString(segment[pos:])
			break
		}

		raw := string(z.Raw())
		pos += len(raw)

		// Content of <script>, <style> and friends is markup-bearing text
		// here, not raw text.
		if tt == html.StartTagToken {
			z.NextIsNotRawText()
		}

		if maskableMarkup(tt, raw) {
			b.WriteString(newPlaceholder(next, raw))
			next++

			continue
		}

		b.WriteString(raw)
	}

	return b.String(), nil
}

func maskableMarkup(tt html.TokenType, raw string) bool {
	if containsMarker(raw) {
		return false
	}

	switch tt {
	case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken, html.DoctypeToken:
		return true
	case html.CommentToken:
		return strings.HasPrefix(raw, "<!--") && strings.HasSuffix(raw, "-->") && len(raw) >= len("<!---->")
	default:
		return false
	}
}

// SubFilteredPhToHtml restores sub-filtered placeholders to the markup they
// mask, fully XML-escaped, which is the form markup has in storage.
type SubFilteredPhToHtml struct{}

// Name implements pipeline.Step.
func (SubFilteredPhToHtml) Name() string { return "SubFilteredPhToHtml" }

// Transform implements pipeline.Step.
func (s SubFilteredPhToHtml) Transform(segment string) (string, error) {
	if !strings.Contains(segment, PlaceholderIDPrefix) {
		return segment, nil
	}

	var firstErr error

	out := subFilteredRe.ReplaceAllStringFunc(segment, func(tag string) string {
		if firstErr != nil {
			return tag
		}

		m := subFilteredRe.FindStringSubmatch(tag)

		raw, err := base64.StdEncoding.DecodeString(m[1])
		if err != nil {
			firstErr = pipeline.NewValidationError(s.Name(), tag, "invalid base64 equiv-text")
			return tag
		}

		return escapeXML(string(raw), true)
	})

	if firstErr != nil {
		return "", firstErr
	}

	return out, nil
}
