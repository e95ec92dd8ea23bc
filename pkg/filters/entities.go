package filters

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/subfilter/pkg/pipeline"
)

// xmlEntityRe matches the XML predefined entities and numeric character
// references. Named HTML entities such as &nbsp; are plain text in XML and
// are deliberately not matched.
var (
	xmlEntityRe       = regexp.MustCompile(`&(?:#[0-9]+|#[xX][0-9a-fA-F]+|amp|lt|gt|quot|apos);`)
	xmlEntityPrefixRe = regexp.MustCompile(`^&(?:#[0-9]+|#[xX][0-9a-fA-F]+|amp|lt|gt|quot|apos);`)

	// quoteRefPrefixRe matches the references EntitiesDecode leaves alone.
	quoteRefPrefixRe = regexp.MustCompile(`^&(?:quot|apos|#0*3[49]|#[xX]0*2[27]);`)
)

// predefinedEntities lists the entities EntitiesDecode decodes. Quote
// entities are absent: EncodeToRawXML never re-escapes quotes, so they stay
// encoded all the way through.
var predefinedEntities = map[string]string{
	"&amp;": "&",
	"&lt;":  "<",
	"&gt;":  ">",
}

// EntitiesDecode decodes XML entities and numeric character references
// into literal characters. Quote entities and character references to
// quotes are kept as they are.
type EntitiesDecode struct{}

// Name implements pipeline.Step.
func (EntitiesDecode) Name() string { return "EntitiesDecode" }

// Transform implements pipeline.Step.
func (s EntitiesDecode) Transform(segment string) (string, error) {
	if !strings.Contains(segment, "&") {
		return segment, nil
	}

	var firstErr error

	out := xmlEntityRe.ReplaceAllStringFunc(segment, func(ref string) string {
		if firstErr != nil {
			return ref
		}

		if ref == "&quot;" || ref == "&apos;" {
			return ref
		}

		if lit, ok := predefinedEntities[ref]; ok {
			return lit
		}

		r, err := decodeCharRef(ref)
		if err != nil {
			firstErr = pipeline.NewValidationError(s.Name(), ref, err.Error())
			return ref
		}

		if r == '"' || r == '\'' {
			return ref
		}

		return string(r)
	})

	if firstErr != nil {
		return "", firstErr
	}

	return out, nil
}

type charRefError string

func (e charRefError) Error() string { return string(e) }

// decodeCharRef decodes "&#N;" or "&#xH;".
func decodeCharRef(ref string) (rune, error) {
	digits := ref[2 : len(ref)-1]
	base := 10

	if digits[0] == 'x' || digits[0] == 'X' {
		digits = digits[1:]
		base = 16
	}

	n, err := strconv.ParseInt(digits, base, 32)
	if err != nil {
		return 0, charRefError("character reference out of range")
	}

	r := rune(n)
	if r == 0 || !utf8.ValidRune(r) {
		return 0, charRefError("invalid code point in character reference")
	}

	return r, nil
}

// EncodeToRawXML escapes a segment for storage as raw XML without double
// encoding: an ampersand that already starts an XML entity is kept, other
// ampersands and angle brackets are escaped, and TAB, LF and CR become
// numeric character references.
type EncodeToRawXML struct{}

// Name implements pipeline.Step.
func (EncodeToRawXML) Name() string { return "EncodeToRawXML" }

// Transform implements pipeline.Step.
func (EncodeToRawXML) Transform(segment string) (string, error) {
	return escapeXML(segment, false), nil
}

// HtmlToEntities converts literal angle brackets into entities. Masked
// XLIFF tags carry no brackets and are unaffected.
type HtmlToEntities struct{}

var ltgtReplacer = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Name implements pipeline.Step.
func (HtmlToEntities) Name() string { return "HtmlToEntities" }

// Transform implements pipeline.Step.
func (HtmlToEntities) Transform(segment string) (string, error) {
	return ltgtReplacer.Replace(segment), nil
}

// escapeXML escapes &, <, >, TAB, LF and CR. When double is false an
// ampersand starting an XML entity is left alone; when double is true only
// quote references are, since EntitiesDecode never decoded them.
func escapeXML(s string, double bool) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch c {
		case '&':
			keep := xmlEntityPrefixRe
			if double {
				keep = quoteRefPrefixRe
			}

			if loc := keep.FindStringIndex(s[i:]); loc != nil {
				b.WriteString(s[i : i+loc[1]])
				i += loc[1] - 1

				continue
			}

			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\t':
			b.WriteString("&#09;")
		case '\n':
			b.WriteString("&#10;")
		case '\r':
			b.WriteString("&#13;")
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
