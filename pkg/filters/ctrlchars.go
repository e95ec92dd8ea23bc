package filters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ctrlPlaceholderRe matches a control-character placeholder. 0D0A is the
// legacy CR LF form and is accepted on input only.
var ctrlPlaceholderRe = regexp.MustCompile(`##\$_(0D0A|[0-9A-F]{2})\$##`)

// isViewMasked reports whether r is hidden from the editor behind a
// placeholder: C0 controls, DEL and NO-BREAK SPACE.
func isViewMasked(r rune) bool {
	return r < 0x20 || r == 0x7F || r == 0xA0
}

// CtrlPlaceholder returns the editor placeholder for r, e.g. "##$_0A$##".
func CtrlPlaceholder(r rune) string {
	return fmt.Sprintf("##$_%02X$##", r)
}

// PlaceHoldCtrlCharsForView replaces control characters and non-breaking
// spaces with `##$_XX$##` placeholders for the editor.
type PlaceHoldCtrlCharsForView struct{}

// Name implements pipeline.Step.
func (PlaceHoldCtrlCharsForView) Name() string { return "PlaceHoldCtrlCharsForView" }

// Transform implements pipeline.Step.
func (PlaceHoldCtrlCharsForView) Transform(segment string) (string, error) {
	var b strings.Builder

	changed := false

	for i := 0; i < len(segment); {
		r, size := utf8.DecodeRuneInString(segment[i:])

		if r != utf8.RuneError && isViewMasked(r) {
			if !changed {
				b.Grow(len(segment) + 16)
				b.WriteString(segment[:i])
				changed = true
			}

			b.WriteString(CtrlPlaceholder(r))
		} else if changed {
			// Invalid bytes are copied verbatim.
			b.WriteString(segment[i : i+size])
		}

		i += size
	}

	if !changed {
		return segment, nil
	}

	return b.String(), nil
}

// CtrlCharsPlaceHoldToAscii turns `##$_XX$##` placeholders back into the
// characters PlaceHoldCtrlCharsForView hid. Placeholders for any other code
// are left untouched.
type CtrlCharsPlaceHoldToAscii struct{}

// Name implements pipeline.Step.
func (CtrlCharsPlaceHoldToAscii) Name() string { return "CtrlCharsPlaceHoldToAscii" }

// Transform implements pipeline.Step.
func (CtrlCharsPlaceHoldToAscii) Transform(segment string) (string, error) {
	if !strings.Contains(segment, "##$_") {
		return segment, nil
	}

	return ctrlPlaceholderRe.ReplaceAllStringFunc(segment, func(token string) string {
		code := token[len("##$_") : len(token)-len("$##")]
		if code == "0D0A" {
			return "\r\n"
		}

		n, err := strconv.ParseUint(code, 16, 8)
		if err != nil || !isViewMasked(rune(n)) {
			return token
		}

		return string(rune(n))
	}), nil
}
