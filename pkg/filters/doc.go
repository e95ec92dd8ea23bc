// Package filters implements the concrete sub-filtering steps.
//
// Steps operate on three kinds of opaque tokens:
//
//   - masked XLIFF tags, `##LESSTHAN##<base64 of tag body>##GREATERTHAN##`,
//     produced by [PlaceHoldXliffTags] so that entity and HTML steps cannot
//     corrupt author tags;
//   - sub-filtered placeholders, `<ph id="mtc_N" equiv-text="base64:…"/>`,
//     produced by [HtmlToPh], [SprintfToPh] and [TwigToPh] for markup that
//     external services must not see;
//   - control-character placeholders, `##$_XX$##`, produced by
//     [PlaceHoldCtrlCharsForView] for the editor.
//
// Every token has an exact inverse step. No step detects tokens produced
// by a later step; correctness depends on the order in which a direction
// arranges them.
package filters
