package subfilter

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/subfilter/pkg/filters"
	"github.com/hupe1980/subfilter/pkg/pipeline"
)

// ---------------------------------------------------------------------------
// Directions
// ---------------------------------------------------------------------------

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"fromLayer0ToLayer2", FromLayer0ToLayer2},
		{"FROMLAYER0TOLAYER2", FromLayer0ToLayer2},
		{"storage-to-ui", FromLayer0ToLayer2},
		{"external-to-ui", FromLayer1ToLayer2},
		{"ui-to-storage", FromLayer2ToLayer0},
		{"storage-to-external", FromLayer0ToLayer1},
		{"external-to-storage", FromLayer1ToLayer0},
		{"file-to-storage", FromRawXliffToLayer0},
		{" storage-to-file ", FromLayer0ToRawXliff},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDirection(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestParseDirection_Unknown(t *testing.T) {
	_, err := ParseDirection("sideways")

	var ude *pipeline.UnsupportedDirectionError
	require.ErrorAs(t, err, &ude)
	assert.Equal(t, "sideways", ude.Direction)
}

func TestDirections_AllValid(t *testing.T) {
	ds := Directions()
	require.Len(t, ds, 7)

	aliases := make(map[string]bool)

	for _, d := range ds {
		assert.True(t, d.Valid(), d)
		assert.NotEmpty(t, d.Description(), d)
		assert.False(t, aliases[d.Alias()], "duplicate alias %s", d.Alias())
		aliases[d.Alias()] = true
	}

	assert.False(t, Direction("nope").Valid())
	assert.Empty(t, Direction("nope").Alias())
}

func TestCanonical_Orderings(t *testing.T) {
	tests := map[Direction][]string{
		FromLayer0ToLayer2: {
			"PlaceHoldXliffTags", "EntitiesDecode", "HtmlToPh", "LtGtDoubleEncode",
			"RestoreXliffTagsForView", "PlaceHoldCtrlCharsForView", "LtGtEncode",
		},
		FromLayer1ToLayer2: {"LtGtDoubleEncode", "LtGtEncode"},
		FromLayer2ToLayer0: {
			"CtrlCharsPlaceHoldToAscii", "PlaceHoldXliffTags", "EncodeToRawXML", "HtmlToEntities",
			"RestoreXliffTagsContent", "RestoreEquivTextPhToXliffOriginal",
			"RestorePlaceHoldersToXLIFFLtGt", "SubFilteredPhToHtml",
		},
		FromLayer0ToLayer1: {
			"PlaceHoldXliffTags", "EncodeToRawXML", "EntitiesDecode", "HtmlToPh",
			"RestoreXliffTagsContent", "RestorePlaceHoldersToXLIFFLtGt",
		},
		FromLayer1ToLayer0: {
			"LtGtDoubleEncode", "SubFilteredPhToHtml", "PlaceHoldXliffTags", "EncodeToRawXML",
			"RestoreXliffTagsContent", "RestorePlaceHoldersToXLIFFLtGt",
		},
		FromRawXliffToLayer0: {
			"PlaceHoldXliffTags", "EncodeToRawXML", "RestoreXliffTagsContent", "RestorePlaceHoldersToXLIFFLtGt",
		},
		FromLayer0ToRawXliff: {"PlaceHoldXliffTags", "HtmlToEntities", "RestoreXliffTagsForView"},
	}

	for d, want := range tests {
		t.Run(string(d), func(t *testing.T) {
			p, err := Canonical(d)
			require.NoError(t, err)

			if diff := cmp.Diff(want, p.Names()); diff != "" {
				t.Errorf("canonical ordering mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

func TestFilter_Conversions(t *testing.T) {
	f := New()

	tests := []struct {
		name    string
		convert func(string) (string, error)
		in      string
		want    string
	}{
		{
			name:    "storage to UI masks markup",
			convert: f.FromLayer0ToLayer2,
			in:      "Hello<br/>World",
			want:    `Hello<ph id="mtc_1" equiv-text="base64:PGJyLz4="/>World`,
		},
		{
			name:    "storage to UI decodes escaped markup first",
			convert: f.FromLayer0ToLayer2,
			in:      "Hello&lt;br/&gt;World",
			want:    `Hello<ph id="mtc_1" equiv-text="base64:PGJyLz4="/>World`,
		},
		{
			name:    "storage to UI keeps author placeholders",
			convert: f.FromLayer0ToLayer2,
			in:      `<ph id="1" equiv-text="&lt;br/&gt;"/>`,
			want:    `<ph id="1" equiv-text="&lt;br/&gt;"/>`,
		},
		{
			name:    "storage to UI hides control characters",
			convert: f.FromLayer0ToLayer2,
			in:      "a&#10;b\tc",
			want:    "a##$_0A$##b##$_09$##c",
		},
		{
			name:    "storage to UI keeps encoded brackets visible",
			convert: f.FromLayer0ToLayer2,
			in:      "a &lt; b &amp;lt; c",
			want:    "a &lt; b &amp;lt; c",
		},
		{
			name:    "external to UI",
			convert: f.FromLayer1ToLayer2,
			in:      "a < b",
			want:    "a &lt; b",
		},
		{
			name:    "UI to storage restores markup",
			convert: f.FromLayer2ToLayer0,
			in:      `Hello<ph id="mtc_1" equiv-text="base64:PGJyLz4="/>World##$_0A$##`,
			want:    "Hello&lt;br/&gt;World&#10;",
		},
		{
			name:    "UI to storage restores xliff tags hidden in author placeholders",
			convert: f.FromLayer2ToLayer0,
			in:      `<ph id="5" equiv-text="base64:PGcgaWQ9IjEiPg=="/>x`,
			want:    `<g id="1">x`,
		},
		{
			name:    "UI to storage keeps escaped xliff text escaped",
			convert: f.FromLayer2ToLayer0,
			in:      `<ph id="mtc_1" equiv-text="base64:PGcgaWQ9IjEiPg=="/>x`,
			want:    `&lt;g id="1"&gt;x`,
		},
		{
			name:    "storage to UI keeps quote entities",
			convert: f.FromLayer0ToLayer2,
			in:      "say &quot;hi&quot; it&apos;s",
			want:    "say &quot;hi&quot; it&apos;s",
		},
		{
			name:    "storage to external",
			convert: f.FromLayer0ToLayer1,
			in:      "Hello&lt;br/&gt;World &amp; more",
			want:    `Hello<ph id="mtc_1" equiv-text="base64:PGJyLz4="/>World & more`,
		},
		{
			name:    "external to storage",
			convert: f.FromLayer1ToLayer0,
			in:      `Hello<ph id="mtc_1" equiv-text="base64:PGJyLz4="/>World & more`,
			want:    "Hello&lt;br/&gt;World &amp; more",
		},
		{
			name:    "raw xliff to storage",
			convert: f.FromRawXliffToLayer0,
			in:      "a < b & <g id=\"1\">c</g>\n",
			want:    `a &lt; b &amp; <g id="1">c</g>&#10;`,
		},
		{
			name:    "storage to raw xliff",
			convert: f.FromLayer0ToRawXliff,
			in:      `<b>x</b> <x id="1"/>`,
			want:    `&lt;b&gt;x&lt;/b&gt; <x id="1"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.convert(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_ExternalToUIIsNotIdempotent(t *testing.T) {
	f := New()

	once, err := f.FromLayer1ToLayer2("a < b")
	require.NoError(t, err)
	assert.Equal(t, "a &lt; b", once)

	twice, err := f.FromLayer1ToLayer2(once)
	require.NoError(t, err)
	assert.Equal(t, "a &amp;lt; b", twice)
}

func TestFilter_FailsFast(t *testing.T) {
	f := New()

	out, err := f.FromLayer0ToLayer2(`<ph id="1" equiv-text="a"/><ph id="1" equiv-text="b"/>`)
	assert.Empty(t, out)

	var ve *pipeline.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "PlaceHoldXliffTags", ve.Step)
}

func TestFilter_UnsupportedDirection(t *testing.T) {
	_, err := New().Convert(Direction("fromLayer3ToLayer9"), "x")

	var ude *pipeline.UnsupportedDirectionError
	require.ErrorAs(t, err, &ude)
}

// ---------------------------------------------------------------------------
// Hooks
// ---------------------------------------------------------------------------

func upper() pipeline.Step {
	return pipeline.StepFunc{StepName: "Upper", Fn: func(s string) (string, error) { return strings.ToUpper(s), nil }}
}

func TestFilter_HookAltersOnlyItsDirection(t *testing.T) {
	hook := HookFunc(func(d Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
		if d == FromLayer1ToLayer2 {
			return p.AddLast(upper()), nil
		}

		return p, nil
	})

	f := New(WithHook(hook))

	got, err := f.FromLayer1ToLayer2("a < b")
	require.NoError(t, err)
	assert.Equal(t, "A &LT; B", got)

	got, err = f.FromLayer0ToLayer1("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestFilter_PipelineIsBuiltPerCall(t *testing.T) {
	calls := 0
	hook := HookFunc(func(_ Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
		calls++
		return p.AddLast(pipeline.StepFunc{StepName: "Suffix", Fn: func(s string) (string, error) { return s + "!", nil }}), nil
	})

	f := New(WithHook(hook))

	for range 3 {
		got, err := f.FromLayer1ToLayer2("x")
		require.NoError(t, err)
		assert.Equal(t, "x!", got)
	}

	assert.Equal(t, 3, calls)
}

func TestFilter_HookDerivedPipeline(t *testing.T) {
	hook := HookFunc(func(d Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
		if d != FromLayer0ToLayer1 {
			return p, nil
		}

		return p.InsertAfter("HtmlToPh", filters.SprintfToPh{})
	})

	f := New(WithHook(hook))

	external, err := f.FromLayer0ToLayer1("Hello %s")
	require.NoError(t, err)
	assert.Equal(t, `Hello <ph id="mtc_1" equiv-text="base64:JXM="/>`, external)

	storage, err := f.FromLayer1ToLayer0(external)
	require.NoError(t, err)
	assert.Equal(t, "Hello %s", storage)
}

func TestFilter_TwigAroundAuthorTags(t *testing.T) {
	hook := HookFunc(func(d Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
		if d != FromLayer0ToLayer1 && d != FromLayer0ToLayer2 {
			return p, nil
		}

		return p.InsertAfter("HtmlToPh", filters.TwigToPh{})
	})

	f := New(WithHook(hook))
	storage := `{{ <g id="1">name</g> }} ok`

	ui, err := f.FromLayer0ToLayer2(storage)
	require.NoError(t, err)
	assert.Equal(t, storage, ui)

	back, err := f.FromLayer2ToLayer0(ui)
	require.NoError(t, err)
	assert.Equal(t, storage, back)

	external, err := f.FromLayer0ToLayer1(storage)
	require.NoError(t, err)
	assert.NotContains(t, external, filters.LtPlaceholder)

	back, err = f.FromLayer1ToLayer0(external)
	require.NoError(t, err)
	assert.Equal(t, storage, back)
}

func TestFilter_HookReturningNil(t *testing.T) {
	f := New(WithHook(HookFunc(func(Direction, *pipeline.Pipeline) (*pipeline.Pipeline, error) {
		return nil, nil
	})))

	_, err := f.FromLayer0ToLayer2("x")

	var ce *pipeline.ConfigurationError
	require.ErrorAs(t, err, &ce)
}

func TestFilter_HookError(t *testing.T) {
	boom := errors.New("boom")

	f := New(WithHook(HookFunc(func(Direction, *pipeline.Pipeline) (*pipeline.Pipeline, error) {
		return nil, boom
	})))

	_, err := f.FromLayer0ToLayer2("x")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fromLayer0ToLayer2")
}

func TestFilter_WithHookReturnsCopy(t *testing.T) {
	base := New()
	hooked := base.WithHook(HookFunc(func(_ Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
		return p.AddLast(upper()), nil
	}))

	got, err := hooked.FromLayer1ToLayer2("x")
	require.NoError(t, err)
	assert.Equal(t, "X", got)

	got, err = base.FromLayer1ToLayer2("x")
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	_, isNop := base.WithHook(nil).hook.(NopHook)
	assert.True(t, isNop)
}

func TestFilter_NilHookIsNop(t *testing.T) {
	assert.IsType(t, NopHook{}, New(WithHook(nil)).hook)
}

func TestFilter_LogsHookAlterations(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hook := HookFunc(func(d Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
		if d == FromLayer1ToLayer2 {
			return p.Without("LtGtDoubleEncode"), nil
		}

		return p, nil
	})

	f := New(WithHook(hook), WithLogger(logger))

	_, err := f.FromLayer0ToLayer1("x")
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	_, err = f.FromLayer1ToLayer2("x")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hook altered pipeline")
	assert.Contains(t, buf.String(), "direction=fromLayer1ToLayer2")
}
