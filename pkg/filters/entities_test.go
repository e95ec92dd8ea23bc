package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntitiesDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"predefined", `&lt;b&gt; &amp;`, `<b> &`},
		{"quote entities stay", `say &quot;hi&quot; it&apos;s`, `say &quot;hi&quot; it&apos;s`},
		{"quote references stay", "&#34;x&#x22; &#39;", "&#34;x&#x22; &#39;"},
		{"numeric", "&#65;&#x42;&#X43;&#10;&#09;", "ABC\n\t"},
		{"html named entities are text", "a&nbsp;b", "a&nbsp;b"},
		{"decodes once", "&amp;lt;", "&lt;"},
		{"bare ampersand", "fish & chips", "fish & chips"},
		{"no entities", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transform(t, EntitiesDecode{}, tt.in))
		})
	}
}

func TestEntitiesDecode_LeavesMaskedTags(t *testing.T) {
	in := masked(`ph id="1" equiv-text="&lt;br/&gt;"/`) + " &amp;"
	assert.Equal(t, masked(`ph id="1" equiv-text="&lt;br/&gt;"/`)+" &", transform(t, EntitiesDecode{}, in))
}

func TestEntitiesDecode_InvalidReferences(t *testing.T) {
	for _, in := range []string{"&#0;", "&#xD800;", "&#99999999999;", "&#x110000;"} {
		t.Run(in, func(t *testing.T) {
			requireValidation(t, EntitiesDecode{}, "x "+in, "character reference")
		})
	}
}

func TestEncodeToRawXML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"escapes specials", "a & b < c > d", "a &amp; b &lt; c &gt; d"},
		{"keeps entities", "&amp; &lt; &gt; &quot; &apos; &#10; &#x41;", "&amp; &lt; &gt; &quot; &apos; &#10; &#x41;"},
		{"html entity is text", "&nbsp;", "&amp;nbsp;"},
		{"control characters", "a\tb\nc\rd", "a&#09;b&#10;c&#13;d"},
		{"quotes untouched", `"it's"`, `"it's"`},
		{"masked tags untouched", masked(`g id="1"`), masked(`g id="1"`)},
		{"unicode untouched", "日本 ü\u00a0", "日本 ü\u00a0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transform(t, EncodeToRawXML{}, tt.in))
		})
	}
}

func TestEncodeToRawXML_Idempotent(t *testing.T) {
	once := transform(t, EncodeToRawXML{}, "a & b <c>\n")
	assert.Equal(t, once, transform(t, EncodeToRawXML{}, once))
}

func TestHtmlToEntities(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;x&lt;/b&gt; &amp;", transform(t, HtmlToEntities{}, "<b>x</b> &amp;"))
	assert.Equal(t, masked("x/"), transform(t, HtmlToEntities{}, masked("x/")))
}

func TestEscapeXML_Double(t *testing.T) {
	assert.Equal(t, "&amp;amp;&lt;&#10;", escapeXML("&amp;<\n", true))
	assert.Equal(t, "&amp;&lt;&#10;", escapeXML("&amp;<\n", false))
	assert.Equal(t, "&quot;&#39;&amp;amp;", escapeXML("&quot;&#39;&amp;", true))
}
