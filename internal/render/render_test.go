package render_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintlab/studio/internal/render"
)

func fromJSON(t *testing.T, raw string) string {
	t.Helper()
	out, err := render.FromJSON(json.RawMessage(raw))
	require.NoError(t, err)
	return out
}

func TestFromJSON_EmptyAndPlain(t *testing.T) {
	assert.Equal(t, "", fromJSON(t, `{}`))
	assert.Equal(t, "", fromJSON(t, `null`))
	// An object without a recognised type renders nothing even with fields.
	assert.Equal(t, "", fromJSON(t, `{"title":"Login flow"}`))

	out, err := render.FromJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestFromJSON_ParagraphAndHeading(t *testing.T) {
	doc := `{
		"type": "doc",
		"content": [
			{"type": "heading", "attrs": {"level": 2}, "content": [{"type": "text", "text": "Login"}]},
			{"type": "paragraph", "content": [{"type": "text", "text": "Users sign in with email."}]}
		]
	}`
	assert.Equal(t, "## Login\nUsers sign in with email.", fromJSON(t, doc))
}

func TestFromJSON_HeadingLevelClamped(t *testing.T) {
	doc := `{"type":"heading","attrs":{"level":9},"content":[{"type":"text","text":"deep"}]}`
	assert.Equal(t, "###### deep\n", fromJSON(t, doc))

	doc = `{"type":"heading","content":[{"type":"text","text":"plain"}]}`
	assert.Equal(t, "# plain\n", fromJSON(t, doc))
}

func TestFromJSON_Lists(t *testing.T) {
	bullets := `{
		"type": "bulletList",
		"content": [
			{"type": "listItem", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "first"}]}]},
			{"type": "listItem", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "second"}]}]}
		]
	}`
	assert.Equal(t, "- first\n- second\n", fromJSON(t, bullets))

	ordered := `{
		"type": "orderedList",
		"content": [
			{"type": "listItem", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "one"}]}]},
			{"type": "listItem", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "two"}]}]}
		]
	}`
	assert.Equal(t, "1. one\n2. two\n", fromJSON(t, ordered))
}

func TestFromJSON_ListItemMultiline(t *testing.T) {
	doc := `{
		"type": "bulletList",
		"content": [
			{"type": "listItem", "content": [
				{"type": "paragraph", "content": [{"type": "text", "text": "line one"}]},
				{"type": "paragraph", "content": [{"type": "text", "text": "line two"}]}
			]}
		]
	}`
	// The item indents its own continuation lines, then the list marker
	// indents once more.
	assert.Equal(t, "- line one\n    line two\n", fromJSON(t, doc))
}

func TestFromJSON_Blockquote(t *testing.T) {
	doc := `{
		"type": "blockquote",
		"content": [
			{"type": "paragraph", "content": [{"type": "text", "text": "quoted"}]},
			{"type": "paragraph", "content": [{"type": "text", "text": "more"}]}
		]
	}`
	assert.Equal(t, "> quoted\n> more\n", fromJSON(t, doc))
}

func TestFromJSON_CodeBlock(t *testing.T) {
	plain := `{"type":"codeBlock","content":[{"type":"text","text":"x := 1"}]}`
	assert.Equal(t, "```\nx := 1\n```\n", fromJSON(t, plain))

	withLang := `{"type":"codeBlock","attrs":{"language":"go"},"content":[{"type":"text","text":"x := 1"}]}`
	assert.Equal(t, "```go\nx := 1\n```\n", fromJSON(t, withLang))
}

func TestFromJSON_HardBreakAndRule(t *testing.T) {
	doc := `{
		"type": "doc",
		"content": [
			{"type": "paragraph", "content": [
				{"type": "text", "text": "first"},
				{"type": "hardBreak"},
				{"type": "text", "text": "second"}
			]},
			{"type": "horizontalRule"}
		]
	}`
	assert.Equal(t, "first\nsecond\n---", fromJSON(t, doc))
}

func TestFromJSON_UnknownTypeRecurses(t *testing.T) {
	doc := `{
		"type": "customWrapper",
		"content": [
			{"type": "paragraph", "content": [{"type": "text", "text": "wrapped"}]}
		]
	}`
	assert.Equal(t, "wrapped\n", fromJSON(t, doc))
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := render.FromJSON(json.RawMessage(`{`))
	assert.Error(t, err)
}
