// Package render converts rich-text document JSON into plain readable text
// (Markdown-like) for inclusion in assembled context. The input is the tree
// structure produced by the editor: nodes with a type, optional attrs, and a
// content list of child nodes.
package render

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FromJSON decodes raw document JSON and renders it as readable text. Empty
// input renders as the empty string.
func FromJSON(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	return Text(doc), nil
}

// Text renders a decoded document node (or any subtree) as readable text.
// Recognised node types get Markdown-flavoured output; unknown types render
// as the concatenation of their children, so a plain object with no type
// renders as the empty string.
func Text(doc any) string {
	node, ok := doc.(map[string]any)
	if !ok {
		return scalarText(doc)
	}
	nodeType, _ := node["type"].(string)
	content, _ := node["content"].([]any)

	switch nodeType {
	case "text":
		s, _ := node["text"].(string)
		return strings.TrimSpace(s)

	case "doc":
		return strings.TrimSpace(joinBlocks(content))

	case "paragraph":
		return inlineText(content) + "\n"

	case "heading":
		level := headingLevel(node)
		return strings.Repeat("#", level) + " " + strings.TrimSpace(inlineText(content)) + "\n"

	case "bulletList":
		return listItems(content, false) + "\n"

	case "orderedList":
		return listItems(content, true) + "\n"

	case "listItem":
		raw := strings.ReplaceAll(strings.TrimSpace(joinBlocks(content)), "\n", "\n  ")
		if raw == "" {
			return ""
		}
		return raw + "\n"

	case "blockquote":
		raw := strings.TrimSpace(joinBlocks(content))
		lines := strings.Split(raw, "\n")
		for i, line := range lines {
			lines[i] = "> " + line
		}
		return strings.Join(lines, "\n") + "\n"

	case "codeBlock":
		raw := inlineText(content)
		if lang := codeLanguage(node); lang != "" {
			return "```" + lang + "\n" + raw + "\n```\n"
		}
		return "```\n" + raw + "\n```\n"

	case "horizontalRule":
		return "---\n"
	}

	// Unknown node: recurse into content and concatenate.
	return joinBlocks(content)
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []any:
		var b strings.Builder
		for _, item := range t {
			b.WriteString(Text(item))
		}
		return b.String()
	default:
		return ""
	}
}

func headingLevel(node map[string]any) int {
	level := 1
	if attrs, ok := node["attrs"].(map[string]any); ok {
		switch raw := attrs["level"].(type) {
		case float64:
			if raw != 0 {
				level = int(raw)
			}
		case string:
			if n, err := strconv.Atoi(raw); err == nil && n != 0 {
				level = n
			}
		}
	}
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return level
}

func codeLanguage(node map[string]any) string {
	if attrs, ok := node["attrs"].(map[string]any); ok {
		if lang, ok := attrs["language"].(string); ok {
			return strings.TrimSpace(lang)
		}
	}
	return ""
}

// inlineText flattens inline nodes (a paragraph's content) into one line.
// hardBreak becomes a newline; doubled newlines collapse once.
func inlineText(nodes []any) string {
	var b strings.Builder
	for _, n := range nodes {
		node, ok := n.(map[string]any)
		if !ok {
			continue
		}
		switch node["type"] {
		case "text":
			s, _ := node["text"].(string)
			b.WriteString(s)
		case "hardBreak":
			b.WriteString("\n")
		default:
			b.WriteString(Text(node))
		}
	}
	return strings.Replace(b.String(), "\n\n", "\n", -1)
}

// joinBlocks concatenates the rendered text of block-level nodes.
func joinBlocks(nodes []any) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(Text(n))
	}
	return b.String()
}

// listItems renders list entries, prefixing the first line of each item with
// its marker and continuation lines with two spaces.
func listItems(nodes []any, ordered bool) string {
	var lines []string
	for i, n := range nodes {
		raw := strings.TrimSpace(Text(n))
		if raw == "" {
			continue
		}
		prefix := "- "
		if ordered {
			prefix = strconv.Itoa(i+1) + ". "
		}
		for _, line := range strings.Split(raw, "\n") {
			if line == "" {
				lines = append(lines, "")
			} else {
				lines = append(lines, prefix+line)
			}
			prefix = "  "
		}
	}
	return strings.Join(lines, "\n")
}
