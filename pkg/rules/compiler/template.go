package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// template is a parsed finding description: literal segments interleaved with
// {{attr}} attribute references resolved against the matched fact.
type template struct {
	segments []segment
}

type segment struct {
	text string
	attr string
}

// parseTemplate splits text on {{attr}} placeholders. An unterminated
// placeholder is a compile error.
func parseTemplate(text string) (*template, error) {
	tmpl := &template{}
	for len(text) > 0 {
		start := strings.Index(text, "{{")
		if start < 0 {
			tmpl.segments = append(tmpl.segments, segment{text: text})
			break
		}
		if start > 0 {
			tmpl.segments = append(tmpl.segments, segment{text: text[:start]})
		}
		end := strings.Index(text[start:], "}}")
		if end < 0 {
			return nil, fmt.Errorf("unterminated {{placeholder}} in description template")
		}
		attr := strings.TrimSpace(text[start+2 : start+end])
		if attr == "" {
			return nil, fmt.Errorf("empty {{placeholder}} in description template")
		}
		tmpl.segments = append(tmpl.segments, segment{attr: attr})
		text = text[start+end+2:]
	}
	return tmpl, nil
}

// render resolves placeholders against a fact attribute bag. Dot paths walk
// nested maps; a missing attribute renders as an empty string.
func (t *template) render(attrs map[string]any) string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.attr == "" {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(formatValue(lookupPath(seg.attr, attrs)))
	}
	return b.String()
}

func lookupPath(path string, attrs map[string]any) any {
	var current any = attrs
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

func formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprintf("%v", val)
}
