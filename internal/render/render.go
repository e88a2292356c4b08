// Package render turns message templates into outbound text. Rendering is a
// total function: whatever is wrong with the template, the caller always
// gets text it can send, with the problem folded into the output and
// reported through an advisory error.
package render

import (
	"fmt"
	"strings"
)

// Vars are the substitution variables a template may reference.
type Vars struct {
	// Content is the reward payload (item code or static content).
	Content string
	// Name is the recipient's display name.
	Name string
}

func (v Vars) lookup(name string) (string, bool) {
	switch name {
	case "content":
		return v.Content, true
	case "name":
		return v.Name, true
	default:
		return "", false
	}
}

// Render substitutes {content} and {name} placeholders. Doubled braces
// escape literal braces. On any template problem the raw template comes
// back with a visible diagnostic suffix and a non-nil error; the error is
// advisory and must not abort the send.
func Render(tmpl string, vars Vars) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); {
		switch c := tmpl[i]; c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return degraded(tmpl, fmt.Errorf("unterminated placeholder at offset %d", i))
			}
			name := tmpl[i+1 : i+end]
			value, ok := vars.lookup(name)
			if !ok {
				return degraded(tmpl, fmt.Errorf("unknown template variable %q", name))
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return degraded(tmpl, fmt.Errorf("stray '}' at offset %d", i))
		default:
			b.WriteByte(c)
			i++
		}
	}
	out := b.String()
	if strings.TrimSpace(out) == "" {
		return degraded(tmpl, fmt.Errorf("template rendered to empty text"))
	}
	return out, nil
}

// degraded produces the fallback text for a broken template: the raw
// unrendered content plus an explanatory note, so the user still receives
// the payload and support can see what went wrong.
func degraded(tmpl string, err error) (string, error) {
	text := strings.TrimSpace(tmpl)
	if text == "" {
		text = "(message template is empty)"
	}
	return fmt.Sprintf("%s\n\n(template error: %v)", text, err), err
}
