package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"reflect"
	"strings"

	"github.com/nikogura/cvforge/pkg/content"
)

func funcMap() (funcs map[string]any) {
	funcs = map[string]any{
		"required": required,
		"default":  defaultValue,
		"join":     join,
		"skill":    skillLabel,
		"xml":      xmlEscape,
		"span":     span,
	}
	return funcs
}

// required fails template execution when v is empty.
func required(field string, v any) (out any, err error) {
	if isEmpty(v) {
		err = &TemplateError{Message: fmt.Sprintf("required field %q has no value", field)}
		return out, err
	}
	out = v
	return out, err
}

func defaultValue(fallback string, v any) (out any) {
	if isEmpty(v) {
		out = fallback
		return out
	}
	out = v
	return out
}

func join(sep string, items []string) (out string) {
	out = strings.Join(items, sep)
	return out
}

func skillLabel(s content.Skill) (label string) {
	label = s.Skill
	if s.Level != "" {
		label = fmt.Sprintf("%s (%s)", s.Skill, s.Level)
	}
	return label
}

// span joins the non-empty parts with sep, e.g. title and organization.
func span(sep string, parts ...string) (out string) {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	out = strings.Join(kept, sep)
	return out
}

func xmlEscape(v any) (out string) {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(fmt.Sprint(v)))
	out = buf.String()
	return out
}

func isEmpty(v any) (empty bool) {
	if v == nil {
		empty = true
		return empty
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		empty = strings.TrimSpace(rv.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		empty = rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		empty = rv.IsNil()
	default:
		empty = rv.IsZero()
	}
	return empty
}
