package personalize

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/marketpulse/campaignhub/internal/pkg/logger"
)

// PreviewEngine renders campaign templates with the Liquid template language
// for the dashboard's template editor. Unlike Render, it supports filters
// and control flow; it is never used on the dispatch path.
type PreviewEngine struct {
	engine *liquid.Engine
	cache  sync.Map // template source -> *liquid.Template
}

// NewPreviewEngine creates a preview engine with the dashboard filters
// registered.
func NewPreviewEngine() *PreviewEngine {
	pe := &PreviewEngine{engine: liquid.NewEngine()}
	pe.registerFilters()
	return pe
}

func (pe *PreviewEngine) registerFilters() {
	// Fallback value: {{ company_name | default: "your company" }}
	pe.engine.RegisterFilter("default", func(value interface{}, fallback string) interface{} {
		if value == nil {
			return fallback
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return fallback
		}
		return value
	})

	// Currency formatting: {{ total_spent | currency }}
	pe.engine.RegisterFilter("currency", func(value interface{}) string {
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		case int64:
			f = float64(v)
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return v
			}
			f = parsed
		default:
			return fmt.Sprintf("%v", value)
		}
		return fmt.Sprintf("$%.2f", f)
	})

	// Truncate with ellipsis: {{ name | truncate: 24 }}
	pe.engine.RegisterFilter("truncate", func(s string, length int) string {
		if len(s) <= length {
			return s
		}
		if length <= 3 {
			return s[:length]
		}
		return s[:length-3] + "..."
	})

	// Uppercase first letter: {{ city | capitalize }}
	pe.engine.RegisterFilter("capitalize", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})

	// Mask contact details in shared previews: {{ phone | mask_phone }}
	pe.engine.RegisterFilter("mask_phone", func(s string) string {
		return logger.RedactPhone(s)
	})
	pe.engine.RegisterFilter("mask_email", func(s string) string {
		return logger.RedactEmail(s)
	})
}

// Preview parses and renders a Liquid template with the given bindings.
// Parsed templates are cached by source text.
func (pe *PreviewEngine) Preview(template string, bindings map[string]interface{}) (string, error) {
	if cached, ok := pe.cache.Load(template); ok {
		return cached.(*liquid.Template).RenderString(bindings)
	}

	tpl, err := pe.engine.ParseString(template)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	pe.cache.Store(template, tpl)

	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}
