package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// MemoryRecord is the unit of storage
type MemoryRecord struct {
	ID               string            `json:"id"`
	ProjectID        string            `json:"project_id,omitempty"`
	SessionID        string            `json:"session_id,omitempty"`
	MemoryType       string            `json:"memory_type"`
	Title            string            `json:"title,omitempty"`
	Content          Content           `json:"content"`
	Importance       float64           `json:"importance"`
	EmotionalContext map[string]string `json:"emotional_context,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	Embedding        []float32         `json:"-"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// HasTags reports whether the record carries every requested tag
func (r *MemoryRecord) HasTags(tags []string) bool {
	for _, want := range tags {
		found := false
		for _, have := range r.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Content holds memory content as either free text or a structured document.
// The zero value is empty text content.
type Content struct {
	Text   string
	Fields map[string]any
}

// TextContent creates plain text content
func TextContent(text string) Content {
	return Content{Text: text}
}

// StructuredContent creates structured document content
func StructuredContent(fields map[string]any) Content {
	return Content{Fields: fields}
}

// IsStructured reports whether the content is a structured document
func (c Content) IsStructured() bool {
	return c.Fields != nil
}

// IsEmpty reports whether the content carries no data at all. A structured
// document with no fields counts as empty.
func (c Content) IsEmpty() bool {
	if c.IsStructured() {
		return strings.TrimSpace(c.Flatten()) == ""
	}
	return strings.TrimSpace(c.Text) == ""
}

// Flatten derives a stable textual form for embedding and text matching.
// Structured documents list well-known text fields first, then the remaining
// keys in sorted order.
func (c Content) Flatten() string {
	if !c.IsStructured() {
		return c.Text
	}

	var parts []string
	taken := make(map[string]bool)
	for _, key := range []string{"text", "description", "summary", "title"} {
		if v, ok := c.Fields[key].(string); ok && v != "" {
			parts = append(parts, v)
			taken[key] = true
		}
	}

	keys := make([]string, 0, len(c.Fields))
	for key := range c.Fields {
		if !taken[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := c.Fields[key].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s: %s", key, v))
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", key, string(raw)))
		}
	}

	return strings.Join(parts, " ")
}

// MarshalJSON persists text content as {"text": ...} so both forms share one
// column shape
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsStructured() {
		return json.Marshal(c.Fields)
	}
	return json.Marshal(map[string]string{"text": c.Text})
}

// UnmarshalJSON accepts a bare string, a {"text": ...} wrapper, or a
// structured document
func (c *Content) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.Text = text
		c.Fields = nil
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("content must be text or an object: %w", err)
	}

	if len(fields) == 1 {
		if text, ok := fields["text"].(string); ok {
			c.Text = text
			c.Fields = nil
			return nil
		}
	}

	c.Text = ""
	c.Fields = fields
	return nil
}

// ContentFromValue converts a decoded JSON value into Content
func ContentFromValue(value any) (Content, error) {
	switch v := value.(type) {
	case string:
		return TextContent(v), nil
	case map[string]any:
		if len(v) == 1 {
			if text, ok := v["text"].(string); ok {
				return TextContent(text), nil
			}
		}
		return StructuredContent(v), nil
	case nil:
		return Content{}, nil
	default:
		return Content{}, fmt.Errorf("unsupported content type %T", value)
	}
}

// clampImportance coerces out-of-range values instead of rejecting them
func clampImportance(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizeTags trims, drops empties, and deduplicates preserving first
// occurrence order
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
