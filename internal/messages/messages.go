// Package messages renders the text sent to actors.
//
// Templates are looked up by key and may contain <name> placeholders that are
// substituted at render time, plus a small set of colour tags understood by
// Format.
package messages

import "strings"

// PrefixKey is the catalog entry prepended to every rendered message.
const PrefixKey = "prefix"

// Message is a rendered message addressed to an actor.
type Message struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Catalog maps message keys to templates.
type Catalog struct {
	templates map[string]string
}

// NewCatalog copies templates into a new Catalog.
func NewCatalog(templates map[string]string) *Catalog {
	c := &Catalog{templates: make(map[string]string, len(templates))}
	for k, v := range templates {
		c.templates[k] = v
	}
	return c
}

// Template returns the raw template for key, or "" if unknown.
func (c *Catalog) Template(key string) string {
	if c == nil {
		return ""
	}
	return c.templates[key]
}

// Render renders key with the prefix entry prepended.
// Placeholders are given as alternating name, value pairs.
func (c *Catalog) Render(key string, placeholders ...string) Message {
	return Message{
		Key:  key,
		Text: Substitute(c.Template(PrefixKey)+c.Template(key), placeholders...),
	}
}

// Line renders key without the prefix. Used for list entries.
func (c *Catalog) Line(key string, placeholders ...string) Message {
	return Message{
		Key:  key,
		Text: Substitute(c.Template(key), placeholders...),
	}
}

// Substitute replaces every <name> token in template with its value.
// A trailing name without a value is ignored.
func Substitute(template string, placeholders ...string) string {
	if len(placeholders) < 2 {
		return template
	}
	pairs := make([]string, 0, len(placeholders))
	for i := 0; i+1 < len(placeholders); i += 2 {
		pairs = append(pairs, "<"+placeholders[i]+">", placeholders[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
