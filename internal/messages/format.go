package messages

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var tagPattern = regexp.MustCompile(`<(/?)([a-z_]+)>`)

// styles maps supported tags to terminal styles.
var styles = map[string]lipgloss.Style{
	"red":    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	"green":  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	"yellow": lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	"aqua":   lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	"gold":   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	"gray":   lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	"bold":   lipgloss.NewStyle().Bold(true),
}

// Format turns colour tags into terminal styling. With color off the tags
// are stripped. Unknown tags are left untouched.
//
// Tags nest; a closing tag pops the most recent open style. Unbalanced
// closing tags are dropped.
func Format(text string, color bool) string {
	var (
		out   strings.Builder
		stack []string
		last  int
	)

	emit := func(segment string) {
		if segment == "" {
			return
		}
		if !color || len(stack) == 0 {
			out.WriteString(segment)
			return
		}
		style := lipgloss.NewStyle()
		for _, tag := range stack {
			style = style.Inherit(styles[tag])
		}
		out.WriteString(style.Render(segment))
	}

	for _, m := range tagPattern.FindAllStringSubmatchIndex(text, -1) {
		closing := text[m[2]:m[3]] == "/"
		tag := text[m[4]:m[5]]
		if _, ok := styles[tag]; !ok {
			continue
		}

		emit(text[last:m[0]])
		last = m[1]

		if !closing {
			stack = append(stack, tag)
			continue
		}
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i] == tag {
				stack = stack[:i]
				break
			}
		}
	}
	emit(text[last:])

	return out.String()
}
