package clarify

import (
	"fmt"
	"strconv"
	"strings"
)

// Option is one numbered choice offered to the user
type Option struct {
	ID    string
	Title string
}

// Clarify renders a numbered list of options and quotes the message that
// caused the ambiguity verbatim.
func Clarify(options []Option, originalMessage string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I'm not sure what you meant by \"%s\".", originalMessage)
	if len(options) == 0 {
		b.WriteString(" Could you describe what you would like to do?")
		return b.String()
	}

	b.WriteString(" Did you mean one of these?\n")
	for i, o := range options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, o.Title)
	}
	b.WriteString("Reply with the number of your choice.")
	return b.String()
}

// FullList renders every form without an ambiguity preamble; used once
// repeated clarifications have not converged.
func FullList(options []Option, originalMessage string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I still couldn't match \"%s\" to a form. Here is everything available:\n", originalMessage)
	for i, o := range options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, o.Title)
	}
	b.WriteString("Reply with the number of the form you want to fill.")
	return b.String()
}

// Intents lists the things the assistant can do, for messages the router
// could not classify.
func Intents() []Option {
	return []Option{
		{ID: "form_filling", Title: "Fill out a form"},
		{ID: "report_generation", Title: "See a report of my submitted forms"},
		{ID: "general_query", Title: "Ask a general question"},
	}
}

// ParseSelection reads a 1-based choice such as "2", "#2" or "option 2".
// It returns the 0-based index when it is within [0, n).
func ParseSelection(message string, n int) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(message))
	for _, prefix := range []string{"option", "opção", "opcao", "number", "número", "numero", "#"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	s = strings.TrimRight(s, ".)!")

	i, err := strconv.Atoi(s)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}
