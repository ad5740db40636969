package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"formchat-be/pkg/forms"
)

const (
	minKeywordLength = 4
	recentLimit      = 3
)

var statusOrder = []forms.ResponseStatus{
	forms.StatusIncomplete,
	forms.StatusComplete,
	forms.StatusPendingReview,
	forms.StatusApproved,
	forms.StatusRejected,
}

// Generator summarises a user's submitted forms
type Generator struct {
	templates forms.TemplateProvider
	responses forms.ResponseStore
}

func NewGenerator(templates forms.TemplateProvider, responses forms.ResponseStore) *Generator {
	return &Generator{templates: templates, responses: responses}
}

// Generate counts the user's responses per form and status. When the message
// names forms by title, only those are included.
func (g *Generator) Generate(ctx context.Context, userID, message string) (string, error) {
	templates, err := g.templates.ListTemplates(ctx, forms.Filter{UserID: userID, IncludeArchived: true})
	if err != nil {
		return "", fmt.Errorf("list templates: %w", err)
	}

	selected := mentioned(templates, message)
	formIDs := make([]string, 0, len(selected))
	for _, t := range selected {
		formIDs = append(formIDs, t.ID)
	}

	responses, err := g.responses.ListResponses(ctx, forms.ResponseFilter{
		RespondentID: userID,
		FormIDs:      formIDs,
	})
	if err != nil {
		return "", fmt.Errorf("list responses: %w", err)
	}

	if len(responses) == 0 {
		return "You have no submitted forms yet.", nil
	}

	titles := make(map[string]string, len(templates))
	order := make(map[string]int, len(templates))
	for i, t := range templates {
		titles[t.ID] = t.Title
		order[t.ID] = i
	}

	counts := map[string]map[forms.ResponseStatus]int{}
	for _, r := range responses {
		if counts[r.FormID] == nil {
			counts[r.FormID] = map[forms.ResponseStatus]int{}
		}
		counts[r.FormID][r.Status]++
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		oi, iok := order[ids[i]]
		oj, jok := order[ids[j]]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return ids[i] < ids[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d submitted form(s).\n", len(responses))
	for _, id := range ids {
		total := 0
		var parts []string
		for _, st := range statusOrder {
			if n := counts[id][st]; n > 0 {
				total += n
				parts = append(parts, fmt.Sprintf("%s: %d", st, n))
			}
		}
		fmt.Fprintf(&b, "- %s: %d (%s)\n", titleOf(titles, id), total, strings.Join(parts, ", "))
	}

	recent := append([]forms.FormResponse(nil), responses...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	b.WriteString("Most recent:")
	for _, r := range recent {
		fmt.Fprintf(&b, "\n- %s on %s (%s)", titleOf(titles, r.FormID), r.CreatedAt.Format("2006-01-02"), r.Status)
	}
	return b.String(), nil
}

// mentioned returns the templates whose title words appear in message,
// or none when the message names no form
func mentioned(templates []forms.FormTemplate, message string) []forms.FormTemplate {
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(message), isSeparator) {
		words[w] = true
	}

	var out []forms.FormTemplate
	for _, t := range templates {
		for _, w := range strings.FieldsFunc(strings.ToLower(t.Title), isSeparator) {
			if len(w) >= minKeywordLength && words[w] && !generic[w] {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Title words too common to identify a form
var generic = map[string]bool{"form": true, "forms": true, "report": true, "request": true}

func isSeparator(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
}

func titleOf(titles map[string]string, id string) string {
	if t, ok := titles[id]; ok {
		return t
	}
	return id
}
