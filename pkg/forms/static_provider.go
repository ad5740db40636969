package forms

import (
	"context"
	"sort"
	"sync"
)

// StaticProvider serves a fixed template set from memory. It also records
// responses, which makes it usable as a ResponseStore in local runs.
type StaticProvider struct {
	mu        sync.RWMutex
	templates []FormTemplate
	responses []FormResponse
}

var (
	_ TemplateProvider = (*StaticProvider)(nil)
	_ ResponseStore    = (*StaticProvider)(nil)
)

func NewStaticProvider(templates ...FormTemplate) *StaticProvider {
	list := append([]FormTemplate(nil), templates...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return &StaticProvider{templates: list}
}

func (p *StaticProvider) GetTemplate(ctx context.Context, formID string) (*FormTemplate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, t := range p.templates {
		if t.ID == formID {
			c := t
			return &c, nil
		}
	}
	return nil, ErrTemplateNotFound
}

func (p *StaticProvider) ListTemplates(ctx context.Context, filter Filter) ([]FormTemplate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]FormTemplate, 0, len(p.templates))
	for _, t := range p.templates {
		if t.Status == TemplateArchived && !filter.IncludeArchived {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (p *StaticProvider) SaveResponse(ctx context.Context, response *FormResponse) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := *response
	c.Responses = make(map[string]string, len(response.Responses))
	for k, v := range response.Responses {
		c.Responses[k] = v
	}
	for i := range p.responses {
		if p.responses[i].ID == c.ID {
			return nil
		}
	}
	p.responses = append(p.responses, c)
	return nil
}

func (p *StaticProvider) ListResponses(ctx context.Context, filter ResponseFilter) ([]FormResponse, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	formSet := make(map[string]bool, len(filter.FormIDs))
	for _, id := range filter.FormIDs {
		formSet[id] = true
	}

	var out []FormResponse
	// Newest first
	for i := len(p.responses) - 1; i >= 0; i-- {
		r := p.responses[i]
		if filter.RespondentID != "" && r.RespondentID != filter.RespondentID {
			continue
		}
		if len(formSet) > 0 && !formSet[r.FormID] {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}
