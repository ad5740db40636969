package forms

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// CachedProvider memoizes template lookups. Concurrent misses for the same key
// are collapsed into one upstream call.
type CachedProvider struct {
	next  TemplateProvider
	cache *cache.Cache
	group singleflight.Group
}

var _ TemplateProvider = (*CachedProvider)(nil)

func NewCachedProvider(next TemplateProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (p *CachedProvider) GetTemplate(ctx context.Context, formID string) (*FormTemplate, error) {
	key := "template:" + formID
	if x, ok := p.cache.Get(key); ok {
		t := x.(FormTemplate)
		return &t, nil
	}

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		t, err := p.next.GetTemplate(ctx, formID)
		if err != nil {
			return nil, err
		}
		p.cache.SetDefault(key, *t)
		return *t, nil
	})
	if err != nil {
		return nil, err
	}
	t := v.(FormTemplate)
	return &t, nil
}

func (p *CachedProvider) ListTemplates(ctx context.Context, filter Filter) ([]FormTemplate, error) {
	key := fmt.Sprintf("list:%s:%t", filter.UserID, filter.IncludeArchived)
	if x, ok := p.cache.Get(key); ok {
		return append([]FormTemplate(nil), x.([]FormTemplate)...), nil
	}

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		list, err := p.next.ListTemplates(ctx, filter)
		if err != nil {
			return nil, err
		}
		p.cache.SetDefault(key, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]FormTemplate(nil), v.([]FormTemplate)...), nil
}

// Invalidate drops every cached entry; called after template writes
func (p *CachedProvider) Invalidate() {
	p.cache.Flush()
}
