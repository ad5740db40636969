package forms

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type countingProvider struct {
	inner TemplateProvider
	gets  atomic.Int32
	lists atomic.Int32
	gate  chan struct{}
	err   error
}

func (p *countingProvider) GetTemplate(ctx context.Context, id string) (*FormTemplate, error) {
	p.gets.Add(1)
	if p.gate != nil {
		<-p.gate
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.inner.GetTemplate(ctx, id)
}

func (p *countingProvider) ListTemplates(ctx context.Context, f Filter) ([]FormTemplate, error) {
	p.lists.Add(1)
	return p.inner.ListTemplates(ctx, f)
}

func sample() *StaticProvider {
	return NewStaticProvider(
		FormTemplate{ID: "b", Title: "Second", CreatedAt: t0.Add(time.Hour)},
		FormTemplate{ID: "a", Title: "First", CreatedAt: t0},
		FormTemplate{ID: "z", Title: "Old", CreatedAt: t0.Add(-time.Hour), Status: TemplateArchived},
	)
}

func TestStaticProvider_OrdersByCreation(t *testing.T) {
	p := sample()

	list, err := p.ListTemplates(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	all, err := p.ListTemplates(context.Background(), Filter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Equal(t, "z", all[0].ID)

	_, err = p.GetTemplate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestStaticProvider_ListResponses(t *testing.T) {
	p := sample()
	ctx := context.Background()
	for i, r := range []FormResponse{
		{ID: "1", FormID: "a", RespondentID: "u1", Status: StatusComplete},
		{ID: "2", FormID: "b", RespondentID: "u1", Status: StatusApproved},
		{ID: "3", FormID: "a", RespondentID: "u2", Status: StatusComplete},
		{ID: "4", FormID: "a", RespondentID: "u1", Status: StatusComplete},
	} {
		r.CreatedAt = t0.Add(time.Duration(i) * time.Minute)
		require.NoError(t, p.SaveResponse(ctx, &r))
	}

	tests := []struct {
		name   string
		filter ResponseFilter
		want   []string
	}{
		{"by respondent newest first", ResponseFilter{RespondentID: "u1"}, []string{"4", "2", "1"}},
		{"by form", ResponseFilter{FormIDs: []string{"b"}}, []string{"2"}},
		{"by status", ResponseFilter{RespondentID: "u1", Status: StatusComplete}, []string{"4", "1"}},
		{"limit", ResponseFilter{Limit: 2}, []string{"4", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ListResponses(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCachedProvider_MemoizesAndInvalidates(t *testing.T) {
	upstream := &countingProvider{inner: sample()}
	p := NewCachedProvider(upstream, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tmpl, err := p.GetTemplate(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "First", tmpl.Title)
		_, err = p.ListTemplates(ctx, Filter{UserID: "u1"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), upstream.gets.Load())
	assert.Equal(t, int32(1), upstream.lists.Load())

	p.Invalidate()
	_, err := p.GetTemplate(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(2), upstream.gets.Load())
}

func TestCachedProvider_CollapsesConcurrentMisses(t *testing.T) {
	upstream := &countingProvider{inner: sample(), gate: make(chan struct{})}
	p := NewCachedProvider(upstream, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.GetTemplate(context.Background(), "a")
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(upstream.gate)
	wg.Wait()

	assert.Equal(t, int32(1), upstream.gets.Load())
}

func TestCachedProvider_DoesNotCacheErrors(t *testing.T) {
	upstream := &countingProvider{inner: sample(), err: errors.New("db down")}
	p := NewCachedProvider(upstream, time.Minute)

	_, err := p.GetTemplate(context.Background(), "a")
	assert.Error(t, err)

	upstream.err = nil
	tmpl, err := p.GetTemplate(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", tmpl.ID)
}

func TestResponseStatus_CanMoveTo(t *testing.T) {
	tests := []struct {
		from, to ResponseStatus
		ok       bool
	}{
		{StatusComplete, StatusPendingReview, true},
		{StatusComplete, StatusApproved, true},
		{StatusPendingReview, StatusRejected, true},
		{StatusIncomplete, StatusComplete, true},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusPendingReview, false},
		{StatusPendingReview, StatusComplete, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanMoveTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestFormTemplate_RequiredFieldIDs(t *testing.T) {
	tmpl := FormTemplate{Fields: []Field{
		{ID: "a", Required: true},
		{ID: "b"},
		{ID: "c", Required: true},
	}}

	assert.Equal(t, []string{"a", "c"}, tmpl.RequiredFieldIDs())
	f, ok := tmpl.Field("b")
	assert.True(t, ok)
	assert.False(t, f.Required)
	_, ok = tmpl.Field("x")
	assert.False(t, ok)
}
