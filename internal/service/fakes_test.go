package service

import (
	"context"
	"sort"
	"sync"

	"formchat-be/internal/entity"
	"formchat-be/internal/repository/contract"
	"formchat-be/internal/repository/specification"
	"formchat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// memDB is an in-memory stand-in for the database behind the unit of work.
// It understands the specifications the services use.
type memDB struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*entity.FormTemplate
	responses map[uuid.UUID]*entity.FormResponse
	sessions  map[string]*entity.ConversationSession
	logs      []*entity.ConversationLog
	failLogs  error
	commits   int
}

func newMemDB() *memDB {
	return &memDB{
		templates: map[uuid.UUID]*entity.FormTemplate{},
		responses: map[uuid.UUID]*entity.FormResponse{},
		sessions:  map[string]*entity.ConversationSession{},
	}
}

func (db *memDB) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{db: db}
}

type memUow struct{ db *memDB }

func (u *memUow) Begin(ctx context.Context) error { return nil }
func (u *memUow) Commit() error {
	u.db.mu.Lock()
	u.db.commits++
	u.db.mu.Unlock()
	return nil
}
func (u *memUow) Rollback() error { return nil }

func (u *memUow) FormTemplateRepository() contract.FormTemplateRepository {
	return &memTemplates{u.db}
}
func (u *memUow) FormResponseRepository() contract.FormResponseRepository {
	return &memResponses{u.db}
}
func (u *memUow) ConversationSessionRepository() contract.ConversationSessionRepository {
	return &memSessions{u.db}
}
func (u *memUow) ConversationLogRepository() contract.ConversationLogRepository {
	return &memLogs{u.db}
}

func idOf(specs []specification.Specification) (uuid.UUID, bool) {
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			return byID.ID, true
		}
	}
	return uuid.Nil, false
}

type memTemplates struct{ db *memDB }

func (r *memTemplates) Create(ctx context.Context, t *entity.FormTemplate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := *t
	r.db.templates[t.Id] = &c
	return nil
}

func (r *memTemplates) Update(ctx context.Context, t *entity.FormTemplate) error {
	return r.Create(ctx, t)
}

func (r *memTemplates) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.templates, id)
	return nil
}

func (r *memTemplates) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FormTemplate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	id, _ := idOf(specs)
	if t, ok := r.db.templates[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (r *memTemplates) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FormTemplate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.FormTemplate
	for _, t := range r.db.templates {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memTemplates) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type memResponses struct{ db *memDB }

func (r *memResponses) Create(ctx context.Context, resp *entity.FormResponse) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.responses[resp.Id]; ok {
		return nil
	}
	c := *resp
	r.db.responses[resp.Id] = &c
	return nil
}

func (r *memResponses) Update(ctx context.Context, resp *entity.FormResponse) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := *resp
	r.db.responses[resp.Id] = &c
	return nil
}

func (r *memResponses) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FormResponse, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	id, _ := idOf(specs)
	if resp, ok := r.db.responses[id]; ok {
		c := *resp
		return &c, nil
	}
	return nil, nil
}

func (r *memResponses) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FormResponse, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.FormResponse
	for _, resp := range r.db.responses {
		c := *resp
		out = append(out, &c)
	}
	return out, nil
}

func (r *memResponses) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type memSessions struct{ db *memDB }

func (r *memSessions) Upsert(ctx context.Context, s *entity.ConversationSession) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := *s
	r.db.sessions[s.Id] = &c
	return nil
}

func (r *memSessions) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationSession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, spec := range specs {
		if pk, ok := spec.(specification.BySessionPK); ok {
			if s, ok := r.db.sessions[pk.SessionID]; ok {
				c := *s
				return &c, nil
			}
		}
	}
	return nil, nil
}

func (r *memSessions) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationSession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.ConversationSession
	for _, s := range r.db.sessions {
		c := *s
		out = append(out, &c)
	}
	return out, nil
}

type memLogs struct{ db *memDB }

func (r *memLogs) Create(ctx context.Context, l *entity.ConversationLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failLogs != nil {
		return r.db.failLogs
	}
	c := *l
	r.db.logs = append(r.db.logs, &c)
	return nil
}

func (r *memLogs) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationLog, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var session string
	for _, spec := range specs {
		if k, ok := spec.(specification.BySessionKey); ok {
			session = k.SessionID
		}
	}
	var out []*entity.ConversationLog
	for _, l := range r.db.logs {
		if session == "" || l.SessionId == session {
			c := *l
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memLogs) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (db *memDB) logCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.logs)
}
