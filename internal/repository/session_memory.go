package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/workflow"
	"github.com/patrickmn/go-cache"
)

// SessionRepository holds live session state machines in memory. Entries
// expire after the configured idle TTL.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(_ context.Context, m *workflow.Machine) error {
	r.cache.SetDefault(m.ID(), m)
	return nil
}

// Get returns the machine and refreshes its expiry.
func (r *SessionRepository) Get(_ context.Context, id string) (*workflow.Machine, error) {
	v, found := r.cache.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	m := v.(*workflow.Machine)
	r.cache.SetDefault(id, m)
	return m, nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
