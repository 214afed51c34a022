package submsrvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/ikk-contest/backend/subm"
)

// MemRepo keeps submissions in process memory. It backs local runs and
// tests.
type MemRepo struct {
	mu    sync.RWMutex
	subms map[string]subm.Subm
}

func NewMemRepo() *MemRepo {
	return &MemRepo{subms: make(map[string]subm.Subm)}
}

func (r *MemRepo) Create(ctx context.Context, s subm.Subm) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subms[s.Key]; ok {
		return fmt.Errorf("%w: %s", subm.ErrKeyTaken, s.Key)
	}
	r.subms[s.Key] = s
	return nil
}

func (r *MemRepo) Get(ctx context.Context, key string) (subm.Subm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subms[key]
	if !ok {
		return subm.Subm{}, fmt.Errorf("%w: %s", subm.ErrNotFound, key)
	}
	return s, nil
}

func (r *MemRepo) SetAIScore(ctx context.Context, key string, from string, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subms[key]
	if !ok {
		return fmt.Errorf("%w: %s", subm.ErrNotFound, key)
	}
	if s.AIScore != from {
		return fmt.Errorf("%w: %s has %q", subm.ErrScoreSettled, key, s.AIScore)
	}
	s.AIScore = to
	r.subms[key] = s
	return nil
}

func (r *MemRepo) List(ctx context.Context) ([]subm.Subm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]subm.Subm, 0, len(r.subms))
	for _, s := range r.subms {
		res = append(res, s)
	}
	return res, nil
}

// Len is the number of stored submissions.
func (r *MemRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subms)
}
