package submsrvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikk-contest/backend/subm"
)

// Guard keeps at most one submission per derived key.
type Guard struct {
	repo SubmRepo
}

func NewGuard(repo SubmRepo) *Guard {
	return &Guard{repo: repo}
}

// Precheck rejects a key that is already taken. It only reads, so a
// passing precheck does not reserve anything.
func (g *Guard) Precheck(ctx context.Context, key string) error {
	_, err := g.repo.Get(ctx, key)
	switch {
	case err == nil:
		return subm.NewErrSubmissionExists()
	case errors.Is(err, subm.ErrNotFound):
		return nil
	default:
		return subm.NewErrPersistFailed().SetDebug(fmt.Errorf("precheck %s: %w", key, err))
	}
}

// CheckAndReserve writes s under s.Key if and only if no record exists
// there. The write itself is the uniqueness check.
func (g *Guard) CheckAndReserve(ctx context.Context, s subm.Subm) error {
	err := g.repo.Create(ctx, s)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, subm.ErrKeyTaken):
		return subm.NewErrSubmissionExists().SetDebug(err)
	default:
		return subm.NewErrPersistFailed().SetDebug(fmt.Errorf("create %s: %w", s.Key, err))
	}
}
