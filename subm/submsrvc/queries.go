package submsrvc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ikk-contest/backend/subm"
	"github.com/ikk-contest/backend/subm/submkey"
)

type ListSubmsParams struct {
	// Filter is matched case-insensitively against name, surname and
	// validation id. Empty matches everything.
	Filter string
}

func (s *SubmSrvc) listSubms(ctx context.Context, p ListSubmsParams) ([]subm.Subm, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return FilterSubms(all, p.Filter), nil
}

// FilterSubms keeps submissions whose student name, surname or validation
// id contains q.
func FilterSubms(subms []subm.Subm, q string) []subm.Subm {
	name := submkey.NormalizeName(q)
	if name == "" {
		return subms
	}
	// validation ids are ASCII, so plain lower-casing avoids the dotless ı
	id := strings.ToLower(strings.TrimSpace(q))

	res := make([]subm.Subm, 0, len(subms))
	for _, sb := range subms {
		fullName := submkey.NormalizeName(sb.StudentName + " " + sb.StudentSurname)
		if strings.Contains(fullName, name) || strings.Contains(strings.ToLower(sb.ValidationID), id) {
			res = append(res, sb)
		}
	}
	return res
}

func (s *SubmSrvc) getSubm(ctx context.Context, key string) (subm.Subm, error) {
	sb, err := s.repo.Get(ctx, key)
	if errors.Is(err, subm.ErrNotFound) {
		return subm.Subm{}, subm.NewErrSubmissionNotFound().SetDebug(err)
	}
	if err != nil {
		return subm.Subm{}, fmt.Errorf("failed to get submission %s: %w", key, err)
	}
	return sb, nil
}

// WithFreshURL replaces FileURL with a newly presigned link. The stored
// link may have expired.
func (s *SubmSrvc) WithFreshURL(ctx context.Context, sb subm.Subm) subm.Subm {
	url, err := s.blobs.PresignedURL(ctx, sb.FilePath, s.conf.PresignTTL)
	if err != nil {
		s.logger.Warn("failed to presign submission file", "key", sb.Key, "error", err)
		return sb
	}
	sb.FileURL = url
	return sb
}

type Stats struct {
	Total       int `json:"total"`
	Painting    int `json:"resim"`
	Poetry      int `json:"siir"`
	Composition int `json:"kompozisyon"`
}

func CountByCategory(subms []subm.Subm) Stats {
	st := Stats{Total: len(subms)}
	for _, sb := range subms {
		switch sb.Category {
		case subm.CategoryPainting:
			st.Painting++
		case subm.CategoryPoetry:
			st.Poetry++
		case subm.CategoryComposition:
			st.Composition++
		}
	}
	return st
}
