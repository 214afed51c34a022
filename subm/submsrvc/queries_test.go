package submsrvc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikk-contest/backend/subm"
	"github.com/ikk-contest/backend/subm/submkey"
	"github.com/ikk-contest/backend/subm/submsrvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedSubm(name, surname, phone, grade, validationID string, at time.Time) subm.Subm {
	category, _ := subm.CategoryForGrade(grade)
	return subm.Subm{
		Key:            submkey.Derive(name, surname, phone),
		StudentName:    name,
		StudentSurname: surname,
		ParentPhone:    phone,
		School:         "Cumhuriyet Ortaokulu",
		Grade:          grade,
		Category:       category,
		FileName:       "x.png",
		FileType:       "image/png",
		FilePath:       "submissions/uid/" + validationID + "_x.png",
		ValidationID:   validationID,
		OwnerUID:       "uid",
		CreatedAt:      at,
		Status:         subm.StatusInReview,
		AIScore:        subm.ScoreQueued,
	}
}

func seedRepo(t *testing.T, repo *submsrvc.MemRepo) {
	t.Helper()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for _, s := range []subm.Subm{
		storedSubm("Ayşe", "Yılmaz", "05551112233", "1", "IKK-AAAA0001", base),
		storedSubm("İsmail", "Işık", "05550000000", "2", "IKK-BBBB0002", base.Add(time.Hour)),
		storedSubm("Can", "Demir", "05321234567", "3", "IKK-CCCC0003", base.Add(2*time.Hour)),
		storedSubm("Zeynep", "Demir", "05329876543", "1", "IKK-DDDD0004", base.Add(3*time.Hour)),
	} {
		require.NoError(t, repo.Create(context.Background(), s))
	}
}

func TestListSubmsNewestFirst(t *testing.T) {
	env := newTestEnv(t, false)
	seedRepo(t, env.repo)

	subms, err := env.srvc.ListSubms.Handle(context.Background(), submsrvc.ListSubmsParams{})
	require.NoError(t, err)
	require.Len(t, subms, 4)
	assert.Equal(t, "IKK-DDDD0004", subms[0].ValidationID)
	assert.Equal(t, "IKK-AAAA0001", subms[3].ValidationID)
}

func TestListSubmsFilter(t *testing.T) {
	env := newTestEnv(t, false)
	seedRepo(t, env.repo)

	testCases := []struct {
		filter string
		want   []string
	}{
		{"demir", []string{"IKK-DDDD0004", "IKK-CCCC0003"}},
		{"İSMAİL", []string{"IKK-BBBB0002"}},
		{"ışık", []string{"IKK-BBBB0002"}},
		{"ikk-cccc", []string{"IKK-CCCC0003"}},
		{"can demir", []string{"IKK-CCCC0003"}},
		{"  ", []string{"IKK-DDDD0004", "IKK-CCCC0003", "IKK-BBBB0002", "IKK-AAAA0001"}},
	}
	for _, tc := range testCases {
		t.Run(tc.filter, func(t *testing.T) {
			subms, err := env.srvc.ListSubms.Handle(context.Background(), submsrvc.ListSubmsParams{Filter: tc.filter})
			require.NoError(t, err)
			var got []string
			for _, s := range subms {
				got = append(got, s.ValidationID)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCountByCategory(t *testing.T) {
	env := newTestEnv(t, false)
	seedRepo(t, env.repo)
	subms, err := env.repo.List(context.Background())
	require.NoError(t, err)

	st := submsrvc.CountByCategory(subms)
	assert.Equal(t, submsrvc.Stats{Total: 4, Painting: 2, Poetry: 1, Composition: 1}, st)
}

func TestGetSubmNotFound(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.srvc.GetSubm.Handle(context.Background(), "subm_x_y_1")
	se := requireErrCode(t, err, subm.ErrCodeSubmissionNotFound)
	assert.Equal(t, 404, se.HttpStatusCode())
	assert.True(t, errors.Is(err, subm.ErrNotFound))
}

func TestWithFreshURL(t *testing.T) {
	env := newTestEnv(t, false)
	s := storedSubm("Can", "Demir", "1", "3", "IKK-CCCC0003", time.Now())
	s.FileURL = "https://expired"
	s = env.srvc.WithFreshURL(context.Background(), s)
	assert.Equal(t, "https://blobs.example/"+s.FilePath, s.FileURL)
}

func TestScoreSubmissionUpdatesOnce(t *testing.T) {
	env := newTestEnv(t, true)
	s := storedSubm("Can", "Demir", "1", "3", "IKK-CCCC0003", time.Now())
	require.NoError(t, env.repo.Create(context.Background(), s))
	env.blobs.blobs[s.FilePath] = pngBytes

	job := subm.ScoreJob{Key: s.Key, FilePath: s.FilePath, FileType: s.FileType}
	require.NoError(t, env.srvc.ScoreSubm.Handle(context.Background(), job))

	env.scorer.score = func(ctx context.Context, image []byte, mediaType string) string {
		return "%99 (AI Üretimi)"
	}
	require.NoError(t, env.srvc.ScoreSubm.Handle(context.Background(), job))

	stored, err := env.repo.Get(context.Background(), s.Key)
	require.NoError(t, err)
	assert.Equal(t, "%10 (Temiz)", stored.AIScore)
}

func TestScoreSubmissionDownloadFailureKeepsPlaceholder(t *testing.T) {
	env := newTestEnv(t, true)
	s := storedSubm("Can", "Demir", "1", "3", "IKK-CCCC0003", time.Now())
	require.NoError(t, env.repo.Create(context.Background(), s))
	env.blobs.download = func(ctx context.Context, key string) ([]byte, error) {
		return nil, errors.New("access denied")
	}

	err := env.srvc.ScoreSubm.Handle(context.Background(), subm.ScoreJob{Key: s.Key, FilePath: s.FilePath, FileType: s.FileType})
	require.ErrorContains(t, err, "access denied")

	stored, err := env.repo.Get(context.Background(), s.Key)
	require.NoError(t, err)
	assert.Equal(t, subm.ScoreQueued, stored.AIScore)
	assert.Equal(t, int32(0), env.scorer.calls.Load())
}

func TestMemRepoRejectsInvalidRecords(t *testing.T) {
	repo := submsrvc.NewMemRepo()
	s := storedSubm("Can", "Demir", "1", "3", "bad-id", time.Now())
	err := repo.Create(context.Background(), s)
	assert.ErrorIs(t, err, subm.ErrInvalidRecord)
	assert.Equal(t, 0, repo.Len())
}
