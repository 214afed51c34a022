package submsrvc

import (
	"context"
	"strings"
	"sync"

	"github.com/ikk-contest/backend/logger"
	"github.com/ikk-contest/backend/subm"
	"github.com/ikk-contest/backend/subm/submkey"
	"github.com/wailsapp/mimetype"
)

type Stage string

const (
	StageIdle                Stage = "idle"
	StageSessionReady        Stage = "session_ready"
	StageKeyChecked          Stage = "key_checked"
	StageUploading           Stage = "uploading"
	StagePersisted           Stage = "persisted"
	StageScoringInBackground Stage = "scoring_in_background"
	StageDone                Stage = "done"
	StageError               Stage = "error"
)

func (s Stage) Terminal() bool {
	return s == StageDone || s == StageError
}

// Event reports the progress of one attempt. Sent and Total are only set
// while uploading. Subm is set on StageDone, Err on StageError.
type Event struct {
	Stage   Stage
	Sent    int64
	Total   int64
	Message string
	Subm    *subm.Subm
	Err     error
}

type SubmitParams struct {
	StudentName    string
	StudentSurname string
	School         string
	Grade          string
	ParentPhone    string
	AIConsent      bool
	SocialFollow   bool

	FileName string
	FileType string
	File     []byte
}

const eventBufSize = 16

// Attempt is one running submission.
type Attempt struct {
	events chan Event
	done   chan struct{}
	result subm.Subm
	err    error

	mu     sync.Mutex // guards events against late progress callbacks
	closed bool
}

func newAttempt() *Attempt {
	return &Attempt{
		events: make(chan Event, eventBufSize),
		done:   make(chan struct{}),
	}
}

// Events streams progress. A subscriber that falls behind loses the oldest
// buffered events, never the terminal one. The channel is closed after the
// terminal event.
func (a *Attempt) Events() <-chan Event {
	return a.events
}

// Wait blocks until the attempt reaches Done or Error. It never waits for
// background scoring.
func (a *Attempt) Wait() (subm.Subm, error) {
	<-a.done
	return a.result, a.err
}

func (a *Attempt) emit(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.send(ev)
}

func (a *Attempt) send(ev Event) {
	for {
		select {
		case a.events <- ev:
			return
		default:
			select {
			case <-a.events:
			default:
			}
		}
	}
}

func (a *Attempt) fail(err error) {
	a.err = err
	close(a.done)
	a.finish(Event{Stage: StageError, Message: err.Error(), Err: err})
}

func (a *Attempt) succeed(s subm.Subm) {
	a.result = s
	close(a.done)
	a.finish(Event{Stage: StageDone, Message: "Başvurunuz alındı.", Subm: &s})
}

func (a *Attempt) finish(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.send(ev)
	a.closed = true
	close(a.events)
}

// Submit starts an attempt and returns immediately.
func (s *SubmSrvc) Submit(ctx context.Context, p SubmitParams) *Attempt {
	a := newAttempt()
	go s.run(ctx, a, p)
	return a
}

func (s *SubmSrvc) run(ctx context.Context, a *Attempt, p SubmitParams) {
	a.emit(Event{Stage: StageIdle})

	if err := s.validate(p); err != nil {
		a.fail(err)
		return
	}

	ownerUID, ok := s.sessionOf(ctx)
	if !ok {
		a.fail(subm.NewErrSessionNotReady())
		return
	}
	a.emit(Event{Stage: StageSessionReady})

	key := submkey.Derive(p.StudentName, p.StudentSurname, p.ParentPhone)
	log := logger.FromContext(ctx).With("module", "subm", "key", key, "owner", ownerUID)
	if err := s.guard.Precheck(ctx, key); err != nil {
		log.Info("submission rejected at precheck", "error", err)
		a.fail(err)
		return
	}
	a.emit(Event{Stage: StageKeyChecked})

	validationID := subm.NewValidationID()
	mediaType := resolveMediaType(p.FileType, p.File)
	filePath := subm.BlobPath(ownerUID, validationID, p.FileName)
	total := int64(len(p.File))

	a.emit(Event{Stage: StageUploading, Sent: 0, Total: total, Message: "Dosya güvenli alana yükleniyor..."})
	err := s.blobs.Upload(ctx, filePath, mediaType, p.File, func(sent, total int64) {
		a.emit(Event{Stage: StageUploading, Sent: sent, Total: total})
	})
	if err != nil {
		log.Error("upload failed", "path", filePath, "error", err)
		a.fail(subm.NewErrUploadFailed().SetDebug(err))
		return
	}

	fileURL, err := s.blobs.PresignedURL(ctx, filePath, s.conf.PresignTTL)
	if err != nil {
		log.Warn("could not presign uploaded file", "path", filePath, "error", err)
	}

	category, _ := subm.CategoryForGrade(p.Grade)
	record := subm.Subm{
		Key:            key,
		StudentName:    strings.TrimSpace(p.StudentName),
		StudentSurname: strings.TrimSpace(p.StudentSurname),
		ParentPhone:    strings.TrimSpace(p.ParentPhone),
		School:         strings.TrimSpace(p.School),
		Grade:          p.Grade,
		Category:       category,
		AIConsent:      p.AIConsent,
		SocialFollow:   p.SocialFollow,
		FileName:       p.FileName,
		FileType:       mediaType,
		FilePath:       filePath,
		FileURL:        fileURL,
		ValidationID:   validationID,
		OwnerUID:       ownerUID,
		CreatedAt:      s.now().UTC(),
		Status:         subm.StatusInReview,
		AIScore:        s.initialScore(mediaType),
	}
	if err := record.Validate(); err != nil {
		a.fail(subm.NewErrPersistFailed().SetDebug(err))
		return
	}

	if err := s.guard.CheckAndReserve(ctx, record); err != nil {
		// the blob stays behind; orphans are listed by the admin cli
		log.Warn("submission not persisted", "path", filePath, "error", err)
		a.fail(err)
		return
	}
	a.emit(Event{Stage: StagePersisted})
	log.Info("submission persisted", "validation_id", validationID, "ai_score", record.AIScore)

	scoring := record.AIScore == subm.ScoreQueued
	if scoring {
		a.emit(Event{Stage: StageScoringInBackground, Message: "Yapay zeka analizi arka planda yapılacak."})
	}
	a.succeed(record)

	if scoring {
		job := subm.ScoreJob{Key: record.Key, FilePath: record.FilePath, FileType: record.FileType}
		if err := s.scheduler.Schedule(context.WithoutCancel(ctx), job); err != nil {
			log.Error("failed to schedule scoring", "error", err)
		}
	}
}

func (s *SubmSrvc) validate(p SubmitParams) error {
	required := []struct{ label, value string }{
		{"öğrenci adı", p.StudentName},
		{"öğrenci soyadı", p.StudentSurname},
		{"okul", p.School},
		{"veli telefon no", p.ParentPhone},
		{"dosya adı", p.FileName},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return subm.NewErrMissingField(f.label)
		}
	}
	if _, ok := subm.CategoryForGrade(p.Grade); !ok {
		return subm.NewErrInvalidGrade()
	}
	if len(p.File) == 0 {
		return subm.NewErrMissingField("dosya")
	}
	if s.conf.MaxUploadBytes > 0 && int64(len(p.File)) > s.conf.MaxUploadBytes {
		return subm.NewErrFileTooLarge(s.conf.MaxUploadBytes >> 20)
	}
	if !p.AIConsent {
		return subm.NewErrAIConsentMissing()
	}
	if !p.SocialFollow {
		return subm.NewErrSocialFollowMissing()
	}
	return nil
}

func (s *SubmSrvc) initialScore(mediaType string) string {
	switch {
	case !subm.IsImage(mediaType):
		return subm.ScoreUnsupported
	case !s.scoringEnabled():
		return subm.ScoreNoAPIKey
	default:
		return subm.ScoreQueued
	}
}

func resolveMediaType(declared string, content []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	detected := mimetype.Detect(content)
	if detected == nil {
		return "application/octet-stream"
	}
	return detected.String()
}
