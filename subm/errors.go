package subm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ikk-contest/backend/srvcerror"
)

// Store-level sentinels. Repositories wrap these; the service maps them to
// user-facing errors.
var (
	ErrNotFound      = errors.New("submission not found")
	ErrKeyTaken      = errors.New("submission key already exists")
	ErrInvalidRecord = errors.New("invalid submission record")
	ErrScoreSettled  = errors.New("submission moderation score already set")
)

const ErrCodeSessionNotReady = "session_not_ready"

func NewErrSessionNotReady() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSessionNotReady,
		"Oturum açılıyor, lütfen bekleyip tekrar deneyin.",
	).SetHttpStatusCode(http.StatusServiceUnavailable).SetRetryable()
}

const ErrCodeSubmissionExists = "submission_exists"

func NewErrSubmissionExists() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSubmissionExists,
		"Bu öğrenci adı, soyadı ve veli telefon numarası ile daha önce başvuru yapılmış.",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeConsentMissing = "consent_missing"

func NewErrAIConsentMissing() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeConsentMissing,
		"Lütfen yapay zeka kullanmadığınızı onaylayın.",
	).SetHttpStatusCode(http.StatusBadRequest)
}

func NewErrSocialFollowMissing() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeConsentMissing,
		"Lütfen Instagram hesabımızı takip ettiğinizi onaylayın.",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeInvalidSubmission = "invalid_submission"

func NewErrMissingField(field string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidSubmission,
		fmt.Sprintf("Lütfen %s alanını doldurun.", field),
	).SetHttpStatusCode(http.StatusBadRequest)
}

func NewErrInvalidGrade() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidSubmission,
		"Geçersiz kategori seçimi.",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeFileTooLarge = "file_too_large"

func NewErrFileTooLarge(maxMB int64) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeFileTooLarge,
		fmt.Sprintf("Dosya çok büyük, en fazla %d MB yükleyebilirsiniz.", maxMB),
	).SetHttpStatusCode(http.StatusRequestEntityTooLarge)
}

const ErrCodeUploadFailed = "upload_failed"

func NewErrUploadFailed() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUploadFailed,
		"Dosya yüklenemedi. Lütfen tekrar deneyin.",
	).SetHttpStatusCode(http.StatusBadGateway)
}

const ErrCodePersistFailed = "persist_failed"

func NewErrPersistFailed() *srvcerror.Error {
	return srvcerror.New(
		ErrCodePersistFailed,
		"Başvuru sırasında bir hata oluştu. Lütfen tekrar deneyin.",
	).SetHttpStatusCode(http.StatusInternalServerError)
}

const ErrCodeSubmissionNotFound = "submission_not_found"

func NewErrSubmissionNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSubmissionNotFound,
		"Başvuru bulunamadı.",
	).SetHttpStatusCode(http.StatusNotFound)
}
