package submddb

import (
	"fmt"
	"time"

	"github.com/ikk-contest/backend/subm"
)

// submRow is one item of the submissions table; subm_key is the partition
// key and there is no sort key.
type submRow struct {
	Key string `dynamodbav:"subm_key" dynamo:"subm_key,hash"`

	StudentName    string `dynamodbav:"student_name" dynamo:"student_name"`
	StudentSurname string `dynamodbav:"student_surname" dynamo:"student_surname"`
	ParentPhone    string `dynamodbav:"parent_phone" dynamo:"parent_phone"`

	School       string `dynamodbav:"school" dynamo:"school"`
	Grade        string `dynamodbav:"grade" dynamo:"grade"`
	Category     string `dynamodbav:"category" dynamo:"category"`
	AIConsent    bool   `dynamodbav:"ai_consent" dynamo:"ai_consent"`
	SocialFollow bool   `dynamodbav:"social_follow" dynamo:"social_follow"`

	FileName string `dynamodbav:"file_name" dynamo:"file_name"`
	FileType string `dynamodbav:"file_type" dynamo:"file_type"`
	FilePath string `dynamodbav:"file_path" dynamo:"file_path"`
	FileURL  string `dynamodbav:"file_url" dynamo:"file_url"`

	ValidationID     string `dynamodbav:"validation_id" dynamo:"validation_id"`
	OwnerUID         string `dynamodbav:"owner_uid" dynamo:"owner_uid"`
	CreatedAtRfc3339 string `dynamodbav:"created_at_rfc3339_utc" dynamo:"created_at_rfc3339_utc"`
	Status           string `dynamodbav:"status" dynamo:"status"`
	AIScore          string `dynamodbav:"ai_score" dynamo:"ai_score"`
}

func rowFromSubm(s subm.Subm) submRow {
	return submRow{
		Key:              s.Key,
		StudentName:      s.StudentName,
		StudentSurname:   s.StudentSurname,
		ParentPhone:      s.ParentPhone,
		School:           s.School,
		Grade:            s.Grade,
		Category:         s.Category,
		AIConsent:        s.AIConsent,
		SocialFollow:     s.SocialFollow,
		FileName:         s.FileName,
		FileType:         s.FileType,
		FilePath:         s.FilePath,
		FileURL:          s.FileURL,
		ValidationID:     s.ValidationID,
		OwnerUID:         s.OwnerUID,
		CreatedAtRfc3339: s.CreatedAt.UTC().Format(time.RFC3339Nano),
		Status:           s.Status,
		AIScore:          s.AIScore,
	}
}

// toSubm decodes and validates a stored row.
func (r submRow) toSubm() (subm.Subm, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAtRfc3339)
	if err != nil {
		return subm.Subm{}, fmt.Errorf("%w %s: created_at: %w", subm.ErrInvalidRecord, r.Key, err)
	}
	s := subm.Subm{
		Key:            r.Key,
		StudentName:    r.StudentName,
		StudentSurname: r.StudentSurname,
		ParentPhone:    r.ParentPhone,
		School:         r.School,
		Grade:          r.Grade,
		Category:       r.Category,
		AIConsent:      r.AIConsent,
		SocialFollow:   r.SocialFollow,
		FileName:       r.FileName,
		FileType:       r.FileType,
		FilePath:       r.FilePath,
		FileURL:        r.FileURL,
		ValidationID:   r.ValidationID,
		OwnerUID:       r.OwnerUID,
		CreatedAt:      createdAt,
		Status:         r.Status,
		AIScore:        r.AIScore,
	}
	if err := s.Validate(); err != nil {
		return subm.Subm{}, err
	}
	return s, nil
}
