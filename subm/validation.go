package subm

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

var validationIDRe = regexp.MustCompile(`^IKK-[0-9A-Z]{8}$`)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewValidationID returns the human-facing id printed on the certificate.
func NewValidationID() string {
	var b strings.Builder
	b.WriteString("IKK-")
	for range 8 {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return b.String()
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// BlobPath is the object key for an attachment, namespaced by the owning
// session and made unique by the validation id.
func BlobPath(ownerUID, validationID, fileName string) string {
	name := whitespaceRe.ReplaceAllString(strings.TrimSpace(fileName), "_")
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	return fmt.Sprintf("submissions/%s/%s_%s", ownerUID, validationID, name)
}

// IsImage reports whether a media type can be sent to the moderation model.
func IsImage(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// Validate checks a record read from or about to be written to a store.
func (s *Subm) Validate() error {
	var errs []error
	required := []struct{ name, value string }{
		{"key", s.Key},
		{"student_name", s.StudentName},
		{"student_surname", s.StudentSurname},
		{"file_path", s.FilePath},
		{"owner_uid", s.OwnerUID},
		{"status", s.Status},
		{"ai_score", s.AIScore},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("%s is empty", f.name))
		}
	}
	if s.Key != "" && !strings.HasPrefix(s.Key, "subm_") {
		errs = append(errs, fmt.Errorf("key %q lacks subm_ prefix", s.Key))
	}
	if !validationIDRe.MatchString(s.ValidationID) {
		errs = append(errs, fmt.Errorf("validation id %q is malformed", s.ValidationID))
	}
	if c, ok := CategoryForGrade(s.Grade); !ok {
		errs = append(errs, fmt.Errorf("grade %q is unknown", s.Grade))
	} else if c != s.Category {
		errs = append(errs, fmt.Errorf("category %q does not match grade %s", s.Category, s.Grade))
	}
	if s.CreatedAt.IsZero() {
		errs = append(errs, errors.New("created_at is zero"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %s: %w", ErrInvalidRecord, s.Key, errors.Join(errs...))
	}
	return nil
}
