package subm

import "time"

// Subm is a single competition entry. Key is both the duplicate-detection
// identity and the storage record id.
type Subm struct {
	Key string `json:"key"`

	StudentName    string `json:"student_name"`
	StudentSurname string `json:"student_surname"`
	ParentPhone    string `json:"parent_phone"`

	School       string `json:"school"`
	Grade        string `json:"grade"`
	Category     string `json:"category"`
	AIConsent    bool   `json:"ai_consent"`
	SocialFollow bool   `json:"social_follow"`

	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FilePath string `json:"file_path"`
	FileURL  string `json:"file_url"`

	ValidationID string    `json:"validation_id"`
	OwnerUID     string    `json:"owner_uid"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"status"`
	AIScore      string    `json:"ai_score"`
}

const StatusInReview = "İnceleniyor"

// Moderation labels stored in Subm.AIScore when no model verdict exists.
const (
	ScoreQueued      = "Analiz Bekleniyor"
	ScoreUnsupported = "Format Desteklenmiyor (Manuel Kontrol)"
	ScoreNoAPIKey    = "API Key Yok (Manuel Kontrol)"
	ScoreAPIError    = "API Hatası (Manuel Kontrol)"
	ScoreUnparsed    = "Analiz Edilemedi"
)

const (
	CategoryPainting    = "Resim"
	CategoryPoetry      = "Şiir"
	CategoryComposition = "Kompozisyon"
)

var gradeCategories = map[string]string{
	"1": CategoryPainting,
	"2": CategoryPoetry,
	"3": CategoryComposition,
}

// CategoryForGrade maps the form's grade selector to its competition
// category.
func CategoryForGrade(grade string) (string, bool) {
	c, ok := gradeCategories[grade]
	return c, ok
}

// ScoreJob is the background moderation work for one submission.
type ScoreJob struct {
	Key      string `json:"key"`
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
}
