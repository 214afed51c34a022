package submhttp

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ikk-contest/backend/auth"
	"github.com/ikk-contest/backend/subm/submsrvc"
)

type SubmHttpHandler struct {
	submSrvc       *submsrvc.SubmSrvc
	maxUploadBytes int64
	now            func() time.Time
	logger         *slog.Logger
}

func NewSubmHttpHandler(submSrvc *submsrvc.SubmSrvc, maxUploadBytes int64) *SubmHttpHandler {
	return &SubmHttpHandler{
		submSrvc:       submSrvc,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
		logger:         slog.Default().With("module", "submhttp"),
	}
}

// RegisterRoutes expects the JWT middleware to already be installed on r.
func (h *SubmHttpHandler) RegisterRoutes(r chi.Router) {
	r.Post("/submissions", h.PostSubm)
	r.Route("/admin/submissions", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/", h.ListSubms)
		r.Get("/export.csv", h.ExportCSV)
		r.Get("/{key}", h.GetSubm)
	})
}
