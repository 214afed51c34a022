package submhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ikk-contest/backend/httpjson"
	"github.com/ikk-contest/backend/logger"
	"github.com/ikk-contest/backend/subm"
	"github.com/ikk-contest/backend/subm/submexport"
	"github.com/ikk-contest/backend/subm/submsrvc"
)

type submListResponse struct {
	Submissions []subm.Subm    `json:"submissions"`
	Stats       submsrvc.Stats `json:"stats"`
}

// ListSubms returns the filtered submissions, newest first. Stats always
// count every submission, not only the filtered ones.
func (h *SubmHttpHandler) ListSubms(w http.ResponseWriter, r *http.Request) {
	all, err := h.submSrvc.ListSubms.Handle(r.Context(), submsrvc.ListSubmsParams{})
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}

	filtered := submsrvc.FilterSubms(all, r.URL.Query().Get("q"))
	res := submListResponse{
		Submissions: make([]subm.Subm, 0, len(filtered)),
		Stats:       submsrvc.CountByCategory(all),
	}
	for _, s := range filtered {
		res.Submissions = append(res.Submissions, h.submSrvc.WithFreshURL(r.Context(), s))
	}
	httpjson.WriteSuccessJson(w, res)
}

func (h *SubmHttpHandler) GetSubm(w http.ResponseWriter, r *http.Request) {
	s, err := h.submSrvc.GetSubm.Handle(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}
	httpjson.WriteSuccessJson(w, h.submSrvc.WithFreshURL(r.Context(), s))
}

func (h *SubmHttpHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	subms, err := h.submSrvc.ListSubms.Handle(r.Context(), submsrvc.ListSubmsParams{
		Filter: r.URL.Query().Get("q"),
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	for i := range subms {
		subms[i] = h.submSrvc.WithFreshURL(r.Context(), subms[i])
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+submexport.FileName(h.now())+`"`)
	if err := submexport.WriteCSV(w, subms); err != nil {
		log.Error("failed to write csv export", "error", err)
	}
}
