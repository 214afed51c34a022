package submhttp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ikk-contest/backend/httpjson"
	"github.com/ikk-contest/backend/logger"
	"github.com/ikk-contest/backend/srvcerror"
	"github.com/ikk-contest/backend/subm"
	"github.com/ikk-contest/backend/subm/submsrvc"
)

const (
	multipartMemory = 32 << 20
	formOverhead    = 1 << 20
	keepAlivePeriod = 15 * time.Second
)

func newErrMalformedForm() *srvcerror.Error {
	return srvcerror.New(
		subm.ErrCodeInvalidSubmission,
		"Başvuru formu okunamadı.",
	).SetHttpStatusCode(http.StatusBadRequest)
}

// PostSubm accepts the multipart entry form. Clients that accept
// text/event-stream get the progress of the attempt as server-sent events,
// everyone else gets the stored record once the attempt ends.
func (h *SubmHttpHandler) PostSubm(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	params, err := h.readForm(w, r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	attempt := h.submSrvc.Submit(r.Context(), params)

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		h.streamAttempt(w, r, attempt)
		return
	}

	created, err := attempt.Wait()
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteCreatedJson(w, created)
}

func (h *SubmHttpHandler) readForm(w http.ResponseWriter, r *http.Request) (submsrvc.SubmitParams, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return submsrvc.SubmitParams{}, subm.NewErrFileTooLarge(h.maxUploadBytes >> 20)
		}
		return submsrvc.SubmitParams{}, newErrMalformedForm().SetDebug(err)
	}

	params := submsrvc.SubmitParams{
		StudentName:    r.FormValue("student_name"),
		StudentSurname: r.FormValue("student_surname"),
		School:         r.FormValue("school"),
		Grade:          r.FormValue("grade"),
		ParentPhone:    r.FormValue("parent_phone"),
		AIConsent:      formBool(r.FormValue("ai_consent")),
		SocialFollow:   formBool(r.FormValue("social_follow")),
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return submsrvc.SubmitParams{}, subm.NewErrMissingField("dosya")
	}
	if err != nil {
		return submsrvc.SubmitParams{}, newErrMalformedForm().SetDebug(err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return submsrvc.SubmitParams{}, newErrMalformedForm().SetDebug(err)
	}
	params.File = content
	params.FileName = header.Filename
	params.FileType = header.Header.Get("Content-Type")
	return params, nil
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

type progressEvent struct {
	Stage      submsrvc.Stage `json:"stage"`
	Sent       int64          `json:"sent,omitempty"`
	Total      int64          `json:"total,omitempty"`
	Message    string         `json:"message,omitempty"`
	Submission *subm.Subm     `json:"submission,omitempty"`
	Error      *eventError    `json:"error,omitempty"`
}

type eventError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func mapEvent(ev submsrvc.Event) progressEvent {
	out := progressEvent{
		Stage:      ev.Stage,
		Sent:       ev.Sent,
		Total:      ev.Total,
		Message:    ev.Message,
		Submission: ev.Subm,
	}
	if ev.Err != nil {
		out.Message = ""
		srvcErr := &srvcerror.Error{}
		if errors.As(ev.Err, &srvcErr) {
			out.Error = &eventError{
				Code:      srvcErr.ErrorCode(),
				Message:   srvcErr.Error(),
				Retryable: srvcErr.Retryable(),
			}
		} else {
			out.Error = &eventError{
				Code:    srvcerror.ErrCodeInternalServerError,
				Message: http.StatusText(http.StatusInternalServerError),
			}
		}
	}
	return out
}

func (h *SubmHttpHandler) streamAttempt(w http.ResponseWriter, r *http.Request, attempt *submsrvc.Attempt) {
	log := logger.FromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		// no streaming; fall back to the plain response
		created, err := attempt.Wait()
		if err != nil {
			httpjson.HandleError(log, w, err)
			return
		}
		httpjson.WriteCreatedJson(w, created)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAliveTicker := time.NewTicker(keepAlivePeriod)
	defer keepAliveTicker.Stop()

	events := attempt.Events()
	for {
		select {
		case <-keepAliveTicker.C:
			io.WriteString(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			marshalled, err := json.Marshal(mapEvent(ev))
			if err != nil {
				log.Error("failed to marshal progress event", "error", err)
				continue
			}
			io.WriteString(w, "event: "+string(ev.Stage)+"\ndata: "+string(marshalled)+"\n\n")
			flusher.Flush()
			if ev.Stage.Terminal() && ev.Err != nil {
				log.Warn("submission attempt failed", "error", ev.Err)
			}
		}
	}
}
