package server

import (
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wassi-real/lidforms/internal/fault"
	"github.com/wassi-real/lidforms/internal/model"
	"github.com/wassi-real/lidforms/internal/pipeline"
)

// handleSubmit handles POST /f/{id} and POST /api/forms/{id}/submissions.
// The body is urlencoded or multipart form data keyed by field id.
func (s *FormsServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	if err := parseFormBody(r, s.maxBodyBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "form body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	res := s.pipeline.Submit(r.Context(), formID, model.RawValues(r.PostForm))
	if res.Outcome != pipeline.Success {
		writeError(w, res.Status(), res.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": res.Message})
}

// parseFormBody fills r.PostForm from either body encoding.
func parseFormBody(r *http.Request, maxMemory int64) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		return r.ParseMultipartForm(maxMemory)
	}
	return r.ParseForm()
}

// handleGetForm handles GET /api/forms/{id}.
func (s *FormsServer) handleGetForm(w http.ResponseWriter, r *http.Request) {
	schema, err := s.pipeline.Fetch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, fault.KindOf(err).Status(), fault.PublicMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, schema)
}
