package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wassi-real/lidforms/internal/fault"
	"github.com/wassi-real/lidforms/internal/model"
	"github.com/wassi-real/lidforms/internal/session"
)

// handleMe handles GET /api/me.
func (s *FormsServer) handleMe(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess)
}

// handleListOwnerForms handles GET /api/dashboard/forms.
func (s *FormsServer) handleListOwnerForms(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	forms, err := s.store.ListOwnerForms(ctx, sess.UserID)
	if err != nil {
		s.log.Error("list owner forms", zap.String("user_id", sess.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load forms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"forms": forms})
}

// handleGetOwnerForm handles GET /api/dashboard/forms/{id}. Forms owned by
// someone else are reported exactly like missing ones.
func (s *FormsServer) handleGetOwnerForm(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	formID := chi.URLParam(r, "id")
	form, fields, err := s.store.GetOwnerForm(ctx, sess.UserID, formID)
	if err != nil {
		kind := fault.KindOf(err)
		if !kind.IsClient() {
			s.log.Error("get owner form", zap.String("form_id", formID), zap.Error(err))
		}
		writeError(w, kind.Status(), fault.PublicMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, &model.FormSchema{Form: form, Fields: fields})
}
