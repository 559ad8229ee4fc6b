package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/journalapp/syncserver/internal/common"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- auth ----

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required.")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			writeError(w, http.StatusConflict, "EMAIL_ALREADY_REGISTERED", "Email is already registered.")
			return
		}
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{ID: user.ID, Email: user.Email})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body.")
		return
	}

	pair, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "Invalid email or password.")
			return
		}
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		DeviceID:     pair.DeviceID,
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body.")
		return
	}

	pair, err := s.auth.Refresh(r.Context(), req.RefreshToken, req.DeviceID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "AUTH_TOKEN_INVALID", "Refresh token is invalid.")
		case errors.Is(err, common.ErrRefreshTokenExpired):
			writeError(w, http.StatusUnauthorized, "AUTH_TOKEN_EXPIRED", "Refresh token has expired.")
		default:
			s.logger.Error(r.Context(), err.Error())
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		DeviceID:     pair.DeviceID,
	})
}

// ---- sync ----

func (s *Server) getChanges(w http.ResponseWriter, r *http.Request) {
	since := int64(0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid since parameter.")
			return
		}
		since = parsed
	}

	snapshot, err := s.sync.GetChanges(r.Context(), since)
	if err != nil {
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse(snapshot))
}

func (s *Server) pushChanges(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body.")
		return
	}

	result, err := s.sync.PushChanges(r.Context(), req.toBatch())
	if err != nil {
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		return
	}

	writeJSON(w, http.StatusOK, pushResponse{
		Accepted:           result.Accepted,
		Conflicts:          result.Conflicts,
		MissingAttachments: result.MissingAttachments,
	})
}

// ---- journals ----

func (s *Server) listJournals(w http.ResponseWriter, r *http.Request) {
	journals, err := s.journals.List(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		return
	}

	resp := journalListResponse{Journals: []journalChange{}}
	for _, j := range journals {
		resp.Journals = append(resp.Journals, journalFromModel(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getDefaultJournal(w http.ResponseWriter, r *http.Request) {
	journal, err := s.journals.GetDefault(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		return
	}
	writeJSON(w, http.StatusOK, journalFromModel(journal))
}

func (s *Server) createJournal(w http.ResponseWriter, r *http.Request) {
	var req createJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body.")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Journal name is required.")
		return
	}

	journal, err := s.journals.Create(r.Context(), req.Name, req.Color)
	if err != nil {
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		return
	}

	writeJSON(w, http.StatusCreated, journalFromModel(journal))
}

func (s *Server) updateJournal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body.")
		return
	}

	journal, err := s.journals.Update(r.Context(), id, req.Name, req.Color)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			writeError(w, http.StatusNotFound, "JOURNAL_NOT_FOUND", "Journal not found.")
		case errors.Is(err, common.ErrDefaultJournalImmutable):
			writeError(w, http.StatusBadRequest, "DEFAULT_JOURNAL_NAME_IMMUTABLE", "Default journal name cannot be changed.")
		default:
			s.logger.Error(r.Context(), err.Error())
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		}
		return
	}

	writeJSON(w, http.StatusOK, journalFromModel(journal))
}

func (s *Server) deleteJournal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.journals.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			writeError(w, http.StatusNotFound, "JOURNAL_NOT_FOUND", "Journal not found.")
		case errors.Is(err, common.ErrDefaultJournalImmutable):
			writeError(w, http.StatusBadRequest, "DEFAULT_JOURNAL_IMMUTABLE", "Default journal cannot be deleted.")
		default:
			s.logger.Error(r.Context(), err.Error())
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ---- attachments ----

func (s *Server) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	content, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read request body.")
		return
	}

	if err := s.attachments.Upload(r.Context(), id, content); err != nil {
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) downloadAttachment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	content, err := s.attachments.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Attachment not found.")
			return
		}
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// ---- storage ----

func (s *Server) uploadURL(w http.ResponseWriter, r *http.Request) {
	s.presignedURL(w, r, s.attachments.UploadURL)
}

func (s *Server) downloadURL(w http.ResponseWriter, r *http.Request) {
	s.presignedURL(w, r, s.attachments.DownloadURL)
}

func (s *Server) presignedURL(w http.ResponseWriter, r *http.Request, presign func(ctx context.Context, id string) (string, error)) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Attachment id is required.")
		return
	}

	url, err := presign(r.Context(), id)
	if err != nil {
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
		return
	}

	writeJSON(w, http.StatusOK, presignedURLResponse{URL: url})
}
