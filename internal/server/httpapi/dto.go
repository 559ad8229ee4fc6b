package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/journalapp/syncserver/internal/server/models"
)

// Wire shapes. Field names follow the protocol's camelCase convention;
// revision and deletedAt are omitted when unset.

type entryChange struct {
	ID               string     `json:"id"`
	PayloadEncrypted string     `json:"payloadEncrypted"`
	PayloadVersion   int64      `json:"payloadVersion"`
	AttachmentIDs    []string   `json:"attachmentIds"`
	JournalID        string     `json:"journalId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	Revision         *int64     `json:"revision,omitempty"`
}

type attachmentMetaChange struct {
	ID        string     `json:"id"`
	SHA256    string     `json:"sha256"`
	SizeBytes int64      `json:"sizeBytes"`
	MimeType  string     `json:"mimeType"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	Revision  *int64     `json:"revision,omitempty"`
}

type journalChange struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     *string    `json:"color,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	Revision  *int64     `json:"revision,omitempty"`
}

type syncChangesResponse struct {
	LatestRevision int64                  `json:"latestRevision"`
	Entries        []entryChange          `json:"entries"`
	Attachments    []attachmentMetaChange `json:"attachments"`
	Journals       []journalChange        `json:"journals"`
}

type pushRequest struct {
	Entries         []entryChange          `json:"entries"`
	AttachmentsMeta []attachmentMetaChange `json:"attachmentsMeta"`
	Journals        []journalChange        `json:"journals"`
}

type pushResponse struct {
	Accepted           []string `json:"accepted"`
	Conflicts          []string `json:"conflicts"`
	MissingAttachments []string `json:"missingAttachments"`
}

type journalListResponse struct {
	Journals []journalChange `json:"journals"`
}

type createJournalRequest struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type updateJournalRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	DeviceID     string `json:"deviceId"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	DeviceID     string `json:"deviceId"`
}

type presignedURLResponse struct {
	URL string `json:"url"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// Model conversions.

func entryFromModel(m *models.Entry) entryChange {
	ids := m.AttachmentIDs
	if ids == nil {
		ids = []string{}
	}
	return entryChange{
		ID:               m.ID,
		PayloadEncrypted: m.PayloadEncrypted,
		PayloadVersion:   m.PayloadVersion,
		AttachmentIDs:    ids,
		JournalID:        m.JournalID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		DeletedAt:        m.DeletedAt,
		Revision:         m.Revision,
	}
}

func (c entryChange) toModel() *models.Entry {
	return &models.Entry{
		SyncMeta: models.SyncMeta{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			DeletedAt: c.DeletedAt,
			Revision:  c.Revision,
		},
		PayloadEncrypted: c.PayloadEncrypted,
		PayloadVersion:   c.PayloadVersion,
		AttachmentIDs:    c.AttachmentIDs,
		JournalID:        c.JournalID,
	}
}

func attachmentFromModel(m *models.AttachmentMeta) attachmentMetaChange {
	return attachmentMetaChange{
		ID:        m.ID,
		SHA256:    m.SHA256,
		SizeBytes: m.SizeBytes,
		MimeType:  m.MimeType,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		DeletedAt: m.DeletedAt,
		Revision:  m.Revision,
	}
}

func (c attachmentMetaChange) toModel() *models.AttachmentMeta {
	return &models.AttachmentMeta{
		SyncMeta: models.SyncMeta{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			DeletedAt: c.DeletedAt,
			Revision:  c.Revision,
		},
		SHA256:    c.SHA256,
		SizeBytes: c.SizeBytes,
		MimeType:  c.MimeType,
	}
}

func journalFromModel(m *models.Journal) journalChange {
	return journalChange{
		ID:        m.ID,
		Name:      m.Name,
		Color:     m.Color,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		DeletedAt: m.DeletedAt,
		Revision:  m.Revision,
	}
}

func (c journalChange) toModel() *models.Journal {
	return &models.Journal{
		SyncMeta: models.SyncMeta{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			DeletedAt: c.DeletedAt,
			Revision:  c.Revision,
		},
		Name:  c.Name,
		Color: c.Color,
	}
}

func snapshotResponse(s *models.SyncSnapshot) syncChangesResponse {
	resp := syncChangesResponse{
		LatestRevision: s.LatestRevision,
		Entries:        []entryChange{},
		Attachments:    []attachmentMetaChange{},
		Journals:       []journalChange{},
	}
	for _, e := range s.Entries {
		resp.Entries = append(resp.Entries, entryFromModel(e))
	}
	for _, a := range s.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentFromModel(a))
	}
	for _, j := range s.Journals {
		resp.Journals = append(resp.Journals, journalFromModel(j))
	}
	return resp
}

func (r pushRequest) toBatch() *models.PushBatch {
	batch := &models.PushBatch{}
	for _, e := range r.Entries {
		batch.Entries = append(batch.Entries, e.toModel())
	}
	for _, a := range r.AttachmentsMeta {
		batch.AttachmentsMeta = append(batch.AttachmentsMeta, a.toModel())
	}
	for _, j := range r.Journals {
		batch.Journals = append(batch.Journals, j.toModel())
	}
	return batch
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}
