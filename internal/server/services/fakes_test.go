package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/journalapp/syncserver/internal/common"
	"github.com/journalapp/syncserver/internal/dbx"
	"github.com/journalapp/syncserver/internal/server/models"
	"github.com/journalapp/syncserver/internal/server/repositories/attachments"
	"github.com/journalapp/syncserver/internal/server/repositories/entries"
	"github.com/journalapp/syncserver/internal/server/repositories/journals"
	"github.com/journalapp/syncserver/internal/server/repositories/refreshtokens"
	"github.com/journalapp/syncserver/internal/server/repositories/revisions"
	"github.com/journalapp/syncserver/internal/server/repositories/users"
)

// -------- test fakes --------

type fakeEntriesRepo struct {
	records map[string]*models.Entry
	err     error
}

func (f *fakeEntriesRepo) Get(ctx context.Context, id string) (*models.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[id], nil
}

func (f *fakeEntriesRepo) CreateOrUpdate(ctx context.Context, e *models.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.records[e.ID] = e
	return nil
}

func (f *fakeEntriesRepo) SelectSince(ctx context.Context, since int64) ([]*models.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Entry
	for _, e := range f.records {
		if e.StoredRevision() > since {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAttachmentsRepo struct {
	records map[string]*models.AttachmentMeta
}

func (f *fakeAttachmentsRepo) Get(ctx context.Context, id string) (*models.AttachmentMeta, error) {
	return f.records[id], nil
}

func (f *fakeAttachmentsRepo) CreateOrUpdate(ctx context.Context, a *models.AttachmentMeta) error {
	f.records[a.ID] = a
	return nil
}

func (f *fakeAttachmentsRepo) SelectSince(ctx context.Context, since int64) ([]*models.AttachmentMeta, error) {
	var out []*models.AttachmentMeta
	for _, a := range f.records {
		if a.StoredRevision() > since {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeJournalsRepo struct {
	records map[string]*models.Journal
	upserts int
}

func (f *fakeJournalsRepo) Get(ctx context.Context, id string) (*models.Journal, error) {
	return f.records[id], nil
}

func (f *fakeJournalsRepo) CreateOrUpdate(ctx context.Context, j *models.Journal) error {
	f.upserts++
	f.records[j.ID] = j
	return nil
}

func (f *fakeJournalsRepo) SelectSince(ctx context.Context, since int64) ([]*models.Journal, error) {
	var out []*models.Journal
	for _, j := range f.records {
		if j.StoredRevision() > since {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeJournalsRepo) SelectAll(ctx context.Context) ([]*models.Journal, error) {
	var out []*models.Journal
	for _, j := range f.records {
		out = append(out, j)
	}
	return out, nil
}

type fakeUsersRepo struct {
	byEmail map[string]*models.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	user.CreatedAt = time.Now().UTC()
	f.byEmail[user.Email] = user
	return user, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

type fakeRefreshTokensRepo struct {
	tokens map[string]*models.RefreshToken
}

func (f *fakeRefreshTokensRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeRefreshTokensRepo) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return stored, nil
}

func (f *fakeRefreshTokensRepo) Delete(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

// fakeRepoManager hands out the same in-memory repositories regardless of the
// DBTX, so service logic can be exercised without a database. Transactions
// still run, against sqlmock.
type fakeRepoManager struct {
	entries       *fakeEntriesRepo
	attachments   *fakeAttachmentsRepo
	journals      *fakeJournalsRepo
	revisions     *revisions.MemoryRepository
	users         *fakeUsersRepo
	refreshTokens *fakeRefreshTokensRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		entries:       &fakeEntriesRepo{records: make(map[string]*models.Entry)},
		attachments:   &fakeAttachmentsRepo{records: make(map[string]*models.AttachmentMeta)},
		journals:      &fakeJournalsRepo{records: make(map[string]*models.Journal)},
		revisions:     revisions.NewMemoryRepository(),
		users:         &fakeUsersRepo{byEmail: make(map[string]*models.User)},
		refreshTokens: &fakeRefreshTokensRepo{tokens: make(map[string]*models.RefreshToken)},
	}
}

func (m *fakeRepoManager) Entries(db dbx.DBTX) entries.Repository             { return m.entries }
func (m *fakeRepoManager) Attachments(db dbx.DBTX) attachments.Repository     { return m.attachments }
func (m *fakeRepoManager) Journals(db dbx.DBTX) journals.Repository           { return m.journals }
func (m *fakeRepoManager) Revisions(db dbx.DBTX) revisions.Repository         { return m.revisions }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.refreshTokens }
func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// expectTxs registers n successful begin/commit pairs, one per accepted
// record.
func expectTxs(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }
