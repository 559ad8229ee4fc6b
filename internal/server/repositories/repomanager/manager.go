package repomanager

import (
	"context"
	"database/sql"

	"github.com/journalapp/syncserver/internal/dbx"
	"github.com/journalapp/syncserver/internal/server/repositories/attachments"
	"github.com/journalapp/syncserver/internal/server/repositories/entries"
	"github.com/journalapp/syncserver/internal/server/repositories/journals"
	"github.com/journalapp/syncserver/internal/server/repositories/refreshtokens"
	"github.com/journalapp/syncserver/internal/server/repositories/revisions"
	"github.com/journalapp/syncserver/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// repository code runs against *sql.DB for reads and against *sql.Tx inside
// dbx.WithTx for the per-record draw-and-upsert critical section.
type RepositoryManager interface {
	Entries(db dbx.DBTX) entries.Repository
	Attachments(db dbx.DBTX) attachments.Repository
	Journals(db dbx.DBTX) journals.Repository
	Revisions(db dbx.DBTX) revisions.Repository
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
