package revisions

import "context"

// Repository issues dataset-wide revision numbers. Next returns a value
// strictly greater than every value issued before, atomically under
// concurrent callers; Latest returns the highest value issued so far (0 if
// none). Gaps are acceptable — a value drawn inside an aborted transaction
// is simply lost — monotonicity is the only hard guarantee.
type Repository interface {
	Next(ctx context.Context) (int64, error)
	Latest(ctx context.Context) (int64, error)
}
