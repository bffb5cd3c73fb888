package source

import (
	"context"

	"main/internal/model"
)

// Reader is an ordered, replayable change-log consumer. Fetch returns
// records in source order; Commit acknowledges everything fetched so
// far, so a restart resumes after the last acknowledged offset.
// Redelivery after an uncommitted crash is expected (at-least-once);
// downstream sequence deduplication absorbs it.
type Reader interface {
	Fetch(ctx context.Context) (model.ChangeRecord, error)
	Commit(ctx context.Context) error
	Close() error
}
