package analysis

import "context"

// HistoryRepository persists and lists analysis records. Records are never
// updated or deleted.
type HistoryRepository interface {
	Append(ctx context.Context, rec *HistoryRecord) error
	Paginate(ctx context.Context, userID string, page, pageSize int) (PaginatedResult, error)
}

// ImageArchive keeps a copy of analyzed images and returns their location.
type ImageArchive interface {
	PutImage(ctx context.Context, key string, img *Image) (string, error)
}
