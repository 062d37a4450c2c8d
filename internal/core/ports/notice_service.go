package ports

import (
	"context"
	"io"

	"github.com/editais-pncp/portal-client/internal/core/domain"
)

// NoticeService exposes the notice list, detail, items and bulk actions.
type NoticeService interface {
	List(ctx context.Context) ([]domain.Notice, error)
	Get(ctx context.Context, key string) (domain.Notice, error)
	Items(ctx context.Context, key string) ([]domain.NoticeItem, error)
	// TriggerUpdate asks the backend to refresh its data asynchronously and
	// returns the backend's message.
	TriggerUpdate(ctx context.Context) (string, error)
	Export(ctx context.Context, format domain.ExportFormat, w io.Writer) (int64, error)
}
