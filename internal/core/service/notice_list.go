package service

import (
	"context"
	"sync"
	"time"

	"github.com/editais-pncp/portal-client/internal/core/domain"
	"github.com/editais-pncp/portal-client/internal/core/search"
)

// NoticeLister is the part of ports.NoticeService the list view needs.
type NoticeLister interface {
	List(ctx context.Context) ([]domain.Notice, error)
}

// NoticeList is the state behind the list page. A failed load keeps the
// previous records and records the error.
type NoticeList struct {
	source NoticeLister

	mu       sync.RWMutex
	notices  []domain.Notice
	err      error
	loadedAt time.Time
}

func NewNoticeList(source NoticeLister) *NoticeList {
	return &NoticeList{source: source}
}

// Load fetches the list. On error the prior records stay in place. A load
// whose ctx ends while the fetch is in flight returns ctx.Err() and changes
// nothing.
func (l *NoticeList) Load(ctx context.Context) error {
	notices, err := l.source.List(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		l.err = err
		return err
	}
	l.notices = notices
	l.err = nil
	l.loadedAt = time.Now()
	return nil
}

// Notices returns the current records in backend order.
func (l *NoticeList) Notices() []domain.Notice {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.Notice(nil), l.notices...)
}

// Filter applies the search term to the current records.
func (l *NoticeList) Filter(term string, opts ...search.Option) []domain.Notice {
	return search.Filter(l.Notices(), term, opts...)
}

// Err returns the error of the last load, or nil if it succeeded.
func (l *NoticeList) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// LoadedAt is the time of the last successful load.
func (l *NoticeList) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}
