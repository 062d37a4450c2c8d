package service

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/editais-pncp/portal-client/internal/core/domain"
	"github.com/editais-pncp/portal-client/internal/core/normalizer"
	"github.com/editais-pncp/portal-client/internal/core/ports"
	"github.com/editais-pncp/portal-client/internal/infrastructure/metrics"
)

const defaultUpdateMessage = "Atualização iniciada."

type noticeList struct {
	Data []domain.RawNotice `json:"data"`
}

type noticeDetail struct {
	Data domain.RawNotice `json:"data"`
}

type itemList struct {
	Data []domain.RawItem `json:"data"`
}

type updateResponse struct {
	Message string `json:"message"`
}

// NoticeService implements ports.NoticeService on top of the backend client.
type NoticeService struct {
	client    ports.HTTPClient
	refresher ports.Refresher
	log       zerolog.Logger
}

var _ ports.NoticeService = (*NoticeService)(nil)

// NewNoticeService wires the service. refresher is called after an update is
// triggered so the cached status reflects it; it may be nil.
func NewNoticeService(client ports.HTTPClient, refresher ports.Refresher, log zerolog.Logger) *NoticeService {
	return &NoticeService{client: client, refresher: refresher, log: log}
}

func (s *NoticeService) List(ctx context.Context) ([]domain.Notice, error) {
	var body noticeList
	if err := s.client.GetJSON(ctx, "/api/editais", &body); err != nil {
		return nil, err
	}
	notices := normalizer.NormalizeAll(body.Data)
	metrics.NoticesLoaded.Set(float64(len(notices)))

	unlinkable := 0
	for _, n := range notices {
		if !n.Linkable() {
			unlinkable++
		}
	}
	s.log.Debug().Int("count", len(notices)).Int("unlinkable", unlinkable).Msg("notices loaded")
	return notices, nil
}

func (s *NoticeService) Get(ctx context.Context, key string) (domain.Notice, error) {
	if key == "" {
		return domain.Notice{}, domain.ErrUnlinkable
	}
	var body noticeDetail
	if err := s.client.GetJSON(ctx, "/api/editais/"+url.PathEscape(key), &body); err != nil {
		return domain.Notice{}, err
	}
	return normalizer.Normalize(body.Data), nil
}

func (s *NoticeService) Items(ctx context.Context, key string) ([]domain.NoticeItem, error) {
	if key == "" {
		return nil, domain.ErrUnlinkable
	}
	var body itemList
	if err := s.client.GetJSON(ctx, "/api/editais/"+url.PathEscape(key)+"/itens", &body); err != nil {
		return nil, err
	}
	return normalizer.NormalizeItems(body.Data), nil
}

// TriggerUpdate starts a backend refresh and then re-resolves the session so
// the scheduler state shown to the operator is current. A failed re-resolution
// is logged, not returned: the update itself was accepted.
func (s *NoticeService) TriggerUpdate(ctx context.Context) (string, error) {
	var body updateResponse
	if err := s.client.PostJSON(ctx, "/api/trigger-update", nil, &body); err != nil {
		return "", err
	}
	msg := body.Message
	if msg == "" {
		msg = defaultUpdateMessage
	}
	s.log.Info().Str("message", msg).Msg("update triggered")

	if s.refresher != nil {
		if err := s.refresher.Refresh(ctx); err != nil {
			s.log.Warn().Err(err).Msg("status refresh after update failed")
		}
	}
	return msg, nil
}

func (s *NoticeService) Export(ctx context.Context, format domain.ExportFormat, w io.Writer) (int64, error) {
	if !format.Valid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	n, err := s.client.Download(ctx, "/download/editais."+string(format), w)
	if n > 0 {
		metrics.ExportBytesTotal.WithLabelValues(string(format)).Add(float64(n))
	}
	if err != nil {
		return n, err
	}
	s.log.Info().Str("format", string(format)).Int64("bytes", n).Msg("export downloaded")
	return n, nil
}
