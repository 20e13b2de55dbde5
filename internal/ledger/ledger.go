// Package ledger records structured outcome entries and uploads each as
// a standalone JSON file under ledger/<YYYY-MM>/ in the remote drive.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
	"github.com/qwertyasvishwa/Memory-Router/internal/facet"
	"github.com/qwertyasvishwa/Memory-Router/internal/normalize"
)

// Writer persists one record at a logical path in the remote store.
type Writer interface {
	StoreJSON(ctx context.Context, logicalPath string, record any) (string, error)
}

// Service builds ledger records and hands them to the remote writer.
// It keeps an in-memory view for display; the remote drive owns the
// durable copies.
type Service struct {
	writer Writer
	log    *zap.Logger

	mu      sync.RWMutex
	records []domain.LedgerRecord
}

// NewService creates a ledger service backed by writer.
func NewService(writer Writer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{writer: writer, log: log}
}

// Build turns a submission into a fully populated ledger record. The
// summary runs through the same normalization as entry content, and the
// derived facet tags are appended after any value/artifact tag names.
func Build(sub domain.LedgerSubmission, source domain.Source, createdAt time.Time) (domain.LedgerRecord, error) {
	if strings.TrimSpace(sub.Title) == "" {
		return domain.LedgerRecord{}, domain.ErrInvalidInput
	}
	summary, err := normalize.Content(sub.Summary)
	if err != nil {
		return domain.LedgerRecord{}, err
	}

	derived := facet.Derive(sub.Theme, sub.Lens, createdAt)
	extra := make([]string, 0, len(sub.ValueTags)+len(sub.ArtifactTags))
	for _, v := range sub.ValueTags {
		extra = append(extra, string(v))
	}
	for _, a := range sub.ArtifactTags {
		extra = append(extra, string(a))
	}

	return domain.LedgerRecord{
		ID:           uuid.New().String(),
		CreatedAt:    createdAt,
		Title:        strings.TrimSpace(sub.Title),
		Summary:      summary,
		Theme:        sub.Theme,
		Lens:         sub.Lens,
		Project:      strings.TrimSpace(sub.Project),
		ValueTags:    sub.ValueTags,
		ArtifactTags: sub.ArtifactTags,
		References:   sub.References,
		MonthTag:     facet.MonthKey(createdAt),
		Tags:         normalize.MergeTags(extra, derived),
		Actor:        sub.Actor,
		Source:       source,
	}, nil
}

// Log builds, uploads, and retains one ledger record. Remote failures
// are returned unchanged and nothing is retained locally.
func (s *Service) Log(ctx context.Context, sub domain.LedgerSubmission, source domain.Source) (domain.LedgerRecord, error) {
	record, err := Build(sub, source, time.Now().UTC())
	if err != nil {
		return domain.LedgerRecord{}, err
	}

	path := fmt.Sprintf("ledger/%s/%s.json", record.MonthTag, record.ID)
	if _, err := s.writer.StoreJSON(ctx, path, record); err != nil {
		return domain.LedgerRecord{}, err
	}

	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()

	s.log.Info("ledger record stored",
		zap.String("id", record.ID),
		zap.String("theme", record.Theme),
		zap.String("lens", record.Lens))
	return record, nil
}

// List returns the records accepted during this process, newest first.
func (s *Service) List() []domain.LedgerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LedgerRecord, len(s.records))
	copy(out, s.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
