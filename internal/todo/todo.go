// Package todo is a lightweight task tracker stored directly in the
// remote drive under todos/<YYYY-MM>/.
package todo

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

// Service builds todo records and hands them to the remote writer.
type Service struct {
	writer Writer
	log    *zap.Logger

	mu      sync.RWMutex
	records []domain.TodoRecord
}

// NewService creates a todo service backed by writer.
func NewService(writer Writer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{writer: writer, log: log}
}

// Build validates and normalizes a task submission. The title is
// required; details, when present, pass through content normalization.
func Build(sub domain.TaskSubmission, createdAt time.Time) (domain.TodoRecord, error) {
	title := strings.TrimSpace(sub.Title)
	if title == "" {
		return domain.TodoRecord{}, domain.ErrInvalidInput
	}

	details := ""
	if strings.TrimSpace(sub.Details) != "" {
		normalized, err := normalize.Content(sub.Details)
		if err != nil {
			return domain.TodoRecord{}, err
		}
		details = normalized
	}

	return domain.TodoRecord{
		ID:        uuid.New().String(),
		CreatedAt: createdAt,
		Title:     title,
		Details:   details,
		Status:    domain.TodoPending,
		DueDate:   strings.TrimSpace(sub.DueDate),
		Tags:      normalize.MergeTags(sub.Tags, nil),
		MonthTag:  facet.MonthKey(createdAt),
	}, nil
}

// Add builds, uploads, and retains one todo record.
func (s *Service) Add(ctx context.Context, sub domain.TaskSubmission) (domain.TodoRecord, error) {
	record, err := Build(sub, time.Now().UTC())
	if err != nil {
		return domain.TodoRecord{}, err
	}

	path := fmt.Sprintf("todos/%s/%s.json", record.MonthTag, record.ID)
	if _, err := s.writer.StoreJSON(ctx, path, record); err != nil {
		return domain.TodoRecord{}, err
	}

	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()

	s.log.Info("todo recorded", zap.String("id", record.ID), zap.String("title", record.Title))
	return record, nil
}

// statusRank orders pending before in_progress before done.
func statusRank(st domain.TodoStatus) int {
	switch st {
	case domain.TodoPending:
		return 0
	case domain.TodoInProgress:
		return 1
	default:
		return 2
	}
}

// List returns this process's todos sorted by status, newest first
// within each status.
func (s *Service) List() []domain.TodoRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TodoRecord, len(s.records))
	copy(out, s.records)
	sort.SliceStable(out, func(i, j int) bool {
		if statusRank(out[i].Status) != statusRank(out[j].Status) {
			return statusRank(out[i].Status) < statusRank(out[j].Status)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
