// Package intake routes accepted submissions through normalization and
// tag derivation to the remote writer. It handles the closed set of
// submission shapes exhaustively; adding a variant without handling it
// here is a compile-time visible change, not a runtime surprise.
package intake

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
	"github.com/qwertyasvishwa/Memory-Router/internal/facet"
	"github.com/qwertyasvishwa/Memory-Router/internal/ledger"
	"github.com/qwertyasvishwa/Memory-Router/internal/normalize"
	"github.com/qwertyasvishwa/Memory-Router/internal/recent"
	"github.com/qwertyasvishwa/Memory-Router/internal/todo"
)

// Writer persists one record at a logical path in the remote store.
// Failures are surfaced to the caller unmodified; intake never retries.
type Writer interface {
	StoreJSON(ctx context.Context, logicalPath string, record any) (string, error)
}

// Result is whichever record a submission produced.
type Result struct {
	Entry  *domain.Entry        `json:"entry,omitempty"`
	Ledger *domain.LedgerRecord `json:"ledger,omitempty"`
	Todo   *domain.TodoRecord   `json:"todo,omitempty"`
	ItemID string               `json:"item_id,omitempty"`
}

// Service accepts submissions and fans them out to the remote writer,
// the recent list, and the ledger/todo services.
type Service struct {
	writer  Writer
	recent  *recent.List
	ledgers *ledger.Service
	todos   *todo.Service
	driveID string
	log     *zap.Logger
}

// NewService wires an intake service. The recent list is owned by the
// caller; intake only appends to it.
func NewService(writer Writer, recentList *recent.List, ledgers *ledger.Service, todos *todo.Service, driveID string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		writer:  writer,
		recent:  recentList,
		ledgers: ledgers,
		todos:   todos,
		driveID: driveID,
		log:     log,
	}
}

// Accept normalizes and persists one submission. All four variants of
// the submission type are handled here.
func (s *Service) Accept(ctx context.Context, sub domain.Submission, source domain.Source) (Result, error) {
	switch v := sub.(type) {
	case domain.NoteSubmission:
		return s.acceptEntry(ctx, normalize.EntryInput{
			Project:    v.Project,
			Category:   domain.CategoryNote,
			ContentRaw: v.Content,
			Tags:       v.Tags,
		}, source)

	case domain.ProgressSubmission:
		return s.acceptEntry(ctx, normalize.EntryInput{
			Project:       v.Project,
			Category:      domain.CategoryProgress,
			ContentRaw:    v.Content,
			Tags:          v.Tags,
			ProgressStage: v.Stage,
			ProgressNotes: v.Notes,
		}, source)

	case domain.LedgerSubmission:
		record, err := s.ledgers.Log(ctx, v, source)
		if err != nil {
			return Result{}, err
		}
		return Result{Ledger: &record}, nil

	case domain.TaskSubmission:
		record, err := s.todos.Add(ctx, v)
		if err != nil {
			return Result{}, err
		}
		return Result{Todo: &record}, nil

	default:
		return Result{}, fmt.Errorf("unhandled submission type %T", sub)
	}
}

// AcceptEntry normalizes a raw entry input directly, for callers that
// already carry an explicit category (the generic /api/entries route).
func (s *Service) AcceptEntry(ctx context.Context, in normalize.EntryInput, source domain.Source) (Result, error) {
	return s.acceptEntry(ctx, in, source)
}

func (s *Service) acceptEntry(ctx context.Context, in normalize.EntryInput, source domain.Source) (Result, error) {
	entry, err := normalize.Entry(in, source)
	if err != nil {
		return Result{}, err
	}

	path := fmt.Sprintf("entries/%s/%s.json", facet.MonthKey(entry.CreatedAt), entry.ID)
	itemID, err := s.writer.StoreJSON(ctx, path, entry)
	if err != nil {
		return Result{}, err
	}

	s.recent.Append(entry)
	s.recordCompanionLedger(ctx, entry, itemID, source)

	s.log.Info("entry accepted",
		zap.String("id", entry.ID),
		zap.String("category", string(entry.Category)),
		zap.String("source", string(source)))
	return Result{Entry: &entry, ItemID: itemID}, nil
}

// recordCompanionLedger logs a ledger record for every accepted entry.
// Best effort: a ledger failure never blocks the entry itself.
func (s *Service) recordCompanionLedger(ctx context.Context, entry domain.Entry, itemID string, source domain.Source) {
	summary := entry.ContentNormalized
	if len(summary) > 240 {
		summary = summary[:240]
	}

	artifact := domain.ArtifactNote
	if entry.Category == domain.CategoryProgress {
		artifact = domain.ArtifactWorkflowDecision
	}

	_, err := s.ledgers.Log(ctx, domain.LedgerSubmission{
		Title:        fmt.Sprintf("%s entry captured", titleCase(string(entry.Category))),
		Summary:      summary,
		Theme:        "Workflow",
		Lens:         "MemoryRouter",
		Project:      entry.Project,
		ValueTags:    []domain.ValueTag{domain.ValueGrowth, domain.ValueEfficiency},
		ArtifactTags: []domain.ArtifactType{artifact},
		References: []string{
			fmt.Sprintf("https://graph.microsoft.com/v1.0/drives/%s/items/%s", s.driveID, itemID),
		},
		Actor: "memory-router",
	}, source)
	if err != nil {
		s.log.Warn("companion ledger record failed",
			zap.String("entry", entry.ID), zap.Error(err))
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
