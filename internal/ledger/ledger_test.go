package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
	"github.com/qwertyasvishwa/Memory-Router/internal/ledger"
)

type captureWriter struct {
	paths   []string
	records []any
	err     error
}

func (w *captureWriter) StoreJSON(_ context.Context, path string, record any) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.paths = append(w.paths, path)
	w.records = append(w.records, record)
	return "item-1", nil
}

func TestBuild(t *testing.T) {
	at := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	record, err := ledger.Build(domain.LedgerSubmission{
		Title:        "  Shipped drive browser  ",
		Summary:      "Browser works\r\n\r\n\r\nDownload pending  ",
		Theme:        "Growth",
		Lens:         "Retro",
		Project:      "memrouter",
		ValueTags:    []domain.ValueTag{domain.ValueGrowth},
		ArtifactTags: []domain.ArtifactType{domain.ArtifactDemo},
	}, domain.SourceAPILedger, at)
	require.NoError(t, err)

	assert.Equal(t, "Shipped drive browser", record.Title)
	assert.Equal(t, "Browser works\n\nDownload pending", record.Summary)
	assert.Equal(t, "2026-01", record.MonthTag)
	assert.Equal(t, []string{"Growth", "Demo", "Theme/Growth", "Lens/Retro", "Month/2026-01"}, record.Tags)
	assert.NotEmpty(t, record.ID)
}

func TestBuildRejectsBlankTitleAndSummary(t *testing.T) {
	at := time.Now().UTC()
	_, err := ledger.Build(domain.LedgerSubmission{Title: " ", Summary: "x"}, domain.SourceAPILedger, at)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = ledger.Build(domain.LedgerSubmission{Title: "t", Summary: "  \n "}, domain.SourceAPILedger, at)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogStoresUnderMonthPath(t *testing.T) {
	w := &captureWriter{}
	svc := ledger.NewService(w, nil)

	record, err := svc.Log(context.Background(), domain.LedgerSubmission{
		Title:   "t",
		Summary: "s",
		Theme:   "Workflow",
		Lens:    "MemoryRouter",
	}, domain.SourceWebLedger)
	require.NoError(t, err)

	require.Len(t, w.paths, 1)
	assert.Equal(t, "ledger/"+record.MonthTag+"/"+record.ID+".json", w.paths[0])

	listed := svc.List()
	require.Len(t, listed, 1)
	assert.Equal(t, record.ID, listed[0].ID)
}

func TestLogRemoteFailureRetainsNothing(t *testing.T) {
	w := &captureWriter{err: errors.New("graph unavailable")}
	svc := ledger.NewService(w, nil)

	_, err := svc.Log(context.Background(), domain.LedgerSubmission{Title: "t", Summary: "s"}, domain.SourceAPILedger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph unavailable")
	assert.Empty(t, svc.List())
}

func TestListNewestFirst(t *testing.T) {
	w := &captureWriter{}
	svc := ledger.NewService(w, nil)

	ctx := context.Background()
	first, err := svc.Log(ctx, domain.LedgerSubmission{Title: "first", Summary: "a"}, domain.SourceAPILedger)
	require.NoError(t, err)
	second, err := svc.Log(ctx, domain.LedgerSubmission{Title: "second", Summary: "b"}, domain.SourceAPILedger)
	require.NoError(t, err)

	listed := svc.List()
	require.Len(t, listed, 2)
	// Stable sort keeps insertion order for identical timestamps.
	ids := []string{listed[0].ID, listed[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
	assert.False(t, listed[0].CreatedAt.Before(listed[1].CreatedAt))
}
