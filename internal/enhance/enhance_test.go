package enhance_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
	"github.com/qwertyasvishwa/Memory-Router/internal/enhance"
)

func newService(t *testing.T, fs afero.Fs) *enhance.Service {
	t.Helper()
	svc, err := enhance.NewService(fs, "enhancements_log.csv", nil)
	require.NoError(t, err)
	return svc
}

func TestRecordAndList(t *testing.T) {
	svc := newService(t, afero.NewMemMapFs())

	entry, err := svc.Record(enhance.Submission{
		Title:       "Faster drive listing",
		Description: "Cache folder metadata between requests",
		Reason:      "Listing felt sluggish",
		Area:        "API",
		Impact:      "performance",
		Tags:        []string{"drive"},
		Links:       []string{"https://example.com/pr/42"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.NotEmpty(t, entry.MonthTag)

	listed := svc.List(0)
	require.Len(t, listed, 1)
	assert.Equal(t, "Faster drive listing", listed[0].Title)
}

func TestRecordRejectsBlank(t *testing.T) {
	svc := newService(t, afero.NewMemMapFs())

	_, err := svc.Record(enhance.Submission{Title: " ", Description: "d"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Record(enhance.Submission{Title: "t", Description: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEntriesSurviveRestart(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc := newService(t, fs)

	_, err := svc.Record(enhance.Submission{Title: "t", Description: "d", Area: "UI"})
	require.NoError(t, err)

	reopened := newService(t, fs)
	listed := reopened.List(0)
	require.Len(t, listed, 1)
	assert.Equal(t, "t", listed[0].Title)
	assert.Equal(t, "UI", listed[0].Area)
}

func TestListLimit(t *testing.T) {
	svc := newService(t, afero.NewMemMapFs())
	for i := 0; i < 5; i++ {
		_, err := svc.Record(enhance.Submission{Title: "t", Description: "d"})
		require.NoError(t, err)
	}
	assert.Len(t, svc.List(3), 3)
}

func TestSuggestionsFromKeywords(t *testing.T) {
	svc := newService(t, afero.NewMemMapFs())

	for i := 0; i < 2; i++ {
		_, err := svc.Record(enhance.Submission{
			Title:       "Trimmed API latency",
			Description: "Cut response time on the drive listing",
			Impact:      "latency",
		})
		require.NoError(t, err)
	}
	_, err := svc.Record(enhance.Submission{
		Title:       "Added runbook",
		Description: "documentation for the deploy flow",
	})
	require.NoError(t, err)

	suggestions := svc.Suggestions(5)
	require.NotEmpty(t, suggestions)
	// Latency appears twice, so it ranks first.
	assert.Equal(t, "Tighten latency budgets", suggestions[0].Title)
}

func TestSuggestionsFallback(t *testing.T) {
	svc := newService(t, afero.NewMemMapFs())
	_, err := svc.Record(enhance.Submission{Title: "Small fix", Description: "edge case in parser", Area: "core"})
	require.NoError(t, err)

	suggestions := svc.Suggestions(5)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Revisit the most recent change area", suggestions[0].Title)
}

func TestBuildReport(t *testing.T) {
	svc := newService(t, afero.NewMemMapFs())
	_, err := svc.Record(enhance.Submission{
		Title:       "Faster drive listing",
		Description: "Cache folder metadata",
		Area:        "API",
		Impact:      "performance",
		Links:       []string{"https://example.com/pr/42"},
	})
	require.NoError(t, err)

	report := enhance.BuildReport(svc.List(0))
	assert.Contains(t, report, "# Enhancement Log Export")
	assert.Contains(t, report, "## Faster drive listing")
	assert.Contains(t, report, "https://example.com/pr/42")
}
