package tracker_test

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwertyasvishwa/Memory-Router/internal/tracker"
)

func newTracker(t *testing.T, fs afero.Fs) *tracker.Tracker {
	t.Helper()
	tr, err := tracker.New(fs, "weekly_tasks_log.csv", nil)
	require.NoError(t, err)
	return tr
}

func TestProcessUpdateGeneratesTasks(t *testing.T) {
	tr := newTracker(t, afero.NewMemMapFs())

	summary, err := tr.ProcessUpdate(tracker.Submission{
		Project:      "Apollo",
		ActivityType: tracker.ActivityEngineeringDelivery,
		Update:       "Deliver the launch checklist to the platform team. The rollout plan is still pending review.",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, "Apollo", summary.Project)
	assert.Equal(t, tracker.ActivityEngineeringDelivery, summary.ActivityType)

	require.NotEmpty(t, summary.GeneratedTasks)
	assert.Equal(t, "Deliver the launch checklist to the platform team.", summary.GeneratedTasks[0])

	require.NotEmpty(t, summary.OverlookedTasks)
	assert.True(t, strings.HasPrefix(summary.OverlookedTasks[0], "Ensure follow-up on"))
}

func TestProcessUpdateShapesNonLeadSentences(t *testing.T) {
	tr := newTracker(t, afero.NewMemMapFs())

	summary, err := tr.ProcessUpdate(tracker.Submission{
		Update: "the landing page copy went out to reviewers yesterday.",
	})
	require.NoError(t, err)
	require.NotEmpty(t, summary.GeneratedTasks)
	assert.True(t, strings.HasPrefix(summary.GeneratedTasks[0], "Drive The landing page copy"))
}

func TestProcessUpdateRejectsEmpty(t *testing.T) {
	tr := newTracker(t, afero.NewMemMapFs())
	_, err := tr.ProcessUpdate(tracker.Submission{Update: "   "})
	assert.Error(t, err)
}

func TestDedupeWithinProjectWeek(t *testing.T) {
	tr := newTracker(t, afero.NewMemMapFs())

	update := tracker.Submission{
		Project: "Apollo",
		Update:  "Deliver the launch checklist to the platform team.",
	}
	first, err := tr.ProcessUpdate(update)
	require.NoError(t, err)
	assert.Equal(t, "Deliver the launch checklist to the platform team.", first.GeneratedTasks[0])

	second, err := tr.ProcessUpdate(update)
	require.NoError(t, err)
	// Same project, same ISO week: the macro task is already tracked.
	assert.Equal(t,
		"No new macro-level tasks detected beyond the items already tracked in the weekly tracker.",
		second.GeneratedTasks[0])
}

func TestDedupeIsPerProject(t *testing.T) {
	tr := newTracker(t, afero.NewMemMapFs())

	update := "Deliver the launch checklist to the platform team."
	first, err := tr.ProcessUpdate(tracker.Submission{Project: "Apollo", Update: update})
	require.NoError(t, err)
	second, err := tr.ProcessUpdate(tracker.Submission{Project: "Hermes", Update: update})
	require.NoError(t, err)

	// A different project opens a fresh dedupe window.
	assert.Equal(t, first.GeneratedTasks[0], second.GeneratedTasks[0])
}

func TestSeenTasksSurviveRestart(t *testing.T) {
	fs := afero.NewMemMapFs()
	update := tracker.Submission{
		Project: "Apollo",
		Update:  "Deliver the launch checklist to the platform team.",
	}

	tr := newTracker(t, fs)
	_, err := tr.ProcessUpdate(update)
	require.NoError(t, err)

	// A fresh tracker over the same log must reload the dedupe state.
	reopened := newTracker(t, fs)
	again, err := reopened.ProcessUpdate(update)
	require.NoError(t, err)
	assert.Equal(t,
		"No new macro-level tasks detected beyond the items already tracked in the weekly tracker.",
		again.GeneratedTasks[0])
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	tr := newTracker(t, afero.NewMemMapFs())

	for _, project := range []string{"A", "B", "C"} {
		_, err := tr.ProcessUpdate(tracker.Submission{
			Project: project,
			Update:  "Deliver the " + project + " milestone to stakeholders this week.",
		})
		require.NoError(t, err)
	}

	history, err := tr.History(2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.False(t, history[0].CreatedAt.Before(history[1].CreatedAt))
}

func TestGet(t *testing.T) {
	tr := newTracker(t, afero.NewMemMapFs())

	summary, err := tr.ProcessUpdate(tracker.Submission{Update: "Deliver the weekly numbers to finance."})
	require.NoError(t, err)

	got, found, err := tr.Get(summary.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, summary.GeneratedTasks, got.GeneratedTasks)

	_, found, err = tr.Get("nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFilter(t *testing.T) {
	now := time.Now().UTC()
	entries := []tracker.Summary{
		{Project: "Apollo", ActivityType: tracker.ActivityEngineeringDelivery, CreatedAt: now, InputExcerpt: "ship the API"},
		{Project: "Hermes", ActivityType: tracker.ActivityProductDesign, CreatedAt: now.Add(-48 * time.Hour), InputExcerpt: "design review"},
		{ActivityType: tracker.ActivityCampaignExecution, CreatedAt: now, InputExcerpt: "newsletter"},
	}

	byProject := tracker.Filter(entries, tracker.FilterOptions{Project: "apollo"})
	require.Len(t, byProject, 1)
	assert.Equal(t, "Apollo", byProject[0].Project)

	byActivity := tracker.Filter(entries, tracker.FilterOptions{
		ActivityTypes: []tracker.ActivityType{tracker.ActivityProductDesign},
	})
	require.Len(t, byActivity, 1)

	byDate := tracker.Filter(entries, tracker.FilterOptions{DateFrom: now.Add(-time.Hour)})
	assert.Len(t, byDate, 2)

	byKeyword := tracker.Filter(entries, tracker.FilterOptions{Keyword: "API"})
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "Apollo", byKeyword[0].Project)
}

func TestSummaries(t *testing.T) {
	entries := []tracker.Summary{
		{Project: "Apollo", ActivityType: tracker.ActivityEngineeringDelivery},
		{Project: "Apollo", ActivityType: tracker.ActivityProductDesign},
		{ActivityType: tracker.ActivityProductDesign},
	}

	projects := tracker.ProjectSummary(entries)
	assert.Equal(t, 2, projects["Apollo"]["total"])
	assert.Equal(t, 1, projects["Uncategorized"]["total"])

	activities := tracker.ActivitySummary(entries)
	assert.Equal(t, 2, activities[string(tracker.ActivityProductDesign)])

	assert.Equal(t, []string{"Apollo"}, tracker.Projects(entries))
}

func TestBuildReport(t *testing.T) {
	entries := []tracker.Summary{{
		Project:         "Apollo",
		ActivityType:    tracker.ActivityEngineeringDelivery,
		CreatedAt:       time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		GeneratedTasks:  []string{"Deliver the launch checklist."},
		OverlookedTasks: []string{"Ensure follow-up on the rollout plan."},
	}}

	report := tracker.BuildReport(entries)
	assert.Contains(t, report, "# Weekly Task Tracker Export")
	assert.Contains(t, report, "## Apollo (2026-01-15 09:00 UTC)")
	assert.Contains(t, report, "*Activity type:* Engineering Delivery")
	assert.Contains(t, report, "- Deliver the launch checklist.")
}

func TestActivityDisplayName(t *testing.T) {
	assert.Equal(t, "Engineering Delivery", tracker.ActivityEngineeringDelivery.DisplayName())
	assert.Equal(t, "Ops Compliance", tracker.ActivityOpsCompliance.DisplayName())
}
