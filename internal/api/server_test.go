package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwertyasvishwa/Memory-Router/internal/enhance"
	"github.com/qwertyasvishwa/Memory-Router/internal/graph"
	"github.com/qwertyasvishwa/Memory-Router/internal/intake"
	"github.com/qwertyasvishwa/Memory-Router/internal/ledger"
	"github.com/qwertyasvishwa/Memory-Router/internal/recent"
	"github.com/qwertyasvishwa/Memory-Router/internal/todo"
	"github.com/qwertyasvishwa/Memory-Router/internal/tools"
	"github.com/qwertyasvishwa/Memory-Router/internal/tracker"
)

// memWriter satisfies the intake, ledger, and todo writer interfaces.
type memWriter struct {
	mu    sync.Mutex
	err   error
	paths []string
}

func (w *memWriter) StoreJSON(ctx context.Context, logicalPath string, record any) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	w.paths = append(w.paths, logicalPath)
	return fmt.Sprintf("item-%d", len(w.paths)), nil
}

type fakeDrive struct {
	err     error
	uploads []string
}

func (d *fakeDrive) ListDrives(ctx context.Context) ([]graph.Drive, error) {
	if d.err != nil {
		return nil, d.err
	}
	return []graph.Drive{{ID: "drive-1", Name: "Documents"}}, nil
}

func (d *fakeDrive) ListChildren(ctx context.Context, path, driveID string, baseFolder *string) ([]graph.DriveItem, error) {
	if d.err != nil {
		return nil, d.err
	}
	return []graph.DriveItem{
		{ID: "item-1", Name: "entries", Folder: &struct {
			ChildCount int `json:"childCount"`
		}{ChildCount: 2}},
		{ID: "item-2", Name: "readme.md", Size: 12, LastModified: time.Now()},
	}, nil
}

func (d *fakeDrive) DownloadItem(ctx context.Context, itemID, driveID string) ([]byte, string, string, error) {
	if d.err != nil {
		return nil, "", "", d.err
	}
	return []byte("hello"), "text/plain", "readme.md", nil
}

func (d *fakeDrive) UploadText(ctx context.Context, content, filename, subfolder, contentType string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.uploads = append(d.uploads, subfolder+"/"+filename)
	return "upload-1", nil
}

func (d *fakeDrive) HealthCheck(ctx context.Context) error { return d.err }

type testEnv struct {
	server *httptest.Server
	writer *memWriter
	drive  *fakeDrive
	recent *recent.List
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	w := &memWriter{}
	fs := afero.NewMemMapFs()

	trk, err := tracker.New(fs, "weekly.csv", nil)
	require.NoError(t, err)
	enh, err := enhance.NewService(fs, "enhance.csv", nil)
	require.NoError(t, err)

	reg := tools.NewRegistry(nil)
	reg.SeedHello()

	rec := recent.NewList(100)
	ledgers := ledger.NewService(w, nil)
	todos := todo.NewService(w, nil)
	drive := &fakeDrive{}

	srv := New(Deps{
		Intake:  intake.NewService(w, rec, ledgers, todos, "drive-1", nil),
		Ledger:  ledgers,
		Todos:   todos,
		Tracker: trk,
		Enhance: enh,
		Tools:   reg,
		Drive:   drive,
		Recent:  rec,
	}, ":0")

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, writer: w, drive: drive, recent: rec}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func (e *testEnv) getJSON(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestAddAndListEntries(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/entries", AddEntryRequest{
		Project: "demo",
		Content: "First note\r\n\r\n\r\nwith noise  ",
		Tags:    []string{"alpha"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var res intake.Result
	decode(t, resp, &res)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "First note\n\nwith noise", res.Entry.ContentNormalized)
	assert.Equal(t, "item-1", res.ItemID)

	var list struct {
		Entries []json.RawMessage `json:"entries"`
		Count   int               `json:"count"`
	}
	getResp := env.getJSON(t, "/api/entries", &list)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, 1, list.Count)
}

func TestAddEntryBlankContent(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/entries", AddEntryRequest{Content: "   \n\n  "})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, env.recent.Len())
}

func TestAddEntryUnknownCategory(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/entries", AddEntryRequest{Content: "hello", Category: "journal"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddEntryRemoteFailure(t *testing.T) {
	env := newTestEnv(t)
	env.writer.err = errors.New("graph is down")

	resp := env.postJSON(t, "/api/entries", AddEntryRequest{Content: "hello"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "graph is down")
}

func TestProjectProgress(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/projects/apollo/progress", ProgressRequest{
		Stage:   "rollout",
		Content: "Shipped to staging",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var res intake.Result
	decode(t, resp, &res)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "apollo", res.Entry.Project)
	assert.Equal(t, "rollout", res.Entry.ProgressStage)
}

func TestLedgerRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/ledger", LedgerRequest{
		Title:     "Shipped importer",
		Summary:   "Cut sync time in half",
		Theme:     "Growth",
		Lens:      "Retro",
		ValueTags: []string{"Efficiency"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var list struct {
		Records []map[string]any `json:"records"`
		Count   int              `json:"count"`
	}
	env.getJSON(t, "/api/ledger", &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Shipped importer", list.Records[0]["title"])
}

func TestTodoRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/todos", TodoRequest{Title: "Rotate secret", DueDate: "2026-09-30"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var list struct {
		Todos []map[string]any `json:"todos"`
		Count int              `json:"count"`
	}
	env.getJSON(t, "/api/todos", &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "pending", list.Todos[0]["status"])

	// a todo is not an entry, the recent list stays empty
	assert.Equal(t, 0, env.recent.Len())
}

func TestWeeklyProcessAndHistory(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/weekly-tasks", tracker.Submission{
		Project: "Apollo",
		Update:  "Lead the launch review with the partner team this week. The budget approval is still pending from finance.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary tracker.Summary
	decode(t, resp, &summary)
	assert.NotEmpty(t, summary.GeneratedTasks)
	assert.NotEmpty(t, summary.OverlookedTasks)

	var hist struct {
		Entries []tracker.Summary `json:"entries"`
		Count   int               `json:"count"`
	}
	env.getJSON(t, "/api/weekly-tasks/history?project=apollo", &hist)
	assert.Equal(t, 1, hist.Count)

	env.getJSON(t, "/api/weekly-tasks/history?project=other", &hist)
	assert.Equal(t, 0, hist.Count)
}

func TestWeeklyRejectsUnknownActivity(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/weekly-tasks", map[string]string{
		"activity_type": "yelling",
		"update":        "something happened",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEnhancementsRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/enhancements", enhance.Submission{
		Title:       "Reduce latency on uploads",
		Description: "Batched the Graph calls",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var list struct {
		Entries []enhance.Entry `json:"entries"`
		Count   int             `json:"count"`
	}
	env.getJSON(t, "/api/enhancements", &list)
	assert.Equal(t, 1, list.Count)

	var sugg struct {
		Suggestions []enhance.Suggestion `json:"suggestions"`
	}
	env.getJSON(t, "/api/enhancements/suggestions", &sugg)
	assert.NotEmpty(t, sugg.Suggestions)
}

func TestDriveEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var drives struct {
		Drives []graph.Drive `json:"drives"`
	}
	resp := env.getJSON(t, "/api/drives", &drives)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, drives.Drives, 1)

	var children struct {
		Items []graph.DriveItem `json:"items"`
	}
	env.getJSON(t, "/api/drive/children?path=entries", &children)
	require.Len(t, children.Items, 2)
	assert.True(t, children.Items[0].IsFolder())

	dl, err := http.Get(env.server.URL + "/drive/download/item-2")
	require.NoError(t, err)
	defer dl.Body.Close()
	assert.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "text/plain", dl.Header.Get("Content-Type"))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "readme.md")
}

func TestDriveFailureMapsToBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.drive.err = errors.New("token expired")

	resp := env.getJSON(t, "/api/drives", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestToolsCRUDAndRun(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/tools", tools.Spec{ID: "greet", Entrypoint: "hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var list struct {
		Tools []tools.Spec `json:"tools"`
	}
	env.getJSON(t, "/api/tools", &list)
	assert.Len(t, list.Tools, 2) // seeded hello + greet

	resp = env.postJSON(t, "/api/tools/hello/run", map[string]any{"name": "Ada"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result tools.RunResult
	decode(t, resp, &result)
	assert.True(t, result.OK)
	assert.Equal(t, "Hello, Ada!", result.Output["greeting"])

	resp = env.postJSON(t, "/api/tools/nope/run", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/api/tools/greet", nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	getResp := env.getJSON(t, "/api/tools/greet", nil)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestGitUnconfigured(t *testing.T) {
	env := newTestEnv(t)

	resp := env.getJSON(t, "/api/git/status", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	var body map[string]any
	resp := env.getJSON(t, "/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["graph"])
}

func TestHealthReportsGraphFailure(t *testing.T) {
	env := newTestEnv(t)
	env.drive.err = errors.New("no route to graph")

	var body map[string]any
	resp := env.getJSON(t, "/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unreachable", body["graph"])
}

func TestHTMLPages(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/entries", "/ledger", "/todos", "/drive", "/weekly-tasks", "/enhancements"} {
		resp, err := http.Get(env.server.URL + path)
		require.NoError(t, err, path)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html", path)
	}
}

func TestSubmitFormRedirects(t *testing.T) {
	env := newTestEnv(t)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	form := "project=demo&content=A+note+from+the+form&tags=one,two"
	resp, err := client.Post(env.server.URL+"/submit", "application/x-www-form-urlencoded", strings.NewReader(form))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 1, env.recent.Len())
}

func TestWeeklyExportUploadsReport(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.server.Client().Post(env.server.URL+"/weekly-tasks/export", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)

	require.Len(t, env.drive.uploads, 1)
	assert.Contains(t, env.drive.uploads[0], "reports/weekly-tracker/")
}
