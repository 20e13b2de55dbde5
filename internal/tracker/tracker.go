// Package tracker keeps the weekly task log: it derives macro-level
// tasks from free-text updates, deduplicates them per project and ISO
// week, and records everything in a flat CSV file. The CSV is a working
// log, not a database; exports go to the remote drive.
package tracker

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ActivityType categorizes an update for filtering and reporting.
type ActivityType string

const (
	ActivityCampaignExecution    ActivityType = "campaign_execution"
	ActivityProductDesign        ActivityType = "product_design"
	ActivityEngineeringDelivery  ActivityType = "engineering_delivery"
	ActivityTrainingEnablement   ActivityType = "training_enablement"
	ActivityOpsCompliance        ActivityType = "ops_compliance"
	ActivityPerformanceReporting ActivityType = "performance_reporting"
)

// ActivityTypes lists every known activity type, for form rendering.
func ActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityCampaignExecution, ActivityProductDesign,
		ActivityEngineeringDelivery, ActivityTrainingEnablement,
		ActivityOpsCompliance, ActivityPerformanceReporting,
	}
}

// Valid reports whether a is a known activity type.
func (a ActivityType) Valid() bool {
	for _, known := range ActivityTypes() {
		if a == known {
			return true
		}
	}
	return false
}

// DisplayName renders the type for humans ("engineering_delivery" →
// "Engineering Delivery").
func (a ActivityType) DisplayName() string {
	words := strings.Split(string(a), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Submission is one raw weekly update.
type Submission struct {
	Project      string       `json:"project,omitempty"`
	Context      string       `json:"context,omitempty"`
	ActivityType ActivityType `json:"activity_type,omitempty"`
	Update       string       `json:"update"`
}

// Summary is the processed outcome of one update.
type Summary struct {
	ID              string       `json:"id"`
	CreatedAt       time.Time    `json:"created_at"`
	Project         string       `json:"project,omitempty"`
	Context         string       `json:"context,omitempty"`
	ActivityType    ActivityType `json:"activity_type"`
	InputExcerpt    string       `json:"input_excerpt"`
	GeneratedTasks  []string     `json:"generated_tasks"`
	OverlookedTasks []string     `json:"overlooked_tasks"`
}

var logColumns = []string{
	"timestamp", "id", "project", "context", "activity_type",
	"input_excerpt", "generated_tasks", "overlooked_tasks",
}

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)
	overlookWordRe  = regexp.MustCompile(`(?i)\b(should|shouldn't|need|needs|must|mustn't|pending|blocked|waiting|awaiting|unresolved|delayed|risk|follow-up|follow up)\b`)
)

var overlookKeywords = []string{
	"should", "need", "must", "pending", "blocked", "waiting",
	"awaiting", "unresolved", "delayed", "follow-up", "tie-back", "risk",
}

var leadVerbs = map[string]bool{
	"lead": true, "drive": true, "coordinate": true, "own": true,
	"ensure": true, "deliver": true, "ship": true, "validate": true,
	"plan": true, "oversee": true, "accelerate": true,
}

// Tracker processes weekly updates against a CSV-backed log.
type Tracker struct {
	fs      afero.Fs
	logPath string
	log     *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// New opens (or creates) the weekly log at logPath on fs and loads the
// already-seen task windows for deduplication.
func New(fs afero.Fs, logPath string, log *zap.Logger) (*Tracker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracker{fs: fs, logPath: logPath, log: log, seen: map[string]struct{}{}}
	if err := t.ensureLogFile(); err != nil {
		return nil, err
	}
	if err := t.loadSeen(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tracker) ensureLogFile() error {
	exists, err := afero.Exists(t.fs, t.logPath)
	if err != nil {
		return fmt.Errorf("stat weekly log: %w", err)
	}
	if exists {
		return nil
	}

	f, err := t.fs.OpenFile(t.logPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create weekly log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(logColumns); err != nil {
		return fmt.Errorf("write weekly log header: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (t *Tracker) readRows() ([]map[string]string, error) {
	f, err := t.fs.Open(t.logPath)
	if err != nil {
		return nil, fmt.Errorf("open weekly log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read weekly log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (t *Tracker) loadSeen() error {
	rows, err := t.readRows()
	if err != nil {
		return err
	}
	for _, row := range rows {
		created, err := time.Parse(time.RFC3339, row["timestamp"])
		if err != nil {
			continue
		}
		window := windowSlug(created, row["project"])
		for _, col := range []string{"generated_tasks", "overlooked_tasks"} {
			raw := row[col]
			if raw == "" {
				raw = "[]"
			}
			var tasks []string
			if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
				continue
			}
			for _, task := range tasks {
				t.seen[seenKey(window, task)] = struct{}{}
			}
		}
	}
	return nil
}

func normalizeWS(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func splitSentences(text string) []string {
	var out []string
	for _, seg := range sentenceSplitRe.Split(text, -1) {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func shapeMacroTask(sentence string) string {
	sentence = strings.TrimRight(strings.TrimSpace(sentence), ".!?")
	if sentence == "" {
		return ""
	}
	cased := strings.ToUpper(sentence[:1]) + sentence[1:]
	first := strings.ToLower(strings.Fields(sentence)[0])
	if leadVerbs[first] {
		return cased + "."
	}
	return "Drive " + cased + "."
}

func generateMacroTasks(sentences []string) []string {
	var tasks []string
	for _, sentence := range sentences {
		if len(strings.Fields(sentence)) <= 3 {
			continue
		}
		if task := shapeMacroTask(sentence); task != "" {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

func generateOverlookedTasks(sentences []string, project string) []string {
	var out []string
	for _, sentence := range sentences {
		lowered := strings.ToLower(sentence)
		matched := false
		for _, kw := range overlookKeywords {
			if strings.Contains(lowered, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		cleaned := overlookWordRe.ReplaceAllString(sentence, "")
		cleaned = strings.TrimRight(strings.TrimSpace(cleaned), ".!?")
		cleaned = strings.Join(strings.Fields(cleaned), " ")
		if cleaned == "" {
			continue
		}
		out = append(out, fmt.Sprintf("Ensure follow-up on %s.", cleaned))
	}
	if len(out) == 0 {
		target := project
		if target == "" {
			target = "this initiative"
		}
		out = append(out, fmt.Sprintf(
			"Confirm metrics, risks, and stakeholder alignment for %s before the next sync.", target))
	}
	return out
}

// windowSlug buckets a task into its dedupe window: ISO week plus project.
func windowSlug(created time.Time, project string) string {
	year, week := created.UTC().ISOWeek()
	key := strings.ToLower(strings.TrimSpace(project))
	if key == "" {
		key = "general"
	}
	return fmt.Sprintf("%d-W%02d:%s", year, week, key)
}

func seenKey(window, task string) string {
	return window + "|" + normalizeWS(task)
}

// recordNew marks the task seen in its window; false means duplicate.
func (t *Tracker) recordNew(window, task string) bool {
	key := seenKey(window, task)
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

func (t *Tracker) appendLog(s Summary) error {
	f, err := t.fs.OpenFile(t.logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open weekly log: %w", err)
	}
	defer f.Close()

	generated, err := json.Marshal(s.GeneratedTasks)
	if err != nil {
		return fmt.Errorf("marshal generated tasks: %w", err)
	}
	overlooked, err := json.Marshal(s.OverlookedTasks)
	if err != nil {
		return fmt.Errorf("marshal overlooked tasks: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		s.CreatedAt.Format(time.RFC3339),
		s.ID,
		s.Project,
		s.Context,
		string(s.ActivityType),
		s.InputExcerpt,
		string(generated),
		string(overlooked),
	}); err != nil {
		return fmt.Errorf("append weekly log: %w", err)
	}
	w.Flush()
	return w.Error()
}

// ProcessUpdate derives tasks from one update, dedupes them against the
// project's ISO-week window, and appends the result to the log.
func (t *Tracker) ProcessUpdate(sub Submission) (Summary, error) {
	text := strings.TrimSpace(sub.Update)
	if text == "" {
		return Summary{}, fmt.Errorf("update content must not be empty")
	}
	activity := sub.ActivityType
	if activity == "" {
		activity = ActivityCampaignExecution
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	createdAt := time.Now().UTC()
	window := windowSlug(createdAt, sub.Project)
	sentences := splitSentences(text)

	var generated []string
	for _, candidate := range generateMacroTasks(sentences) {
		if t.recordNew(window, candidate) {
			generated = append(generated, candidate)
		}
	}
	var overlooked []string
	for _, candidate := range generateOverlookedTasks(sentences, sub.Project) {
		if t.recordNew(window, candidate) {
			overlooked = append(overlooked, candidate)
		}
	}

	if len(generated) == 0 {
		generated = []string{
			"No new macro-level tasks detected beyond the items already tracked in the weekly tracker.",
		}
	}
	if len(overlooked) == 0 {
		target := sub.Project
		if target == "" {
			target = "the initiative"
		}
		overlooked = []string{fmt.Sprintf(
			"Reconfirm risks and dependencies for %s if they change in future updates.", target)}
	}

	excerpt := text
	if len(excerpt) > 240 {
		excerpt = excerpt[:240]
	}

	summary := Summary{
		ID:              uuid.New().String(),
		CreatedAt:       createdAt,
		Project:         strings.TrimSpace(sub.Project),
		Context:         strings.TrimSpace(sub.Context),
		ActivityType:    activity,
		InputExcerpt:    excerpt,
		GeneratedTasks:  generated,
		OverlookedTasks: overlooked,
	}
	if err := t.appendLog(summary); err != nil {
		return Summary{}, err
	}

	t.log.Info("weekly update processed",
		zap.String("project", summary.Project),
		zap.Int("generated", len(generated)),
		zap.Int("overlooked", len(overlooked)))
	return summary, nil
}

// History returns up to limit summaries, newest first.
func (t *Tracker) History(limit int) ([]Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.readRows()
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		if s, ok := rowToSummary(row); ok {
			summaries = append(summaries, s)
		}
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Get finds one summary by id, or false when absent.
func (t *Tracker) Get(id string) (Summary, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.readRows()
	if err != nil {
		return Summary{}, false, err
	}
	for _, row := range rows {
		if row["id"] != id {
			continue
		}
		if s, ok := rowToSummary(row); ok {
			return s, true, nil
		}
	}
	return Summary{}, false, nil
}

func rowToSummary(row map[string]string) (Summary, bool) {
	created, err := time.Parse(time.RFC3339, row["timestamp"])
	if err != nil {
		return Summary{}, false
	}
	var generated, overlooked []string
	if err := json.Unmarshal([]byte(orDefault(row["generated_tasks"], "[]")), &generated); err != nil {
		return Summary{}, false
	}
	if err := json.Unmarshal([]byte(orDefault(row["overlooked_tasks"], "[]")), &overlooked); err != nil {
		return Summary{}, false
	}
	activity := ActivityType(row["activity_type"])
	if !activity.Valid() {
		activity = ActivityCampaignExecution
	}
	return Summary{
		ID:              row["id"],
		CreatedAt:       created,
		Project:         row["project"],
		Context:         row["context"],
		ActivityType:    activity,
		InputExcerpt:    row["input_excerpt"],
		GeneratedTasks:  generated,
		OverlookedTasks: overlooked,
	}, true
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
