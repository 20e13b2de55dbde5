// Package enhance keeps a CSV-backed log of shipped improvements and
// derives lightweight suggestions for what to tackle next.
package enhance

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
	"github.com/qwertyasvishwa/Memory-Router/internal/facet"
)

// Submission describes one improvement to record.
type Submission struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Reason      string   `json:"reason"`
	Area        string   `json:"area"`
	Impact      string   `json:"impact"`
	Tags        []string `json:"tags,omitempty"`
	Links       []string `json:"links,omitempty"`
}

// Entry is one recorded improvement.
type Entry struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Reason      string    `json:"reason"`
	Area        string    `json:"area"`
	Impact      string    `json:"impact"`
	Tags        []string  `json:"tags,omitempty"`
	Links       []string  `json:"links,omitempty"`
	MonthTag    string    `json:"month_tag"`
}

// Suggestion is a derived next-step recommendation.
type Suggestion struct {
	Title     string   `json:"title"`
	Rationale string   `json:"rationale"`
	NextSteps []string `json:"next_steps"`
}

var logColumns = []string{
	"timestamp", "id", "title", "description", "reason",
	"area", "impact", "tags", "links",
}

type keywordHint struct {
	title string
	next  string
}

var keywordHints = map[string]keywordHint{
	"performance": {
		title: "Extend performance profiling",
		next:  "Instrument critical endpoints to quantify the next bottleneck.",
	},
	"latency": {
		title: "Tighten latency budgets",
		next:  "Add synthetic monitoring to catch latency regressions early.",
	},
	"ux": {
		title: "Deepen UX consistency",
		next:  "Schedule a UI audit to harmonize patterns across routes.",
	},
	"ui": {
		title: "Deepen UX consistency",
		next:  "Schedule a UI audit to harmonize patterns across routes.",
	},
	"observability": {
		title: "Expand observability signals",
		next:  "Add tracing/log enrichment so future changes surface context automatically.",
	},
	"automation": {
		title: "Broaden automation coverage",
		next:  "Look for manual flows adjacent to recent automation wins.",
	},
	"security": {
		title: "Refresh security posture",
		next:  "Run a lightweight threat-model review around the touched area.",
	},
	"documentation": {
		title: "Boost knowledge capture",
		next:  "Add runbooks or inline docs to keep information fresh.",
	},
}

// Service records and lists enhancement entries.
type Service struct {
	fs      afero.Fs
	logPath string
	log     *zap.Logger

	mu      sync.RWMutex
	entries []Entry
}

// NewService opens (or creates) the enhancement log at logPath on fs.
func NewService(fs afero.Fs, logPath string, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{fs: fs, logPath: logPath, log: log}
	if err := s.ensureLogFile(); err != nil {
		return nil, err
	}
	if err := s.loadEntries(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) ensureLogFile() error {
	exists, err := afero.Exists(s.fs, s.logPath)
	if err != nil {
		return fmt.Errorf("stat enhancement log: %w", err)
	}
	if exists {
		return nil
	}
	f, err := s.fs.OpenFile(s.logPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create enhancement log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(logColumns); err != nil {
		return fmt.Errorf("write enhancement log header: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (s *Service) loadEntries() error {
	f, err := s.fs.Open(s.logPath)
	if err != nil {
		return fmt.Errorf("open enhancement log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read enhancement log: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	header := records[0]
	for _, record := range records[1:] {
		row := map[string]string{}
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		if entry, ok := rowToEntry(row); ok {
			s.entries = append(s.entries, entry)
		}
	}
	return nil
}

func rowToEntry(row map[string]string) (Entry, bool) {
	created, err := time.Parse(time.RFC3339, row["timestamp"])
	if err != nil {
		return Entry{}, false
	}
	var tags, links []string
	if raw := row["tags"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return Entry{}, false
		}
	}
	if raw := row["links"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &links); err != nil {
			return Entry{}, false
		}
	}
	return Entry{
		ID:          row["id"],
		CreatedAt:   created,
		Title:       row["title"],
		Description: row["description"],
		Reason:      row["reason"],
		Area:        row["area"],
		Impact:      row["impact"],
		Tags:        tags,
		Links:       links,
		MonthTag:    facet.MonthKey(created),
	}, true
}

// Record validates and appends one improvement to the log.
func (s *Service) Record(sub Submission) (Entry, error) {
	if strings.TrimSpace(sub.Title) == "" || strings.TrimSpace(sub.Description) == "" {
		return Entry{}, domain.ErrInvalidInput
	}

	created := time.Now().UTC()
	entry := Entry{
		ID:          uuid.New().String(),
		CreatedAt:   created,
		Title:       strings.TrimSpace(sub.Title),
		Description: strings.TrimSpace(sub.Description),
		Reason:      strings.TrimSpace(sub.Reason),
		Area:        strings.TrimSpace(sub.Area),
		Impact:      strings.TrimSpace(sub.Impact),
		Tags:        sub.Tags,
		Links:       sub.Links,
		MonthTag:    facet.MonthKey(created),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendLog(entry); err != nil {
		return Entry{}, err
	}
	s.entries = append(s.entries, entry)

	s.log.Info("enhancement recorded", zap.String("id", entry.ID), zap.String("area", entry.Area))
	return entry, nil
}

func (s *Service) appendLog(entry Entry) error {
	f, err := s.fs.OpenFile(s.logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open enhancement log: %w", err)
	}
	defer f.Close()

	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	links, err := json.Marshal(entry.Links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		entry.CreatedAt.Format(time.RFC3339),
		entry.ID,
		entry.Title,
		entry.Description,
		entry.Reason,
		entry.Area,
		entry.Impact,
		string(tags),
		string(links),
	}); err != nil {
		return fmt.Errorf("append enhancement log: %w", err)
	}
	w.Flush()
	return w.Error()
}

// List returns entries newest first, truncated to limit when limit > 0.
func (s *Service) List(limit int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Suggestions derives up to limit next-step recommendations from
// keywords appearing in recent entries. Deterministic for a given log.
func (s *Service) Suggestions(limit int) []Suggestion {
	if limit <= 0 {
		limit = 5
	}

	entries := s.List(0)
	counts := map[string]int{}
	for _, entry := range entries {
		haystack := strings.ToLower(entry.Title + " " + entry.Description + " " +
			entry.Reason + " " + entry.Area + " " + entry.Impact + " " +
			strings.Join(entry.Tags, " "))
		for keyword := range keywordHints {
			if strings.Contains(haystack, keyword) {
				counts[keyword]++
			}
		}
	}

	keywords := make([]string, 0, len(counts))
	for keyword := range counts {
		keywords = append(keywords, keyword)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	var out []Suggestion
	seenTitles := map[string]bool{}
	for _, keyword := range keywords {
		hint := keywordHints[keyword]
		if seenTitles[hint.title] {
			continue
		}
		seenTitles[hint.title] = true
		out = append(out, Suggestion{
			Title: hint.title,
			Rationale: fmt.Sprintf("%d recent enhancement(s) touch %q; momentum is cheapest to keep while context is fresh.",
				counts[keyword], keyword),
			NextSteps: []string{hint.next},
		})
		if len(out) == limit {
			return out
		}
	}

	if len(out) == 0 && len(entries) > 0 {
		out = append(out, Suggestion{
			Title:     "Revisit the most recent change area",
			Rationale: "No recurring themes detected; the freshest area is the best candidate for a follow-up.",
			NextSteps: []string{fmt.Sprintf("Review %q for rough edges introduced by %q.", entries[0].Area, entries[0].Title)},
		})
	}
	return out
}

// BuildReport renders a Markdown export of the enhancement log.
func BuildReport(entries []Entry) string {
	var b strings.Builder
	b.WriteString("# Enhancement Log Export\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "Total entries: %d\n\n", len(entries))

	for _, entry := range entries {
		fmt.Fprintf(&b, "## %s (%s)\n", entry.Title, entry.CreatedAt.Format("2006-01-02"))
		fmt.Fprintf(&b, "- **Area:** %s\n", entry.Area)
		fmt.Fprintf(&b, "- **Impact:** %s\n", entry.Impact)
		fmt.Fprintf(&b, "- **Reason:** %s\n", entry.Reason)
		fmt.Fprintf(&b, "\n%s\n", entry.Description)
		if len(entry.Links) > 0 {
			b.WriteString("\nReferences:\n")
			for _, link := range entry.Links {
				fmt.Fprintf(&b, "- %s\n", link)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
