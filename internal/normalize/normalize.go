// Package normalize turns raw submitted text plus metadata into the
// canonical Entry record. Everything here is pure: no I/O, no logging,
// no shared state.
package normalize

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
)

// Content applies the stable cleanup rules to free-text content:
// line endings become "\n", outer whitespace is trimmed, trailing
// whitespace is stripped per line, and runs of blank lines collapse
// to a single blank line. The transform is idempotent.
//
// Returns domain.ErrInvalidInput when nothing remains after trimming.
func Content(raw string) (string, error) {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrInvalidInput
	}

	lines := strings.Split(text, "\n")
	collapsed := make([]string, 0, len(lines))
	previousBlank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		blank := strings.TrimSpace(line) == ""
		if blank && previousBlank {
			continue
		}
		collapsed = append(collapsed, line)
		previousBlank = blank
	}

	return strings.Join(collapsed, "\n"), nil
}

// MergeTags unions user-supplied tags with derived tags. User tags keep
// their original relative order, derived tags are appended after, and
// duplicates are dropped.
func MergeTags(userTags, derivedTags []string) []string {
	seen := make(map[string]struct{}, len(userTags)+len(derivedTags))
	var merged []string
	for _, group := range [][]string{userTags, derivedTags} {
		for _, tag := range group {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			merged = append(merged, tag)
		}
	}
	return merged
}

// EntryInput is the raw material for one entry.
type EntryInput struct {
	Project       string
	Category      domain.Category
	ContentRaw    string
	Tags          []string
	ProgressStage string
	ProgressNotes string
}

// Entry validates and normalizes in into a fully populated Entry.
// The id and created_at are assigned here, once, at acceptance time.
// A missing category defaults to note; anything outside the known set
// is rejected with domain.ErrUnsupportedCategory before normalization.
func Entry(in EntryInput, source domain.Source) (domain.Entry, error) {
	category := in.Category
	if category == "" {
		category = domain.CategoryNote
	}
	if !category.Valid() {
		return domain.Entry{}, domain.ErrUnsupportedCategory
	}

	normalized, err := Content(in.ContentRaw)
	if err != nil {
		return domain.Entry{}, err
	}

	return domain.Entry{
		ID:                uuid.New().String(),
		CreatedAt:         time.Now().UTC(),
		Project:           strings.TrimSpace(in.Project),
		Category:          category,
		ContentRaw:        in.ContentRaw,
		ContentNormalized: normalized,
		Tags:              MergeTags(in.Tags, nil),
		ProgressStage:     strings.TrimSpace(in.ProgressStage),
		ProgressNotes:     in.ProgressNotes,
		Source:            source,
	}, nil
}
