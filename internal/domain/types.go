package domain

import "time"

// Category is the kind of free-text entry the service accepts.
type Category string

const (
	CategoryNote     Category = "note"
	CategoryProgress Category = "progress"
)

// Valid reports whether c is one of the accepted categories.
func (c Category) Valid() bool {
	return c == CategoryNote || c == CategoryProgress
}

// Source records the channel an entry arrived through.
type Source string

const (
	SourceWebForm     Source = "web_form"
	SourceAPI         Source = "api"
	SourceAPIProgress Source = "api-progress"
	SourceWebLedger   Source = "web-ledger"
	SourceAPILedger   Source = "api-ledger"
)

// Entry is the canonical normalized unit produced for any accepted submission.
// Entries are created once, never mutated, and never deleted by this service.
type Entry struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	Project           string    `json:"project,omitempty"`
	Category          Category  `json:"category"`
	ContentRaw        string    `json:"content_raw"`
	ContentNormalized string    `json:"content_normalized"`
	Tags              []string  `json:"tags,omitempty"`
	ProgressStage     string    `json:"progress_stage,omitempty"`
	ProgressNotes     string    `json:"progress_notes,omitempty"`
	Source            Source    `json:"source"`
}

// ValueTag labels the value an outcome served.
type ValueTag string

const (
	ValueHumanTouch      ValueTag = "HumanTouch"
	ValueDifferentiation ValueTag = "Differentiation"
	ValueEfficiency      ValueTag = "Efficiency"
	ValueIntegrity       ValueTag = "Integrity"
	ValueGrowth          ValueTag = "Growth"
	ValueBrandTrust      ValueTag = "BrandTrust"
)

// ValueTags lists every known value tag, for form rendering.
func ValueTags() []ValueTag {
	return []ValueTag{
		ValueHumanTouch, ValueDifferentiation, ValueEfficiency,
		ValueIntegrity, ValueGrowth, ValueBrandTrust,
	}
}

// ArtifactType labels the kind of artifact a ledger record points at.
type ArtifactType string

const (
	ArtifactProposal         ArtifactType = "Proposal"
	ArtifactDemo             ArtifactType = "Demo"
	ArtifactDesign           ArtifactType = "Design"
	ArtifactTrustArtifact    ArtifactType = "TrustArtifact"
	ArtifactWorkflowDecision ArtifactType = "WorkflowDecision"
	ArtifactNote             ArtifactType = "Note"
)

// ArtifactTypes lists every known artifact type, for form rendering.
func ArtifactTypes() []ArtifactType {
	return []ArtifactType{
		ArtifactProposal, ArtifactDemo, ArtifactDesign,
		ArtifactTrustArtifact, ArtifactWorkflowDecision, ArtifactNote,
	}
}

// LedgerRecord is a structured, tagged record of a notable outcome.
type LedgerRecord struct {
	ID           string         `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	Title        string         `json:"title"`
	Summary      string         `json:"summary"`
	Theme        string         `json:"theme"`
	Lens         string         `json:"lens"`
	Project      string         `json:"project,omitempty"`
	ValueTags    []ValueTag     `json:"value_tags,omitempty"`
	ArtifactTags []ArtifactType `json:"artifact_tags,omitempty"`
	References   []string       `json:"references,omitempty"`
	MonthTag     string         `json:"month_tag"`
	Tags         []string       `json:"tags,omitempty"`
	Actor        string         `json:"actor,omitempty"`
	Source       Source         `json:"source"`
}

// TodoStatus is the lifecycle state of a todo record.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoDone       TodoStatus = "done"
)

// TodoRecord is a lightweight task stored in the remote drive.
type TodoRecord struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Title     string     `json:"title"`
	Details   string     `json:"details,omitempty"`
	Status    TodoStatus `json:"status"`
	DueDate   string     `json:"due_date,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	MonthTag  string     `json:"month_tag"`
}
