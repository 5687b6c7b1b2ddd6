package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending      Status = "pending"
	StatusDownloading  Status = "downloading"
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusTranslating  Status = "translating"
	StatusConverting   Status = "converting"
	StatusMuxing       Status = "muxing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusExtracting,
	StatusTranscribing,
	StatusTranslating,
	StatusConverting,
	StatusMuxing,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:  {},
	StatusExtracting:   {},
	StatusTranscribing: {},
	StatusTranslating:  {},
	StatusConverting:   {},
	StatusMuxing:       {},
}

var orderedProcessingStatuses = []Status{
	StatusDownloading,
	StatusExtracting,
	StatusTranscribing,
	StatusTranslating,
	StatusConverting,
	StatusMuxing,
}

// Kind declares what a queue item's source is, which decides the stages it
// passes through.
type Kind string

const (
	// KindMedia is a local audio or video file.
	KindMedia Kind = "media"
	// KindURL is a remote URL downloaded before processing.
	KindURL Kind = "url"
	// KindSubtitle is an existing subtitle document that only needs
	// translation and conversion.
	KindSubtitle Kind = "subtitle"
)

var kindSet = map[Kind]struct{}{
	KindMedia:    {},
	KindURL:      {},
	KindSubtitle: {},
}

var subtitleSourceExts = map[string]struct{}{
	".srt": {},
	".ass": {},
	".ssa": {},
	".vtt": {},
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := kindSet[normalized]
	return normalized, ok
}

// InferKind guesses the kind from a source reference: URLs download first,
// subtitle documents translate directly, everything else is media.
func InferKind(source string) Kind {
	source = strings.TrimSpace(source)
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return KindURL
	}
	if i := strings.LastIndex(lower, "."); i >= 0 {
		if _, ok := subtitleSourceExts[lower[i:]]; ok {
			return KindSubtitle
		}
	}
	return KindMedia
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Review     int
	Failed     int
	Completed  int
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID              int64
	Kind            Kind
	SourcePath      string
	SourceURL       string
	Title           string
	TargetLang      string
	Status          Status
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	ErrorMessage    string
	NeedsReview     bool
	ReviewReason    string
	OutputPath      string
	TranscriptPath  string
	SubtitlePath    string
	MetadataJSON    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ProcessingStatuses returns the in-flight statuses in pipeline order.
func ProcessingStatuses() []Status {
	cp := make([]Status, len(orderedProcessingStatuses))
	copy(cp, orderedProcessingStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// Source returns the item's original reference, preferring the URL for
// downloaded items.
func (i Item) Source() string {
	if i.Kind == KindURL && i.SourceURL != "" {
		return i.SourceURL
	}
	return i.SourcePath
}

// InitProgress resets progress tracking for a new stage attempt and clears
// any error left by a previous run.
func (i *Item) InitProgress(stage, message string) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message and clears
// the heartbeat.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// SetReview parks the item for manual intervention with the given reason.
func (i *Item) SetReview(reason string) {
	i.Status = StatusReview
	i.NeedsReview = true
	i.ReviewReason = reason
	i.ProgressMessage = reason
	i.LastHeartbeat = nil
}
