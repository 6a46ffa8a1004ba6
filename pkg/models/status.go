package models

// Task statuses, in pipeline order.
const (
	StatusBacklog    = "Backlog"
	StatusInProgress = "In Progress"
	StatusTesting    = "Testing"
	StatusQA         = "QA"
	StatusReview     = "Review"
	StatusCompleted  = "Completed"
)

// Project statuses.
const (
	ProjectPlanning  = "Planning"
	ProjectActive    = "Active"
	ProjectOnHold    = "On Hold"
	ProjectCompleted = "Completed"
)

// Project stages.
const (
	StageDev    = "Dev"
	StageTest   = "Test"
	StageQA     = "QA"
	StageReview = "Review"
	StageClient = "Client"
)

// Comment tags. Error and Bug feed the error-queue ingestion bridge.
const (
	TagError       = "Error"
	TagBug         = "Bug"
	TagIncomplete  = "Incomplete"
	TagUIUX        = "UI/UX"
	TagImprovement = "Improvement"
	TagNote        = "Note"
)

// Error severities.
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// Error log statuses.
const (
	ErrorActive   = "active"
	ErrorResolved = "resolved"
)

// Activity sources.
const (
	SourceProject   = "PROJECT"
	SourceTask      = "TASK"
	SourcePersonnel = "PERSONNEL"
	SourceSchedule  = "SCHEDULE"
	SourceClient    = "CLIENT"
	SourceError     = "ERROR"
)

// Milestone urgencies.
const (
	UrgencyLow    = "Low"
	UrgencyMedium = "Medium"
	UrgencyHigh   = "High"
)

// Default limits.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultActivityListLimit   = 50
	DefaultSSEChannelBuffer    = 256
	DefaultActivityQueueSize   = 128
)

// CommentTags lists the closed tag vocabulary.
func CommentTags() []string {
	return []string{TagError, TagBug, TagIncomplete, TagUIUX, TagImprovement, TagNote}
}

// ValidCommentTag reports whether tag is in the closed vocabulary.
func ValidCommentTag(tag string) bool {
	for _, t := range CommentTags() {
		if t == tag {
			return true
		}
	}
	return false
}
