package constants

// Context and session keys
const (
	ContextKeyUserID   = "userID"
	ContextKeyRole     = "projectRole"
	ContextKeyProject  = "projectID"
	ContextKeyRequest  = "requestID"
	SessionCookieName  = "taskboard_session"
	SessionKeyUserID   = "user_id"
	RequestIDHeader    = "X-Request-ID"
	DefaultHTTPAddress = ":8080"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Invite codes
const (
	InviteCodeGroups    = 3
	InviteCodeGroupSize = 4
)

// Task drafting
const (
	MaxAIGeneratedTasks = 20
	MaxAIInputLength    = 10000
)

// Ordering
const (
	// MaxLockAttempts bounds how often a task is re-read when it changes list
	// while its list is being locked.
	MaxLockAttempts = 3
)
