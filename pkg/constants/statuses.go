package constants

// --- ROUTE INSTANCE STATUSES (match values stored in DB) ---
const (
	RouteStatusScheduled  = "scheduled"
	RouteStatusInProgress = "in_progress"
	RouteStatusCompleted  = "completed"
)

// --- ROUTE STOP STATUSES ---
const (
	StopStatusPending    = "pending"
	StopStatusInProgress = "in_progress"
	StopStatusCompleted  = "completed"
	StopStatusSkipped    = "skipped"
)

// Terminal stop statuses. A stop in one of these never transitions again.
var TerminalStopStatuses = []string{
	StopStatusCompleted,
	StopStatusSkipped,
}

func IsTerminalStopStatus(status string) bool {
	for _, s := range TerminalStopStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// --- USER ROLES ---
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
)

// --- DAYS OF WEEK (0=Sunday .. 6=Saturday, matches time.Weekday) ---
const (
	MinDayOfWeek = 0
	MaxDayOfWeek = 6
)

// --- CACHE KEYS ---
const (
	// Fixed-window counter for the route generation endpoint.
	// Format: generate_rate:<userID> -> count
	CacheKeyGenerateRate = "generate_rate:%d"
)
