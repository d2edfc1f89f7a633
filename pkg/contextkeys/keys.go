package contextkeys

type contextKey string

const (
	UserIDKey    contextKey = "UserID"
	CompanyIDKey contextKey = "CompanyID"
	UserRoleKey  contextKey = "UserRole"
	RequestIDKey contextKey = "RequestID"
)
