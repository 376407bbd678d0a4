package storage

import "time"

// Role classifies what a token is allowed to do. The set is closed: adding a
// role means adding a constant here and teaching the auth layer about it.
type Role string

const (
	// RoleUser can call the moderation endpoints.
	RoleUser Role = "user"
	// RoleAdmin can additionally manage tokens and read usage statistics.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// IsAdmin reports whether the role carries admin privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Token is an issued bearer credential. Value is the opaque secret itself;
// it doubles as the primary key.
type Token struct {
	Value     string
	Role      Role
	CreatedAt time.Time
}

// UsageRecord is one logged authenticated-and-authorized API call.
// Records are append-only and survive deletion of the token that made them.
type UsageRecord struct {
	ID        int64
	Token     string
	Endpoint  string
	Timestamp time.Time
}

// UsageSummary is the aggregate view served to the admin dashboard.
// It is derived fresh on every request, never persisted.
type UsageSummary struct {
	TotalCalls      int64
	UniqueTokens    int64
	CallsByEndpoint map[string]int64
	RecentActivity  []*UsageRecord
}
