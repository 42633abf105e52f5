package groups

import "time"

// AdminGroup is the group gating the admin console
const AdminGroup = "admin"

// Membership represents a user's membership in one group
type Membership struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	GroupName  string    `json:"group_name"`
	AssignedAt time.Time `json:"assigned_at"`
}
