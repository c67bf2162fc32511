package dto

type SessionInfo struct {
	SessionID         int64  `json:"session_id"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time,omitempty"`
	TotalActiveTime   int64  `json:"total_active_time"`   // seconds
	TotalInactiveTime int64  `json:"total_inactive_time"` // seconds
}

// UpdateSessionRequest finalizes a session at sign-out with the tracker's
// accumulated active milliseconds.
type UpdateSessionRequest struct {
	ActiveTimeMs int64 `json:"active_time_ms" binding:"min=0"`
}
