package domain

import "time"

// Activity actions recorded to the audit trail.
const (
	ActivityLogin          = "user.login"
	ActivityRegister       = "user.register"
	ActivityPasswordChange = "user.password_change"
	ActivityOrderCreated   = "order.created"
	ActivityOrderStatus    = "order.status_update"
	ActivityListingStatus  = "listing.status_update"
)

// ActivityEntry is one audit record written asynchronously by the dispatcher.
type ActivityEntry struct {
	ActorID     string            `json:"actor_id"`
	Action      string            `json:"action"`
	SubjectType string            `json:"subject_type,omitempty"`
	SubjectID   string            `json:"subject_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}
