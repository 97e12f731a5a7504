package models

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notification is a transient message shown to the session's user.
type Notification struct {
	ID      string           `json:"id"`
	Type    NotificationType `json:"type"`
	Title   string           `json:"title"`
	Message string           `json:"message,omitempty"`
}

// OwnerStats aggregates an owner's listings and the bookings made against them.
type OwnerStats struct {
	TotalProperties   int     `json:"total_properties"`
	TotalRooms        int     `json:"total_rooms"`
	OccupiedRooms     int     `json:"occupied_rooms"`
	MonthlyRevenue    int64   `json:"monthly_revenue"`
	AverageRating     float64 `json:"average_rating"`
	PendingBookings   int     `json:"pending_bookings"`
	ConfirmedBookings int     `json:"confirmed_bookings"`
	TotalBookings     int     `json:"total_bookings"`
}
