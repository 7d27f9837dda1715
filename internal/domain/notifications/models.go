package notifications

import "time"

type Notification struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipientId"`
	Category    string     `json:"category"`
	Message     string     `json:"message"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
