package models

import (
	"time"

	"goflare.io/storefront/models/enum"
)

// Notification 代表使用者的站內通知
type Notification struct {
	ID        int64                 `json:"id"`
	Title     string                `json:"title"`
	Message   string                `json:"message"`
	Type      enum.NotificationType `json:"type"`
	Read      bool                  `json:"read"`
	Timestamp time.Time             `json:"timestamp"`
	Icon      string                `json:"icon"`
}
