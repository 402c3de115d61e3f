package notification

import (
	"time"

	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

// Welcome returns the notifications a new user starts with.
func Welcome(now time.Time) []models.Notification {
	samples := []models.Notification{
		{
			ID:        1,
			Title:     "Welcome to IceComm!",
			Message:   "Thank you for joining our community. Start exploring our amazing products.",
			Type:      enum.NotificationTypeWelcome,
			Timestamp: now,
		},
		{
			ID:        2,
			Title:     "New Product Alert",
			Message:   "Check out our latest collection of premium electronics.",
			Type:      enum.NotificationTypeProduct,
			Timestamp: now.Add(-2 * time.Hour),
		},
		{
			ID:        3,
			Title:     "Special Offer",
			Message:   "Get 20% off on your first purchase. Use code: WELCOME20",
			Type:      enum.NotificationTypeOffer,
			Timestamp: now.Add(-4 * time.Hour),
		},
		{
			ID:        4,
			Title:     "Order Update",
			Message:   "Your order #12345 has been shipped and is on its way.",
			Type:      enum.NotificationTypeOrder,
			Read:      true,
			Timestamp: now.Add(-24 * time.Hour),
		},
		{
			ID:        5,
			Title:     "Price Drop Alert",
			Message:   "The price of your wishlist item has dropped by 15%.",
			Type:      enum.NotificationTypePrice,
			Read:      true,
			Timestamp: now.Add(-48 * time.Hour),
		},
	}

	for i := range samples {
		samples[i].Icon = samples[i].Type.Icon()
	}
	return samples
}
