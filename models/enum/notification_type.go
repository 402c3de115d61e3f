package enum

type NotificationType string

const (
	NotificationTypeWelcome NotificationType = "welcome"
	NotificationTypeProduct NotificationType = "product"
	NotificationTypeOffer   NotificationType = "offer"
	NotificationTypeOrder   NotificationType = "order"
	NotificationTypePrice   NotificationType = "price"
)

// Icon returns the badge shown next to a notification of this type.
func (t NotificationType) Icon() string {
	switch t {
	case NotificationTypeWelcome:
		return "🎉"
	case NotificationTypeProduct:
		return "📱"
	case NotificationTypeOffer:
		return "💰"
	case NotificationTypeOrder:
		return "📦"
	case NotificationTypePrice:
		return "📉"
	default:
		return "🔔"
	}
}
