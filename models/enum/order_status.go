package enum

// OrderStatus 表示訂單的狀態
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // 訂單已建立，等待付款
	OrderStatusProcessing OrderStatus = "processing" // 訂單處理中
	OrderStatusPaid       OrderStatus = "paid"       // 訂單已支付
	OrderStatusShipped    OrderStatus = "shipped"    // 訂單已出貨
	OrderStatusDelivered  OrderStatus = "delivered"  // 訂單已送達
	OrderStatusCancelled  OrderStatus = "cancelled"  // 訂單取消
	OrderStatusFailed     OrderStatus = "failed"     // 訂單支付失敗
	OrderStatusRefunded   OrderStatus = "refunded"   // 訂單退款完成
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusPaid:       {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusFailed:     {},
	OrderStatusRefunded:   {},
}

// OrderStatuses lists every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending, OrderStatusProcessing, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed, OrderStatusRefunded,
	}
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatuses[s]
	return ok
}
