package model

import "time"

type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusAccepted       OrderStatus = "accepted"
	OrderStatusPacking        OrderStatus = "packing"
	OrderStatusSentToDelivery OrderStatus = "sent_to_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// IsValid は定義済みステータスかどうか
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusAccepted, OrderStatusPacking,
		OrderStatusSentToDelivery, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

type Order struct {
	ID                   int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber          string        `gorm:"type:varchar(20);not null;uniqueIndex" json:"order_number"`
	UserID               int64         `gorm:"not null;index" json:"user_id"`
	ShippingAddress      string        `gorm:"type:text;not null" json:"shipping_address"`
	Status               OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus        PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`
	TotalAmount          float64       `gorm:"not null" json:"total_amount"`
	ExpectedDeliveryDate *time.Time    `json:"expected_delivery_date"`
	CreatedAt            time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
