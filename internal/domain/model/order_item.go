package model

import "time"

// 注文時点のスナップショット。後から商品を編集しても注文の記録は変わらない。
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   float64   `gorm:"not null" json:"unit_price_snapshot"`
	DiscountSnapshot    float64   `gorm:"not null;default:0" json:"discount_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	ItemTotal           float64   `gorm:"not null" json:"item_total"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
