package model

import "time"

// クーポン。有効かどうかは保存せず毎回計算する。
type Coupon struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code               string     `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountPercentage float64    `gorm:"not null" json:"discount_percentage"`
	IsActive           bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiryDate         *time.Time `json:"expiry_date"`
	UsageLimit         *int64     `json:"usage_limit"`
	UsedCount          int64      `gorm:"not null;default:0" json:"used_count"`
	MinPurchaseAmount  *float64   `json:"min_purchase_amount"`
	CreatedAt          time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
