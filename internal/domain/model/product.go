package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name               string         `gorm:"type:varchar(255);not null" json:"name"`
	Description        string         `gorm:"type:text" json:"description"`
	Price              float64        `gorm:"not null" json:"price"`
	DiscountPercentage float64        `gorm:"not null;default:0" json:"discount_percentage"`
	Stock              int64          `gorm:"not null" json:"stock"`
	IsActive           bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt          time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// SellingPrice は割引適用後の表示価格（保存価格は変えない）
func (p Product) SellingPrice() float64 {
	if p.DiscountPercentage > 0 {
		return p.Price * (100 - p.DiscountPercentage) / 100
	}
	return p.Price
}
