package repository

import (
	"context"

	"shopapp/internal/domain/model"
)

type CouponRepository interface {
	// コードは大文字で保存されている前提
	FindByCode(ctx context.Context, code string) (model.Coupon, error)
	// コード重複は ErrConflict
	Create(ctx context.Context, c model.Coupon) (model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
}
