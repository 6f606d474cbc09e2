package repository

import (
	"context"

	"shopapp/internal/domain/model"
)

type CartItemRepository interface {
	// id昇順。カート内の位置参照はこの順序が基準。
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一商品はプラス
	UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
}
