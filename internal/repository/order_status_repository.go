package repository

import (
	"context"

	"shopapp/internal/domain/model"
)

// ステータス履歴。Append と UpdateNote 以外に書き込み手段はない。
type OrderStatusRepository interface {
	Append(ctx context.Context, entry model.OrderStatusEntry) (int64, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusEntry, error)
	// 最新1件。無ければ found=false。
	Last(ctx context.Context, orderID int64) (model.OrderStatusEntry, bool, error)
	// note だけを後から書き換える（配達予定日の反映用）
	UpdateNote(ctx context.Context, entryID int64, note string) error
}
