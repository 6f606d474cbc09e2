package repository

import (
	"context"
	"errors"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"

	"gorm.io/gorm"
)

type OrderStatusGormRepository struct {
	db *gorm.DB
}

func NewOrderStatusGormRepository(db *gorm.DB) *OrderStatusGormRepository {
	return &OrderStatusGormRepository{db: db}
}

// 履歴を1件追記
func (r *OrderStatusGormRepository) Append(ctx context.Context, entry model.OrderStatusEntry) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return 0, err
	}
	return entry.ID, nil
}

func (r *OrderStatusGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusEntry, error) {
	var entries []model.OrderStatusEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&entries).Error
	if err != nil {
		return []model.OrderStatusEntry{}, err
	}
	return entries, nil
}

// 最新の履歴を1件
func (r *OrderStatusGormRepository) Last(ctx context.Context, orderID int64) (model.OrderStatusEntry, bool, error) {
	var entry model.OrderStatusEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id desc").
		First(&entry).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.OrderStatusEntry{}, false, nil
	}
	if err != nil {
		return model.OrderStatusEntry{}, false, err
	}
	return entry, true, nil
}

// noteだけを後から書き換える
func (r *OrderStatusGormRepository) UpdateNote(ctx context.Context, entryID int64, note string) error {
	res := r.db.WithContext(ctx).
		Model(&model.OrderStatusEntry{}).
		Where("id = ?", entryID).
		Update("note", note)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
