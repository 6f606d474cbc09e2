package repository

import (
	"context"
	"errors"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"

	"gorm.io/gorm"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

func (r *CouponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

// コード重複は ErrConflict に寄せる
func (r *CouponGormRepository) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	var created model.Coupon

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Coupon
		findErr := tx.Where("code = ?", c.Code).First(&existing).Error
		if findErr == nil {
			return repo.ErrConflict
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		if err := tx.Create(&c).Error; err != nil {
			// 同時作成でuniqueに弾かれた場合
			return repo.ErrConflict
		}
		created = c
		return nil
	})

	if err != nil {
		return model.Coupon{}, err
	}
	return created, nil
}

func (r *CouponGormRepository) List(ctx context.Context) ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := r.db.WithContext(ctx).Order("id desc").Find(&coupons).Error; err != nil {
		return []model.Coupon{}, err
	}
	return coupons, nil
}
