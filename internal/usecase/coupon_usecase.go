package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"
)

type CouponUsecase struct {
	couponRepo repo.CouponRepository
}

func NewCouponUsecase(couponRepo repo.CouponRepository) *CouponUsecase {
	return &CouponUsecase{couponRepo: couponRepo}
}

type ValidateCouponInput struct {
	Code      string
	CartTotal float64
}

type ValidateCouponOutput struct {
	Code               string  `json:"code"`
	DiscountPercentage float64 `json:"discount_percentage"`
	DiscountAmount     float64 `json:"discount_amount"`
	FinalAmount        float64 `json:"final_amount"`
}

// Validate はクーポンの検証と割引額の計算だけを行う。
// used_count はここでは増やさない（使用確定は別の責務）。
func (u *CouponUsecase) Validate(ctx context.Context, in ValidateCouponInput) (ValidateCouponOutput, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return ValidateCouponOutput{}, NewHTTPError(http.StatusBadRequest, "code required")
	}
	if in.CartTotal < 0 {
		return ValidateCouponOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cart total")
	}

	c, err := u.couponRepo.FindByCode(ctx, code)
	if err == repo.ErrNotFound {
		return ValidateCouponOutput{}, NewHTTPError(http.StatusNotFound, "coupon not found")
	}
	if err != nil {
		return ValidateCouponOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !c.IsActive {
		return ValidateCouponOutput{}, NewHTTPError(http.StatusBadRequest, "coupon is inactive")
	}
	if c.ExpiryDate != nil && time.Now().After(*c.ExpiryDate) {
		return ValidateCouponOutput{}, NewHTTPError(http.StatusBadRequest, "coupon expired")
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ValidateCouponOutput{}, NewHTTPError(http.StatusBadRequest, "coupon usage limit reached")
	}
	if c.MinPurchaseAmount != nil && in.CartTotal < *c.MinPurchaseAmount {
		return ValidateCouponOutput{}, NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("minimum purchase amount is %.2f", *c.MinPurchaseAmount))
	}

	discount := round2(in.CartTotal * c.DiscountPercentage / 100)
	return ValidateCouponOutput{
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		DiscountAmount:     discount,
		FinalAmount:        round2(in.CartTotal - discount),
	}, nil
}

type AdminCreateCouponInput struct {
	Code               string
	DiscountPercentage float64
	IsActive           bool
	ExpiryDate         *time.Time
	UsageLimit         *int64
	MinPurchaseAmount  *float64
}

func (u *CouponUsecase) AdminCreateCoupon(ctx context.Context, adminUserID int64, in AdminCreateCouponInput) (model.Coupon, error) {
	if adminUserID <= 0 {
		return model.Coupon{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" || len(code) > 50 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid code")
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "discount must be between 0 and 100")
	}
	if in.UsageLimit != nil && *in.UsageLimit < 1 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "usage_limit must be >= 1")
	}
	if in.MinPurchaseAmount != nil && *in.MinPurchaseAmount < 0 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "min_purchase_amount must be >= 0")
	}

	now := time.Now()
	created, err := u.couponRepo.Create(ctx, model.Coupon{
		Code:               code,
		DiscountPercentage: in.DiscountPercentage,
		IsActive:           in.IsActive,
		ExpiryDate:         in.ExpiryDate,
		UsageLimit:         in.UsageLimit,
		MinPurchaseAmount:  in.MinPurchaseAmount,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err == repo.ErrConflict {
		return model.Coupon{}, NewHTTPError(http.StatusConflict, "coupon code already exists")
	}
	if err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return created, nil
}

func (u *CouponUsecase) AdminListCoupons(ctx context.Context, adminUserID int64) ([]model.Coupon, error) {
	if adminUserID <= 0 {
		return []model.Coupon{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	coupons, err := u.couponRepo.List(ctx)
	if err != nil {
		return []model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return coupons, nil
}
