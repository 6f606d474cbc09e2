package handler

import (
	"net/http"
	"time"

	"shopapp/internal/config"
	"shopapp/internal/middleware"
	"shopapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CouponValidateRequest struct {
	Code      string  `json:"code"`
	CartTotal float64 `json:"cart_total"`
}

type CouponCreateRequest struct {
	Code               string   `json:"code"`
	DiscountPercentage float64  `json:"discount_percentage"`
	IsActive           bool     `json:"is_active"`
	ExpiryDate         string   `json:"expiry_date"`
	UsageLimit         *int64   `json:"usage_limit"`
	MinPurchaseAmount  *float64 `json:"min_purchase_amount"`
}

// クーポンAPI。検証はログインユーザー、作成・一覧は管理者のみ。
type CouponHandler struct {
	uc *usecase.CouponUsecase
}

// DI
func NewCouponHandler(uc *usecase.CouponUsecase) *CouponHandler {
	return &CouponHandler{uc: uc}
}

func (h *CouponHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/coupons")
	g.Use(middleware.AuthJWT(cfg))
	g.POST("/validate", h.validate)

	admin := e.Group("/admin/coupons")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())
	admin.POST("", h.adminCreate)
	admin.GET("", h.adminList)
}

func (h *CouponHandler) validate(c echo.Context) error {
	var req CouponValidateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Validate(c.Request().Context(), usecase.ValidateCouponInput{
		Code:      req.Code,
		CartTotal: req.CartTotal,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CouponHandler) adminCreate(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CouponCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	var expiryPtr *time.Time
	if req.ExpiryDate != "" {
		tm, err := time.Parse(time.RFC3339, req.ExpiryDate)
		if err != nil {
			tm, err = time.Parse("2006-01-02", req.ExpiryDate)
			if err != nil {
				return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid expiry_date"})
			}
		}
		expiryPtr = &tm
	}

	out, err := h.uc.AdminCreateCoupon(c.Request().Context(), adminID, usecase.AdminCreateCouponInput{
		Code:               req.Code,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           req.IsActive,
		ExpiryDate:         expiryPtr,
		UsageLimit:         req.UsageLimit,
		MinPurchaseAmount:  req.MinPurchaseAmount,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *CouponHandler) adminList(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.AdminListCoupons(c.Request().Context(), adminID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
