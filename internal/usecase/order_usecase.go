package usecase

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"
)

// 金額は小数第2位に丸める
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// 注文番号：# + ミリ秒タイムスタンプ下8桁 + 乱数3桁。
// グローバル一意は保証しない。衝突したらDBのuniqueに弾かれて作成が失敗する。
func generateOrderNumber(now time.Time) string {
	ms := now.UnixMilli() % 100_000_000
	return fmt.Sprintf("#%08d%03d", ms, rand.IntN(1000))
}

type OrderUsecase struct {
	tx       repo.TransactionManager
	notifier OrderNotifier
}

func NewOrderUsecase(tx repo.TransactionManager, notifier OrderNotifier) *OrderUsecase {
	return &OrderUsecase{tx: tx, notifier: notifier}
}

type CreateOrderInput struct {
	ShippingAddress string
}

type OrderItemOutput struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Discount  float64 `json:"discount"`
	Quantity  int64   `json:"quantity"`
	ItemTotal float64 `json:"item_total"`
}

type TimelineEntryOutput struct {
	Status    string    `json:"status"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderOutput struct {
	ID                   int64                 `json:"id"`
	OrderNumber          string                `json:"order_number"`
	UserID               int64                 `json:"user_id"`
	Status               string                `json:"status"`
	PaymentStatus        string                `json:"payment_status"`
	TotalAmount          float64               `json:"total_amount"`
	ShippingAddress      string                `json:"shipping_address"`
	ExpectedDeliveryDate *time.Time            `json:"expected_delivery_date"`
	CreatedAt            time.Time             `json:"created_at"`
	Items                []OrderItemOutput     `json:"items"`
	Timeline             []TimelineEntryOutput `json:"timeline"`
}

// CreateFromCart はカートを注文に変換する。
// 在庫の引き当て・注文作成・カートのクリアまでを1トランザクションで行う。
// どれか1明細でも失敗したら全体をロールバックする（部分確定を残さない）。
func (u *OrderUsecase) CreateFromCart(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "shipping_address required")
	}
	if len(address) > 500 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "shipping_address too long")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//カート取得
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カート明細取得
		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		//明細ごとに商品を取り直して、在庫を引き当てる
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		var total float64 = 0

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("product unavailable: %d", ci.ProductID))
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("product unavailable: %s", p.Name))
			}

			//在庫減算（足りないなら false）。判定と減算は1回のUPDATE。
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("insufficient stock for %s: available %d, requested %d", p.Name, p.Stock, ci.Quantity))
			}

			//現在の価格と割引をスナップショット
			itemTotal := round2(p.SellingPrice() * float64(ci.Quantity))
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           ci.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				DiscountSnapshot:    p.DiscountPercentage,
				Quantity:            ci.Quantity,
				ItemTotal:           itemTotal,
				CreatedAt:           time.Now(),
			})

			total += itemTotal
		}
		total = round2(total)

		// 注文作成
		now := time.Now()
		order := model.Order{
			OrderNumber:     generateOrderNumber(now),
			UserID:          userID,
			ShippingAddress: address,
			Status:          model.OrderStatusPlaced,
			PaymentStatus:   model.PaymentStatusPending,
			TotalAmount:     total,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err == repo.ErrConflict {
			//注文番号の衝突。リトライは呼び出し側に任せる。
			return NewHTTPError(http.StatusConflict, "order could not be created, please retry")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		order.ID = orderID

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//履歴の先頭（placed）を注文と同時に作る
		placedEntry := model.OrderStatusEntry{
			OrderID:   orderID,
			Status:    model.OrderStatusPlaced,
			Note:      "Order placed",
			CreatedAt: now,
		}
		if _, err := r.OrderStatuses().Append(ctx, placedEntry); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カートを空にする（カート行は残す）
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(order, orderItems, []model.OrderStatusEntry{placedEntry})
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	//管理者へ通知（commit後、ベストエフォート）
	u.notifier.NotifyNewOrder(out)

	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			timeline, err := r.OrderStatuses().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items, timeline))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// GetOrder は所有者本人か管理者だけが見られる。
func (u *OrderUsecase) GetOrder(ctx context.Context, userID int64, role model.Role, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID && role != model.RoleAdmin {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		timeline, err := r.OrderStatuses().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items, timeline)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem, timeline []model.OrderStatusEntry) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Discount:  it.DiscountSnapshot,
			Quantity:  it.Quantity,
			ItemTotal: it.ItemTotal,
		})
	}

	outTimeline := make([]TimelineEntryOutput, 0, len(timeline))
	for _, e := range timeline {
		outTimeline = append(outTimeline, TimelineEntryOutput{
			Status:    string(e.Status),
			Note:      e.Note,
			Timestamp: e.CreatedAt,
		})
	}

	return OrderOutput{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		UserID:               o.UserID,
		Status:               string(o.Status),
		PaymentStatus:        string(o.PaymentStatus),
		TotalAmount:          o.TotalAmount,
		ShippingAddress:      o.ShippingAddress,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		CreatedAt:            o.CreatedAt,
		Items:                outItems,
		Timeline:             outTimeline,
	}
}
