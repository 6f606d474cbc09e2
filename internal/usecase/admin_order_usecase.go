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

type AdminOrderUsecase struct {
	tx       repo.TransactionManager
	notifier OrderNotifier
}

func NewAdminOrderUsecase(tx repo.TransactionManager, notifier OrderNotifier) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, notifier: notifier}
}

// 空文字は「変更なし」。
type AdminUpdateOrderStatusInput struct {
	Status               string
	PaymentStatus        string
	ExpectedDeliveryDate *time.Time
	Note                 string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).IsValid() {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
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

// UpdateStatus は注文ライフサイクルの中心。
// ステータス遷移そのものは制限しない。在庫の増減だけが cancelled の出入りに紐づく：
//   - cancelled へ入る（delivered からを除く）→ 全明細の在庫を戻す
//   - cancelled から出る → 全明細の在庫を再チェックして引き当て直す
//
// delivered の注文をキャンセルしても在庫は戻さない（出荷済みとみなす）。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if newStatus != "" && !newStatus.IsValid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	newPayment := model.PaymentStatus(strings.TrimSpace(in.PaymentStatus))
	if newPayment != "" && !newPayment.IsValid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment status")
	}
	if newStatus == "" && newPayment == "" && in.ExpectedDeliveryDate == nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// ステータス変更（同じ値なら在庫も履歴も触らない）
		if newStatus != "" && newStatus != o.Status {
			if err := u.applyStockEffects(ctx, r, o, newStatus); err != nil {
				return err
			}

			if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
				if err == repo.ErrNotFound {
					return NewHTTPError(http.StatusNotFound, "not found")
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			note := strings.TrimSpace(in.Note)
			if note == "" {
				note = fmt.Sprintf("Order status changed from %s to %s", o.Status, newStatus)
			}
			entry := model.OrderStatusEntry{
				OrderID:   orderID,
				Status:    newStatus,
				Note:      note,
				CreatedAt: time.Now(),
			}
			if _, err := r.OrderStatuses().Append(ctx, entry); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			o.Status = newStatus
		} else if newStatus != "" && strings.TrimSpace(in.Note) != "" {
			// 同じステータスでもnoteが来ていれば履歴にだけ残す（在庫は触らない）
			entry := model.OrderStatusEntry{
				OrderID:   orderID,
				Status:    o.Status,
				Note:      strings.TrimSpace(in.Note),
				CreatedAt: time.Now(),
			}
			if _, err := r.OrderStatuses().Append(ctx, entry); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		// 支払いステータスは無条件で上書き（遷移の検証はしない）
		if newPayment != "" {
			if err := r.Orders().UpdatePaymentStatus(ctx, orderID, newPayment); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			o.PaymentStatus = newPayment
		}

		// 配達予定日。sent_to_delivery 中なら直近の履歴の note を予定日メッセージで上書きする。
		if in.ExpectedDeliveryDate != nil {
			if err := r.Orders().UpdateExpectedDeliveryDate(ctx, orderID, *in.ExpectedDeliveryDate); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			o.ExpectedDeliveryDate = in.ExpectedDeliveryDate

			if o.Status == model.OrderStatusSentToDelivery {
				last, found, err := r.OrderStatuses().Last(ctx, orderID)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				if found && last.Status == model.OrderStatusSentToDelivery {
					msg := fmt.Sprintf("Your order is on the way. Expected delivery by %s",
						in.ExpectedDeliveryDate.Format("Jan 2, 2006"))
					if err := r.OrderStatuses().UpdateNote(ctx, last.ID, msg); err != nil {
						return NewHTTPError(http.StatusInternalServerError, "db error")
					}
				}
			}
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

	//更新が確定したら毎回通知する（ステータスが変わっていなくても）
	u.notifier.NotifyStatusUpdated(out)

	return out, nil
}

// cancelled の出入りに伴う在庫の増減。それ以外の遷移では何もしない。
func (u *AdminOrderUsecase) applyStockEffects(ctx context.Context, r repo.TxRepos, o model.Order, newStatus model.OrderStatus) error {
	//cancelled へ入る：在庫戻し（delivered からは戻さない）
	if newStatus == model.OrderStatusCancelled {
		if o.Status == model.OrderStatusDelivered {
			return nil
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, it := range items {
			err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity)
			if err == repo.ErrNotFound {
				// 商品が消えていても在庫戻しでキャンセルは止めない
				continue
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
		return nil
	}

	//cancelled から出る：現在在庫に対して再チェックしてから引き当て直す
	if o.Status == model.OrderStatusCancelled {
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, it := range items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("product unavailable: %s", it.ProductNameSnapshot))
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if p.Stock < it.Quantity {
				return NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("insufficient stock for %s: available %d, requested %d", p.Name, p.Stock, it.Quantity))
			}
		}

		for _, it := range items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("insufficient stock for %s", it.ProductNameSnapshot))
			}
		}
	}

	return nil
}
