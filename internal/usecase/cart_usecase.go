package usecase

import (
	"context"
	"fmt"
	"net/http"

	repo "shopapp/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// カートは「意思」だけを持ち、在庫の引き当ては注文確定まで行いません。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

// position はカート内の並び順（id昇順）での位置。
// 明細の削除や並び替えの後は取り直しが必要。
type CartItemResponse struct {
	Position  int     `json:"position"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int64   `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total float64            `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得（無ければ作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
// 「既存数量＋追加数量」が現在在庫を超える場合は追加できない。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// カート取得（無ければ作成）
	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product unavailable")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product unavailable")
	}

	// 既存数量を調べる
	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var existingQty int64 = 0
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}

	newQty := existingQty + in.Quantity
	if newQty > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("insufficient stock for %s: available %d, requested %d", p.Name, p.Stock, newQty))
	}

	// Upsert（同一商品は加算）
	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// 数量変更（位置参照＋現在在庫で再チェック）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, position int, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cartID, items, err := u.findCartWithItems(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	if position < 0 || position >= len(items) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "line item not found")
	}
	item := items[position]

	//商品の在庫チェック（追加時点ではなく現在の在庫に対して）
	p, err := u.productRepo.FindByID(ctx, item.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product unavailable")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product unavailable")
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("insufficient stock for %s: available %d, requested %d", p.Name, p.Stock, in.Quantity))
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, item.ID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "line item not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cartID)
}

// 明細削除（位置参照）
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, position int) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cartID, items, err := u.findCartWithItems(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	if position < 0 || position >= len(items) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "line item not found")
	}

	if err := u.cartItemRepo.DeleteByID(ctx, items[position].ID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "line item not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cartID)
}

// カートを空にする（カート行は残す）
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		// 何も入っていないのと同じ
		return CartResponse{Items: []CartItemResponse{}}, nil
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartRepo.Clear(ctx, cart.ID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return CartResponse{Items: []CartItemResponse{}}, nil
}

type cartItemRef struct {
	ID        int64
	ProductID int64
}

// カートと明細（位置参照の基準となる保存順）をまとめて引く。
func (u *CartUsecase) findCartWithItems(ctx context.Context, userID int64) (int64, []cartItemRef, error) {
	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return 0, nil, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return 0, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	list, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return 0, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	refs := make([]cartItemRef, 0, len(list))
	for _, it := range list {
		refs = append(refs, cartItemRef{ID: it.ID, ProductID: it.ProductID})
	}

	return cart.ID, refs, nil
}

// cartIDの明細をまとめてCartResponseを作る。
// 合計は常に現在の商品価格（割引があれば割引後）で計算する。
// 削除・非公開になった商品は表示から外れるが、positionは保存順のまま。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var total float64 = 0

	for i, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err != nil {
			continue
		}
		if !p.IsActive {
			continue
		}

		unit := p.SellingPrice()
		lineTotal := round2(unit * float64(it.Quantity))

		respItems = append(respItems, CartItemResponse{
			Position:  i,
			ProductID: it.ProductID,
			Name:      p.Name,
			UnitPrice: round2(unit),
			Quantity:  it.Quantity,
			LineTotal: lineTotal,
		})

		total += lineTotal
	}

	return CartResponse{Items: respItems, Total: round2(total)}, nil
}
