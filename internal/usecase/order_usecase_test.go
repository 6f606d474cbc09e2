package usecase

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGenerateOrderNumber_Format(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	num := generateOrderNumber(now)

	// "#" + ミリ秒下8桁 + 乱数3桁
	assert.Regexp(t, regexp.MustCompile(`^#\d{11}$`), num)
}

func newOrderTestDeps() (*OrderUsecase,
	*OrderRepoMock, *OrderItemRepoMock, *OrderStatusRepoMock,
	*CartRepoMock, *CartItemRepoMock, *InventoryRepoMock, *ProductRepoMock,
	*NotifierMock,
) {
	orders := &OrderRepoMock{}
	orderItems := &OrderItemRepoMock{}
	orderStatuses := &OrderStatusRepoMock{}
	carts := &CartRepoMock{}
	cartItems := &CartItemRepoMock{}
	inventory := &InventoryRepoMock{}
	products := &ProductRepoMock{}
	notifier := &NotifierMock{}

	tx := &TxManagerMock{Repos: &TxReposMock{
		orders:        orders,
		orderItems:    orderItems,
		orderStatuses: orderStatuses,
		carts:         carts,
		cartItems:     cartItems,
		inventory:     inventory,
		products:      products,
	}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	uc := NewOrderUsecase(tx, notifier)
	return uc, orders, orderItems, orderStatuses, carts, cartItems, inventory, products, notifier
}

func TestCreateFromCart_Success(t *testing.T) {
	uc, orders, orderItems, orderStatuses, carts, cartItems, inventory, products, notifier := newOrderTestDeps()
	ctx := context.Background()

	carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 10, CartID: 3, ProductID: 1, Quantity: 5},
	}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Name: "Keyboard", Price: 100, Stock: 5, IsActive: true,
	}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(5)).Return(true, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(42), nil)
	orderItems.On("CreateBulk", mock.Anything, int64(42), mock.Anything).Return(nil)
	orderStatuses.On("Append", mock.Anything, mock.MatchedBy(func(e model.OrderStatusEntry) bool {
		return e.OrderID == 42 && e.Status == model.OrderStatusPlaced && e.Note == "Order placed"
	})).Return(int64(1), nil)
	carts.On("Clear", mock.Anything, int64(3)).Return(nil)
	notifier.On("NotifyNewOrder", mock.Anything).Return()

	out, err := uc.CreateFromCart(ctx, 7, CreateOrderInput{ShippingAddress: "1 Main St"})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
	assert.Equal(t, string(model.OrderStatusPlaced), out.Status)
	assert.Equal(t, string(model.PaymentStatusPending), out.PaymentStatus)
	assert.Equal(t, 500.0, out.TotalAmount)
	assert.Len(t, out.Timeline, 1)
	assert.Equal(t, "Order placed", out.Timeline[0].Note)

	// 在庫の引き当てとカートのクリアが行われた
	inventory.AssertExpectations(t)
	carts.AssertCalled(t, "Clear", mock.Anything, int64(3))
	notifier.AssertCalled(t, "NotifyNewOrder", mock.Anything)
}

func TestCreateFromCart_DiscountedPriceSnapshot(t *testing.T) {
	uc, orders, orderItems, orderStatuses, carts, cartItems, inventory, products, notifier := newOrderTestDeps()
	ctx := context.Background()

	carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 10, CartID: 3, ProductID: 1, Quantity: 2},
	}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Name: "Mouse", Price: 50, DiscountPercentage: 10, Stock: 9, IsActive: true,
	}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(2)).Return(true, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(8), nil)
	orderItems.On("CreateBulk", mock.Anything, int64(8), mock.MatchedBy(func(items []model.OrderItem) bool {
		// 保存価格と割引率をそのままスナップショット、明細合計は割引後
		return len(items) == 1 &&
			items[0].UnitPriceSnapshot == 50 &&
			items[0].DiscountSnapshot == 10 &&
			items[0].ItemTotal == 90
	})).Return(nil)
	orderStatuses.On("Append", mock.Anything, mock.Anything).Return(int64(1), nil)
	carts.On("Clear", mock.Anything, int64(3)).Return(nil)
	notifier.On("NotifyNewOrder", mock.Anything).Return()

	out, err := uc.CreateFromCart(ctx, 7, CreateOrderInput{ShippingAddress: "1 Main St"})

	assert.NoError(t, err)
	assert.Equal(t, 90.0, out.TotalAmount)
	orderItems.AssertExpectations(t)
}

func TestCreateFromCart_EmptyCart(t *testing.T) {
	uc, orders, _, _, carts, cartItems, _, _, notifier := newOrderTestDeps()
	ctx := context.Background()

	carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil)

	_, err := uc.CreateFromCart(ctx, 7, CreateOrderInput{ShippingAddress: "1 Main St"})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
	assert.Equal(t, "cart is empty", he.Message)

	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "NotifyNewOrder", mock.Anything)
}

func TestCreateFromCart_NoCartRow(t *testing.T) {
	uc, _, _, _, carts, _, _, _, _ := newOrderTestDeps()
	ctx := context.Background()

	carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{}, repo.ErrNotFound)

	_, err := uc.CreateFromCart(ctx, 7, CreateOrderInput{ShippingAddress: "1 Main St"})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
	assert.Equal(t, "cart is empty", he.Message)
}

func TestCreateFromCart_InactiveProduct(t *testing.T) {
	uc, orders, _, _, carts, cartItems, inventory, products, _ := newOrderTestDeps()
	ctx := context.Background()

	carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 10, CartID: 3, ProductID: 1, Quantity: 1},
	}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Name: "Discontinued", Price: 100, Stock: 5, IsActive: false,
	}, nil)

	_, err := uc.CreateFromCart(ctx, 7, CreateOrderInput{ShippingAddress: "1 Main St"})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
	assert.Contains(t, he.Message, "product unavailable")

	inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateFromCart_InsufficientStockAborts(t *testing.T) {
	uc, orders, _, _, carts, cartItems, inventory, products, notifier := newOrderTestDeps()
	ctx := context.Background()

	carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 10, CartID: 3, ProductID: 1, Quantity: 2},
		{ID: 11, CartID: 3, ProductID: 2, Quantity: 4},
	}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Name: "Keyboard", Price: 100, Stock: 2, IsActive: true,
	}, nil)
	products.On("FindByID", mock.Anything, int64(2)).Return(model.Product{
		ID: 2, Name: "Monitor", Price: 300, Stock: 3, IsActive: true,
	}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(2)).Return(true, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(2), int64(4)).Return(false, nil)

	_, err := uc.CreateFromCart(ctx, 7, CreateOrderInput{ShippingAddress: "1 Main St"})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
	assert.Equal(t, "insufficient stock for Monitor: available 3, requested 4", he.Message)

	// txごとロールバックされるので注文も通知も無い
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "NotifyNewOrder", mock.Anything)
}

func TestCreateFromCart_OrderNumberConflict(t *testing.T) {
	uc, orders, _, _, carts, cartItems, inventory, products, _ := newOrderTestDeps()
	ctx := context.Background()

	carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 10, CartID: 3, ProductID: 1, Quantity: 1},
	}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Name: "Keyboard", Price: 100, Stock: 5, IsActive: true,
	}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(1)).Return(true, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(0), repo.ErrConflict)

	_, err := uc.CreateFromCart(ctx, 7, CreateOrderInput{ShippingAddress: "1 Main St"})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 409, he.Status)
}

func TestCreateFromCart_CreateDBErrorIsNot409(t *testing.T) {
	uc, orders, _, _, carts, cartItems, inventory, products, _ := newOrderTestDeps()
	ctx := context.Background()

	carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 10, CartID: 3, ProductID: 1, Quantity: 1},
	}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Name: "Keyboard", Price: 100, Stock: 5, IsActive: true,
	}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(1)).Return(true, nil)
	// 番号衝突ではない普通のDB障害
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection refused"))

	_, err := uc.CreateFromCart(ctx, 7, CreateOrderInput{ShippingAddress: "1 Main St"})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 500, he.Status)
	assert.Equal(t, "db error", he.Message)
}

func TestCreateFromCart_MissingAddress(t *testing.T) {
	uc, _, _, _, _, _, _, _, _ := newOrderTestDeps()

	_, err := uc.CreateFromCart(context.Background(), 7, CreateOrderInput{ShippingAddress: "   "})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
}

func TestGetOrder_ForbiddenForOtherUser(t *testing.T) {
	uc, orders, _, _, _, _, _, _, _ := newOrderTestDeps()
	ctx := context.Background()

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{ID: 42, UserID: 7}, nil)

	_, err := uc.GetOrder(ctx, 8, model.RoleUser, 42)

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 403, he.Status)
}

func TestGetOrder_AdminCanReadAny(t *testing.T) {
	uc, orders, orderItems, orderStatuses, _, _, _, _, _ := newOrderTestDeps()
	ctx := context.Background()

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{ID: 42, UserID: 7}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{}, nil)
	orderStatuses.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderStatusEntry{}, nil)

	out, err := uc.GetOrder(ctx, 99, model.RoleAdmin, 42)

	assert.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
}
