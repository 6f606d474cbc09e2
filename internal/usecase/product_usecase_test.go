package usecase

import (
	"context"
	"testing"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newProductTestDeps() (*ProductUsecase, *ProductRepoMock, *InventoryRepoMock) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	uc := NewProductUsecase(products, inventory)
	return uc, products, inventory
}

func TestSellingPrice(t *testing.T) {
	p := model.Product{Price: 200, DiscountPercentage: 25}
	assert.Equal(t, 150.0, p.SellingPrice())

	noDiscount := model.Product{Price: 200}
	assert.Equal(t, 200.0, noDiscount.SellingPrice())
}

func TestListPublicProducts_InvalidPage(t *testing.T) {
	uc, _, _ := newProductTestDeps()

	_, err := uc.ListPublicProducts(context.Background(), ListProductsInput{Page: 0, Limit: 20})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
}

func TestGetProductDetail_InactiveLooksLikeMissing(t *testing.T) {
	uc, products, _ := newProductTestDeps()

	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Name: "Hidden", IsActive: false,
	}, nil)

	_, err := uc.GetProductDetail(context.Background(), 1)

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 404, he.Status)
}

func TestAdminCreateProduct_InvalidDiscount(t *testing.T) {
	uc, products, _ := newProductTestDeps()

	_, err := uc.AdminCreateProduct(context.Background(), 1, AdminCreateProductInput{
		Name: "Keyboard", Price: 100, DiscountPercentage: 150,
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminUpdateInventory_RecordsDelta(t *testing.T) {
	uc, products, inventory := newProductTestDeps()

	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Name: "Keyboard", Stock: 10, IsActive: true,
	}, nil)
	inventory.On("SetStock", mock.Anything, int64(1), int64(4)).Return(nil)
	inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.ProductID == 1 && a.AdminUserID == 9 && a.Delta == -6 && a.Reason == "damaged in warehouse"
	})).Return(nil)

	err := uc.AdminUpdateInventory(context.Background(), 9, 1, 4, "damaged in warehouse")

	assert.NoError(t, err)
	inventory.AssertExpectations(t)
}

func TestAdminUpdateInventory_ReasonRequired(t *testing.T) {
	uc, _, inventory := newProductTestDeps()

	err := uc.AdminUpdateInventory(context.Background(), 9, 1, 4, "   ")

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
	inventory.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminUpdateInventory_ProductNotFound(t *testing.T) {
	uc, products, _ := newProductTestDeps()

	products.On("FindByID", mock.Anything, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	err := uc.AdminUpdateInventory(context.Background(), 9, 99, 4, "restock")

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 404, he.Status)
}
