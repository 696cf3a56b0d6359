package dbtest

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
)

// SeedStore inserts a store owned by ownerID.
func SeedStore(t testing.TB, conn *gorm.DB, ownerID string) models.Store {
	t.Helper()
	store := models.Store{Name: "Test Store", OwnerID: ownerID}
	if err := conn.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

// SeedProduct inserts a product with one variant per size.
func SeedProduct(t testing.TB, conn *gorm.DB, store models.Store, name, price string, sizes ...string) (models.Product, []models.ProductVariant) {
	t.Helper()
	product := models.Product{StoreID: store.ID, Name: name, Price: decimal.RequireFromString(price)}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if len(sizes) == 0 {
		sizes = []string{"M"}
	}
	variants := make([]models.ProductVariant, 0, len(sizes))
	for _, size := range sizes {
		variant := models.ProductVariant{ProductID: product.ID, Size: size, Color: "Black", Stock: 10}
		if err := conn.Create(&variant).Error; err != nil {
			t.Fatalf("seed variant: %v", err)
		}
		variants = append(variants, variant)
	}
	return product, variants
}
