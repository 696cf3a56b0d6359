package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
)

// Repository reads the catalog rows order intake revalidates against.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProductInStore(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
	FindVariantForProduct(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindProductInStore returns gorm.ErrRecordNotFound when the product does not
// exist, belongs to another store or is archived.
func (r *repository) FindProductInStore(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ? AND is_archived = ?", productID, storeID, false).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariantForProduct returns gorm.ErrRecordNotFound unless the variant belongs to productID.
func (r *repository) FindVariantForProduct(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}
