package receipt

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"paragon-backend/entities"
)

type (
	ReceiptRepository interface {
		CreateReceipt(ctx context.Context, receipt *entities.Receipt) error
		GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error)
		GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]*entities.Receipt, int64, error)
		// FindActiveReceiptByHash returns a non-terminal receipt with the same
		// image hash and owner, or nil. Used to deduplicate re-uploads.
		FindActiveReceiptByHash(ctx context.Context, userID uuid.UUID, imageHash string) (*entities.Receipt, error)
		// ClaimForProcessing performs the single conditional update that is
		// the sole concurrency primitive of the pipeline. false means another
		// worker already holds the receipt.
		ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error)
		UpdateReceipt(ctx context.Context, receipt *entities.Receipt) error
		SetStatus(ctx context.Context, id uuid.UUID, status string) error
		MarkReceiptError(ctx context.Context, id uuid.UUID, message string) error

		CreateLineItems(ctx context.Context, items []*entities.LineItem) error
		GetLineItemByID(ctx context.Context, id string) (*entities.LineItem, error)
		SaveLineItem(ctx context.Context, item *entities.LineItem) error

		GetOrCreateShop(ctx context.Context, name, address string) (*entities.Shop, error)
	}

	receiptRepository struct {
		db *gorm.DB
	}
)

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error) {
	var receipt entities.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Shop").Preload("LineItems").
		Where("id = ?", id).First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]*entities.Receipt, int64, error) {
	var receipts []*entities.Receipt
	var count int64

	offset := (page - 1) * limit

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "all" && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Model(&entities.Receipt{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&receipts).Error; err != nil {
		return nil, 0, err
	}

	return receipts, count, nil
}

func (r *receiptRepository) FindActiveReceiptByHash(ctx context.Context, userID uuid.UUID, imageHash string) (*entities.Receipt, error) {
	var receipt entities.Receipt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND image_hash = ? AND status IN ?",
			userID, imageHash,
			[]string{entities.ReceiptStatusPending, entities.ReceiptStatusProcessing}).
		First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ? AND status = ?", id, entities.ReceiptStatusPending).
		Update("status", entities.ReceiptStatusProcessing)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *receiptRepository) UpdateReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Save(receipt).Error
}

func (r *receiptRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *receiptRepository) MarkReceiptError(ctx context.Context, id uuid.UUID, message string) error {
	return r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        entities.ReceiptStatusError,
			"error_message": message,
		}).Error
}

func (r *receiptRepository) CreateLineItems(ctx context.Context, items []*entities.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(items).Error
}

func (r *receiptRepository) GetLineItemByID(ctx context.Context, id string) (*entities.LineItem, error) {
	var item entities.LineItem
	if err := r.db.WithContext(ctx).Preload("Receipt").
		Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *receiptRepository) SaveLineItem(ctx context.Context, item *entities.LineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *receiptRepository) GetOrCreateShop(ctx context.Context, name, address string) (*entities.Shop, error) {
	nameKey := strings.ToLower(strings.TrimSpace(name))
	addressKey := strings.ToLower(strings.TrimSpace(address))

	var existing entities.Shop
	err := r.db.WithContext(ctx).
		Where("name_key = ? AND address_key = ?", nameKey, addressKey).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	shop := &entities.Shop{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(name),
		Address:    strings.TrimSpace(address),
		NameKey:    nameKey,
		AddressKey: addressKey,
	}
	err = r.db.WithContext(ctx).Create(shop).Error
	if err == nil {
		return shop, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if ferr := r.db.WithContext(ctx).
			Where("name_key = ? AND address_key = ?", nameKey, addressKey).
			First(&existing).Error; ferr == nil {
			return &existing, nil
		}
	}
	return nil, err
}
