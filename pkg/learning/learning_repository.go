package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"paragon-backend/entities"
)

type (
	LearningRepository interface {
		GetPendingCandidates(ctx context.Context) ([]*entities.Candidate, error)
		GetCandidates(ctx context.Context, status string) ([]*entities.Candidate, error)
		CreateCandidate(ctx context.Context, candidate *entities.Candidate) error
		SaveCandidate(ctx context.Context, candidate *entities.Candidate) error

		// FindUnlinkedVerifiedItems returns user-verified line items that have
		// no product reference yet, receipts preloaded for scope information.
		FindUnlinkedVerifiedItems(ctx context.Context) ([]*entities.LineItem, error)
		UpdateLineItemProducts(ctx context.Context, itemIDs []uuid.UUID, productID uuid.UUID) error
		SaveLineItem(ctx context.Context, item *entities.LineItem) error
	}

	learningRepository struct {
		db *gorm.DB
	}
)

func NewLearningRepository(db *gorm.DB) LearningRepository {
	return &learningRepository{db: db}
}

func (r *learningRepository) GetPendingCandidates(ctx context.Context) ([]*entities.Candidate, error) {
	return r.GetCandidates(ctx, entities.CandidateStatusPending)
}

func (r *learningRepository) GetCandidates(ctx context.Context, status string) ([]*entities.Candidate, error) {
	var candidates []*entities.Candidate
	query := r.db.WithContext(ctx)
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("confirmation_count DESC").Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *learningRepository) CreateCandidate(ctx context.Context, candidate *entities.Candidate) error {
	return r.db.WithContext(ctx).Create(candidate).Error
}

func (r *learningRepository) SaveCandidate(ctx context.Context, candidate *entities.Candidate) error {
	return r.db.WithContext(ctx).Save(candidate).Error
}

func (r *learningRepository) FindUnlinkedVerifiedItems(ctx context.Context) ([]*entities.LineItem, error) {
	var items []*entities.LineItem
	if err := r.db.WithContext(ctx).Preload("Receipt").
		Where("product_id IS NULL AND is_verified = ? AND verification_source = ?",
			true, entities.VerificationSourceUser).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *learningRepository) UpdateLineItemProducts(ctx context.Context, itemIDs []uuid.UUID, productID uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entities.LineItem{}).
		Where("id IN ?", itemIDs).
		Update("product_id", productID).Error
}

func (r *learningRepository) SaveLineItem(ctx context.Context, item *entities.LineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}
