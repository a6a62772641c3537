package learning

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"paragon-backend/domain"
	"paragon-backend/entities"
	"paragon-backend/pkg/normalization"
	"paragon-backend/pkg/product"
)

type (
	LearningService interface {
		// ProcessConfirmation feeds one user-confirmed line-item correction
		// into the learning engine. The line item must already be verified
		// with source=user.
		ProcessConfirmation(ctx context.Context, confirmation Confirmation) error
		GetCandidates(ctx context.Context, status string) ([]domain.CandidateResponse, error)
	}

	Confirmation struct {
		LineItem   *entities.LineItem
		EditedText string
		CategoryID *uuid.UUID
		ShopID     *uuid.UUID
		UserID     *uuid.UUID
	}

	learningService struct {
		learningRepository LearningRepository
		productRepository  product.ProductRepository
		matcher            *normalization.FuzzyMatcher
		config             normalization.Config
		logger             *logrus.Logger
	}
)

func NewLearningService(
	learningRepository LearningRepository,
	productRepository product.ProductRepository,
	matcher *normalization.FuzzyMatcher,
	config normalization.Config,
	logger *logrus.Logger,
) LearningService {
	return &learningService{
		learningRepository: learningRepository,
		productRepository:  productRepository,
		matcher:            matcher,
		config:             config,
		logger:             logger,
	}
}

func (s *learningService) ProcessConfirmation(ctx context.Context, confirmation Confirmation) error {
	groupingKey := normalization.GroupingKey(confirmation.EditedText)
	if groupingKey == "" {
		return nil
	}

	// An edit that already fuzzy-matches a canonical product needs no
	// candidate bookkeeping: link, learn the alias, done.
	match, err := s.matcher.Match(ctx, groupingKey)
	if err != nil {
		return err
	}
	if match != nil {
		return s.linkToProduct(ctx, confirmation, match.Product)
	}

	candidate, err := s.findOrCreateCandidate(ctx, groupingKey, confirmation.CategoryID)
	if err != nil {
		return err
	}

	if candidate.ConfirmationCount >= s.config.AcceptanceThreshold &&
		candidate.Status == entities.CandidateStatusPending {
		return s.promote(ctx, candidate)
	}
	return nil
}

func (s *learningService) linkToProduct(ctx context.Context, confirmation Confirmation, matched *entities.Product) error {
	item := confirmation.LineItem
	productID := matched.ID
	item.ProductID = &productID
	item.NormalizedName = matched.Name
	if err := s.learningRepository.SaveLineItem(ctx, item); err != nil {
		return err
	}

	s.upsertAlias(ctx, normalization.Clean(confirmation.EditedText), matched.ID, confirmation.ShopID, confirmation.UserID)
	return nil
}

func (s *learningService) findOrCreateCandidate(ctx context.Context, groupingKey string, categoryID *uuid.UUID) (*entities.Candidate, error) {
	candidates, err := s.learningRepository.GetPendingCandidates(ctx)
	if err != nil {
		return nil, err
	}

	var best *entities.Candidate
	bestScore := 0.0
	for _, c := range candidates {
		score := normalization.TrigramSimilarity(groupingKey, c.RepresentativeName)
		if score >= s.config.GroupingThreshold && score > bestScore {
			best = c
			bestScore = score
		}
	}

	if best != nil {
		best.ConfirmationCount++
		if categoryID != nil && (best.CategoryID == nil || *best.CategoryID != *categoryID) {
			best.CategoryID = categoryID
		}
		if err := s.learningRepository.SaveCandidate(ctx, best); err != nil {
			return nil, err
		}
		return best, nil
	}

	candidate := &entities.Candidate{
		ID:                 uuid.New(),
		RepresentativeName: groupingKey,
		ConfirmationCount:  1,
		CategoryID:         categoryID,
		Status:             entities.CandidateStatusPending,
	}
	if err := s.learningRepository.CreateCandidate(ctx, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// promote converts a sufficiently-confirmed candidate into a canonical
// product and retroactively re-links the historical line items. All matching
// items must be re-linked before the candidate is marked approved.
func (s *learningService) promote(ctx context.Context, candidate *entities.Candidate) error {
	items, err := s.learningRepository.FindUnlinkedVerifiedItems(ctx)
	if err != nil {
		return err
	}

	var matching []*entities.LineItem
	for _, item := range items {
		key := normalization.GroupingKey(item.NormalizedName)
		if key == "" {
			key = normalization.GroupingKey(item.OriginalText)
		}
		if normalization.TrigramSimilarity(candidate.RepresentativeName, key) >= s.config.GroupingThreshold {
			matching = append(matching, item)
		}
	}

	if len(matching) == 0 {
		// Confirmation counting got us here, so there must be items to
		// re-link; their absence is a bug, not a runtime condition. The
		// candidate keeps its status so the caller can retry.
		return fmt.Errorf("promotion of candidate %s found no matching line items", candidate.ID)
	}

	name := mostFrequentName(matching)
	categoryID := mostFrequentCategory(matching)
	if categoryID == nil {
		categoryID = candidate.CategoryID
	}

	canonical, err := s.productRepository.GetOrCreateProduct(ctx, name, categoryID)
	if err != nil {
		return err
	}

	itemIDs := make([]uuid.UUID, 0, len(matching))
	for _, item := range matching {
		itemIDs = append(itemIDs, item.ID)
	}
	if err := s.learningRepository.UpdateLineItemProducts(ctx, itemIDs, canonical.ID); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, item := range matching {
		rawName := normalization.Clean(item.OriginalText)
		if rawName == "" || seen[rawName] {
			continue
		}
		seen[rawName] = true

		var shopID, userID *uuid.UUID
		if item.Receipt != nil {
			shopID = item.Receipt.ShopID
			ownerID := item.Receipt.UserID
			userID = &ownerID
		}
		s.upsertAlias(ctx, rawName, canonical.ID, shopID, userID)
	}

	candidate.Status = entities.CandidateStatusApproved
	productID := canonical.ID
	candidate.ProductID = &productID
	if err := s.learningRepository.SaveCandidate(ctx, candidate); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"module":       "learning",
		"candidate_id": candidate.ID.String(),
		"product_id":   canonical.ID.String(),
		"item_count":   len(matching),
	}).Info("candidate promoted to canonical product")
	return nil
}

// upsertAlias is a best-effort learning signal; failures are logged and
// swallowed.
func (s *learningService) upsertAlias(ctx context.Context, rawName string, productID uuid.UUID, shopID, userID *uuid.UUID) {
	if rawName == "" {
		return
	}
	alias := &entities.Alias{
		ID:        uuid.New(),
		RawName:   rawName,
		ProductID: productID,
		ShopID:    shopID,
		UserID:    userID,
	}
	if err := s.productRepository.UpsertAlias(ctx, alias); err != nil {
		s.logger.WithFields(logrus.Fields{
			"module":     "learning",
			"raw_name":   rawName,
			"product_id": productID.String(),
		}).Warn("failed to upsert alias: ", err)
	}
}

func (s *learningService) GetCandidates(ctx context.Context, status string) ([]domain.CandidateResponse, error) {
	candidates, err := s.learningRepository.GetCandidates(ctx, status)
	if err != nil {
		return nil, err
	}

	var response []domain.CandidateResponse
	for _, c := range candidates {
		resp := domain.CandidateResponse{
			ID:                 c.ID.String(),
			RepresentativeName: c.RepresentativeName,
			ConfirmationCount:  c.ConfirmationCount,
			Status:             c.Status,
		}
		if c.CategoryID != nil {
			categoryID := c.CategoryID.String()
			resp.CategoryID = &categoryID
		}
		if c.ProductID != nil {
			productID := c.ProductID.String()
			resp.ProductID = &productID
		}
		response = append(response, resp)
	}
	return response, nil
}

// mostFrequentName picks the most frequent cleaned original text among the
// gathered items. Ties break to the first-encountered string; arbitrary but
// deterministic.
func mostFrequentName(items []*entities.LineItem) string {
	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		name := normalization.Clean(item.OriginalText)
		if name == "" {
			name = item.NormalizedName
		}
		if name == "" {
			continue
		}
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}

	best := ""
	bestCount := 0
	for _, name := range order {
		if counts[name] > bestCount {
			best = name
			bestCount = counts[name]
		}
	}
	return best
}

func mostFrequentCategory(items []*entities.LineItem) *uuid.UUID {
	counts := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, item := range items {
		if item.CategoryID == nil {
			continue
		}
		if counts[*item.CategoryID] == 0 {
			order = append(order, *item.CategoryID)
		}
		counts[*item.CategoryID]++
	}

	var best *uuid.UUID
	bestCount := 0
	for _, id := range order {
		if counts[id] > bestCount {
			categoryID := id
			best = &categoryID
			bestCount = counts[id]
		}
	}
	return best
}
