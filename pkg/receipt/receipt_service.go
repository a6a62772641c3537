package receipt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"paragon-backend/domain"
	"paragon-backend/entities"
	"paragon-backend/internal/utils/storage"
	"paragon-backend/pkg/learning"
	"paragon-backend/pkg/normalization"
	"paragon-backend/pkg/ocr"
)

// errorMessageMaxLen bounds the stored failure reason.
const errorMessageMaxLen = 500

type (
	ReceiptService interface {
		UploadReceipt(ctx context.Context, req domain.UploadReceiptRequest, userID string) (domain.UploadReceiptResponse, error)
		// ProcessReceipt drives the pending -> processing -> terminal state
		// machine. Safe to invoke concurrently for the same receipt from any
		// number of workers.
		ProcessReceipt(ctx context.Context, receiptID string) error
		GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]domain.ReceiptResponse, int64, error)
		GetReceiptByID(ctx context.Context, id string, userID string) (domain.ReceiptResponse, error)
		VerifyLineItem(ctx context.Context, itemID string, req domain.VerifyLineItemRequest, userID string) error
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		normalizer        normalization.NormalizationService
		extractor         ocr.ReceiptExtractor
		learner           learning.LearningService
		s3                storage.AwsS3
		logger            *logrus.Logger
	}
)

func NewReceiptService(
	receiptRepository ReceiptRepository,
	normalizer normalization.NormalizationService,
	extractor ocr.ReceiptExtractor,
	learner learning.LearningService,
	s3 storage.AwsS3,
	logger *logrus.Logger,
) ReceiptService {
	return &receiptService{
		receiptRepository: receiptRepository,
		normalizer:        normalizer,
		extractor:         extractor,
		learner:           learner,
		s3:                s3,
		logger:            logger,
	}
}

func (s *receiptService) UploadReceipt(ctx context.Context, req domain.UploadReceiptRequest, userID string) (domain.UploadReceiptResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.UploadReceiptResponse{}, domain.ErrParseUUID
	}

	file, err := req.ReceiptImage.Open()
	if err != nil {
		return domain.UploadReceiptResponse{}, err
	}
	fileBytes, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return domain.UploadReceiptResponse{}, err
	}

	hash := sha256.Sum256(fileBytes)
	imageHash := hex.EncodeToString(hash[:])

	// A re-upload of an image still in flight reuses the existing receipt
	// instead of creating a duplicate pending row.
	existing, err := s.receiptRepository.FindActiveReceiptByHash(ctx, userUUID, imageHash)
	if err != nil {
		return domain.UploadReceiptResponse{}, err
	}
	if existing != nil {
		return domain.UploadReceiptResponse{
			ReceiptID: existing.ID.String(),
			ImageURL:  existing.ImageURL,
			Status:    existing.Status,
			Reused:    true,
		}, nil
	}

	receiptID := uuid.New()
	fileName := fmt.Sprintf("receipt-%s", receiptID.String())
	objectKey, err := s.s3.UploadFile(fileName, req.ReceiptImage, "receipts", storage.AllowImage...)
	if err != nil {
		return domain.UploadReceiptResponse{}, err
	}

	receipt := &entities.Receipt{
		ID:        receiptID,
		UserID:    userUUID,
		Status:    entities.ReceiptStatusPending,
		ImageURL:  s.s3.GetPublicLinkKey(objectKey),
		ImageHash: imageHash,
	}
	if err := s.receiptRepository.CreateReceipt(ctx, receipt); err != nil {
		_ = s.s3.DeleteFile(objectKey)
		return domain.UploadReceiptResponse{}, err
	}

	go func() {
		if err := s.ProcessReceipt(context.Background(), receiptID.String()); err != nil {
			s.logger.WithFields(logrus.Fields{
				"module":     "receipt",
				"receipt_id": receiptID.String(),
			}).Error("receipt processing failed: ", err)
		}
	}()

	return domain.UploadReceiptResponse{
		ReceiptID: receiptID.String(),
		ImageURL:  receipt.ImageURL,
		Status:    receipt.Status,
	}, nil
}

func (s *receiptService) ProcessReceipt(ctx context.Context, receiptID string) error {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrReceiptNotFound
		}
		return err
	}

	// Idempotent re-entry: an already-finished receipt is a no-op.
	if receipt.Status == entities.ReceiptStatusCompleted || receipt.Status == entities.ReceiptStatusToVerify {
		return nil
	}

	claimed, err := s.receiptRepository.ClaimForProcessing(ctx, receipt.ID)
	if err != nil {
		return err
	}
	if !claimed {
		// Another worker holds it; not an error.
		return nil
	}

	if err := s.runPipeline(ctx, receipt); err != nil {
		message := err.Error()
		if len(message) > errorMessageMaxLen {
			message = message[:errorMessageMaxLen]
		}
		// The status write is best-effort: a stuck processing row beats
		// crashing the worker permanently.
		if merr := s.receiptRepository.MarkReceiptError(ctx, receipt.ID, message); merr != nil {
			s.logger.WithFields(logrus.Fields{
				"module":     "receipt",
				"receipt_id": receipt.ID.String(),
			}).Error("failed to record receipt error status: ", merr)
		}
		return err
	}
	return nil
}

func (s *receiptService) runPipeline(ctx context.Context, receipt *entities.Receipt) error {
	objectKey := s.s3.GetObjectKeyFromLink(receipt.ImageURL)
	imageBytes, mimeType, err := s.s3.DownloadFile(objectKey)
	if err != nil {
		return fmt.Errorf("failed to fetch receipt image: %w", err)
	}

	// The extraction call blocks on network for seconds; it must never run
	// inside an open write transaction.
	extracted, err := s.extractor.ExtractReceipt(ctx, imageBytes, mimeType)
	if err != nil {
		return err
	}

	needsVerification, err := ocr.ValidateTotals(extracted)
	if err != nil {
		return err
	}

	if extracted.ShopName != "" {
		shop, err := s.receiptRepository.GetOrCreateShop(ctx, extracted.ShopName, extracted.ShopAddress)
		if err != nil {
			return err
		}
		shopID := shop.ID
		receipt.ShopID = &shopID
	}
	declaredTotal := extracted.DeclaredTotal
	receipt.DeclaredTotal = &declaredTotal
	receipt.Currency = extracted.Currency
	receipt.PurchasedAt = extracted.PurchasedAt
	if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
		return err
	}

	userID := receipt.UserID
	opts := normalization.NormalizeOptions{
		ShopID:         receipt.ShopID,
		ShopName:       extracted.ShopName,
		UserID:         &userID,
		PersistAliases: true,
	}

	lowConfidence := needsVerification
	var lineItems []*entities.LineItem
	for _, raw := range extracted.Items {
		if raw.Name == "" || raw.Quantity.Sign() <= 0 || raw.TotalPrice.Sign() < 0 {
			// Malformed item; reject it and continue the batch, but the
			// receipt is no longer trustworthy as a whole.
			s.logger.WithFields(logrus.Fields{
				"module":     "receipt",
				"receipt_id": receipt.ID.String(),
				"item":       raw.Name,
			}).Warn("skipping malformed line item")
			lowConfidence = true
			continue
		}

		normalized, err := s.normalizer.NormalizeItem(ctx, raw, opts)
		if err != nil {
			// One broken item must not fail the receipt.
			s.logger.WithFields(logrus.Fields{
				"module":     "receipt",
				"receipt_id": receipt.ID.String(),
				"item":       raw.Name,
			}).Warn("skipping item that failed normalization: ", err)
			lowConfidence = true
			continue
		}
		if !normalized.Confident {
			lowConfidence = true
		}

		categoryID := normalized.CategoryID
		lineItems = append(lineItems, &entities.LineItem{
			ID:                 uuid.New(),
			ReceiptID:          receipt.ID,
			ProductID:          normalized.ProductID,
			CategoryID:         &categoryID,
			OriginalText:       raw.Name,
			NormalizedName:     normalized.Name,
			Quantity:           normalized.Quantity,
			UnitPrice:          normalized.UnitPrice,
			TotalPrice:         normalized.TotalPrice,
			Confidence:         normalized.Confidence,
			IsVerified:         false,
			VerificationSource: entities.VerificationSourceAuto,
		})
	}

	if len(lineItems) == 0 {
		return domain.ErrEmptyExtraction
	}
	if err := s.receiptRepository.CreateLineItems(ctx, lineItems); err != nil {
		return err
	}

	status := entities.ReceiptStatusCompleted
	if lowConfidence {
		status = entities.ReceiptStatusToVerify
	}
	return s.receiptRepository.SetStatus(ctx, receipt.ID, status)
}

func (s *receiptService) GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]domain.ReceiptResponse, int64, error) {
	receipts, count, err := s.receiptRepository.GetReceipts(ctx, userID, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	var response []domain.ReceiptResponse
	for _, r := range receipts {
		response = append(response, toReceiptResponse(r, false))
	}
	return response, count, nil
}

func (s *receiptService) GetReceiptByID(ctx context.Context, id string, userID string) (domain.ReceiptResponse, error) {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ReceiptResponse{}, domain.ErrReceiptNotFound
		}
		return domain.ReceiptResponse{}, err
	}

	if receipt.UserID.String() != userID {
		return domain.ReceiptResponse{}, domain.ErrUnauthorizedAccess
	}

	return toReceiptResponse(receipt, true), nil
}

// VerifyLineItem applies a user correction to one line item and feeds it to
// the learning engine.
func (s *receiptService) VerifyLineItem(ctx context.Context, itemID string, req domain.VerifyLineItemRequest, userID string) error {
	item, err := s.receiptRepository.GetLineItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrLineItemNotFound
		}
		return err
	}

	if item.Receipt == nil || item.Receipt.UserID.String() != userID {
		return domain.ErrUnauthorizedAccess
	}

	var categoryID *uuid.UUID
	if req.CategoryID != "" {
		parsed, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return domain.ErrParseUUID
		}
		categoryID = &parsed
		item.CategoryID = categoryID
	}

	item.NormalizedName = req.Name
	// The correction supersedes whatever product the pipeline linked.
	// Candidate promotion only gathers unlinked items, so a stale link kept
	// here would count toward a candidate it can never satisfy.
	item.ProductID = nil
	item.IsVerified = true
	item.VerificationSource = entities.VerificationSourceUser
	if err := s.receiptRepository.SaveLineItem(ctx, item); err != nil {
		return err
	}

	userUUID := item.Receipt.UserID
	return s.learner.ProcessConfirmation(ctx, learning.Confirmation{
		LineItem:   item,
		EditedText: req.Name,
		CategoryID: categoryID,
		ShopID:     item.Receipt.ShopID,
		UserID:     &userUUID,
	})
}

func toReceiptResponse(r *entities.Receipt, withItems bool) domain.ReceiptResponse {
	resp := domain.ReceiptResponse{
		ID:            r.ID.String(),
		Status:        r.Status,
		ImageURL:      r.ImageURL,
		DeclaredTotal: r.DeclaredTotal,
		Currency:      r.Currency,
		PurchasedAt:   r.PurchasedAt,
		ErrorMessage:  r.ErrorMessage,
		CreatedAt:     r.CreatedAt,
	}
	if r.ShopID != nil {
		shopID := r.ShopID.String()
		resp.ShopID = &shopID
	}
	if !withItems {
		return resp
	}

	for _, item := range r.LineItems {
		itemResp := domain.LineItemResponse{
			ID:                 item.ID.String(),
			OriginalText:       item.OriginalText,
			NormalizedName:     item.NormalizedName,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			TotalPrice:         item.TotalPrice,
			Confidence:         item.Confidence,
			IsVerified:         item.IsVerified,
			VerificationSource: item.VerificationSource,
		}
		if item.ProductID != nil {
			productID := item.ProductID.String()
			itemResp.ProductID = &productID
		}
		if item.CategoryID != nil {
			categoryID := item.CategoryID.String()
			itemResp.CategoryID = &categoryID
		}
		resp.LineItems = append(resp.LineItems, itemResp)
	}
	return resp
}
