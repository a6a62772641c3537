package domain

import (
	"errors"
	"mime/multipart"
	"time"

	"github.com/shopspring/decimal"
)

var (
	MessageSuccessUploadReceipt   = "receipt uploaded successfully"
	MessageSuccessGetReceipts     = "receipts retrieved successfully"
	MessageSuccessGetReceipt      = "receipt retrieved successfully"
	MessageSuccessProcessReceipt  = "receipt processing triggered"
	MessageSuccessVerifyLineItem  = "line item verified successfully"

	MessageFailedUploadReceipt  = "failed to upload receipt"
	MessageFailedGetReceipts    = "failed to retrieve receipts"
	MessageFailedGetReceipt     = "failed to retrieve receipt"
	MessageFailedProcessReceipt = "failed to process receipt"
	MessageFailedVerifyLineItem = "failed to verify line item"

	ErrReceiptNotFound         = errors.New("receipt not found")
	ErrLineItemNotFound        = errors.New("line item not found")
	ErrReceiptNotClaimed       = errors.New("receipt already claimed by another worker")
	ErrTotalMismatch           = errors.New("extracted items do not add up to the declared total")
	ErrUnauthorizedAccess      = errors.New("unauthorized access to receipt")
	ErrInvalidImageFormat      = errors.New("invalid image format")
	ErrExtractionFailed        = errors.New("receipt extraction failed")
	ErrEmptyExtraction         = errors.New("no items extracted from receipt")
)

type (
	UploadReceiptRequest struct {
		ReceiptImage *multipart.FileHeader `json:"receipt_image" form:"receipt_image" validate:"required"`
	}

	UploadReceiptResponse struct {
		ReceiptID string `json:"receipt_id"`
		ImageURL  string `json:"image_url"`
		Status    string `json:"status"`
		Reused    bool   `json:"reused"`
	}

	LineItemResponse struct {
		ID                 string           `json:"id"`
		OriginalText       string           `json:"original_text"`
		NormalizedName     string           `json:"normalized_name"`
		Quantity           decimal.Decimal  `json:"quantity"`
		UnitPrice          *decimal.Decimal `json:"unit_price,omitempty"`
		TotalPrice         decimal.Decimal  `json:"total_price"`
		ProductID          *string          `json:"product_id,omitempty"`
		CategoryID         *string          `json:"category_id,omitempty"`
		Confidence         float64          `json:"confidence"`
		IsVerified         bool             `json:"is_verified"`
		VerificationSource string           `json:"verification_source"`
	}

	ReceiptResponse struct {
		ID            string             `json:"id"`
		Status        string             `json:"status"`
		ImageURL      string             `json:"image_url"`
		ShopID        *string            `json:"shop_id,omitempty"`
		DeclaredTotal *decimal.Decimal   `json:"declared_total,omitempty"`
		Currency      string             `json:"currency,omitempty"`
		PurchasedAt   *time.Time         `json:"purchased_at,omitempty"`
		ErrorMessage  string             `json:"error_message,omitempty"`
		LineItems     []LineItemResponse `json:"line_items,omitempty"`
		CreatedAt     time.Time          `json:"created_at"`
	}

	VerifyLineItemRequest struct {
		Name       string `json:"name" validate:"required"`
		CategoryID string `json:"category_id" validate:"omitempty,uuid"`
	}
)
