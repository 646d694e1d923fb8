// Package transport defines request/response DTOs for the payments module.
package transport

import "github.com/google/uuid"

// CreatePaymentRequest opens a subscription payment for one of the caller's
// services.
type CreatePaymentRequest struct {
	ServiceID uuid.UUID `json:"serviceId" validate:"required"`
}

// WebhookRequest is the settlement callback from the payment provider.
type WebhookRequest struct {
	ExternalRef string `json:"externalRef" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=completed failed"`
}

// ListPaymentsRequest pages through a payment listing.
type ListPaymentsRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// PaymentResponse is the public representation of a payment.
type PaymentResponse struct {
	ID                uuid.UUID `json:"id"`
	ProviderProfileID uuid.UUID `json:"providerProfileId"`
	ServiceID         uuid.UUID `json:"serviceId"`
	AmountCents       int64     `json:"amountCents"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	ExternalRef       string    `json:"externalRef,omitempty"`
	CompletedAt       *string   `json:"completedAt,omitempty"`
	CreatedAt         string    `json:"createdAt"`
}

// PaymentListResponse is a paginated payment listing.
type PaymentListResponse struct {
	Items    []PaymentResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// EarningsResponse summarizes a provider's settled payments.
type EarningsResponse struct {
	TotalCents int64 `json:"totalCents"`
	Completed  int   `json:"completed"`
}
