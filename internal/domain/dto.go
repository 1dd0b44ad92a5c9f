package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/finance"
)

// DTOs for API responses

type ClientDTO struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	CompanyName string       `json:"companyName,omitempty"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Address     string       `json:"address,omitempty"`
	Tags        []string     `json:"tags"`
	Status      ClientStatus `json:"status"`
	LegacyRef   string       `json:"legacyRef,omitempty"`
	CreatedAt   string       `json:"createdAt"` // ISO 8601
	UpdatedAt   string       `json:"updatedAt"` // ISO 8601
}

type FinancialDetailsDTO struct {
	TotalCost       *float64 `json:"totalCost"`
	AdvanceReceived float64  `json:"advanceReceived"`
	RemainingAmount *float64 `json:"remainingAmount"`
	IncludeGST      bool     `json:"includeGST"`
}

type ProjectDTO struct {
	ID               uuid.UUID                `json:"id"`
	Name             string                   `json:"name"`
	Code             string                   `json:"code,omitempty"`
	Description      string                   `json:"description,omitempty"`
	ClientID         *uuid.UUID               `json:"clientId,omitempty"`
	ClientName       string                   `json:"clientName,omitempty"`
	Status           ProjectStatus            `json:"status"`
	StartDate        *string                  `json:"startDate,omitempty"`
	EndDate          *string                  `json:"endDate,omitempty"`
	Budget           float64                  `json:"budget"`
	FinancialDetails FinancialDetailsDTO      `json:"financialDetails"`
	Summary          finance.FinancialSummary `json:"summary"`
	CreatedAt        string                   `json:"createdAt"`
	UpdatedAt        string                   `json:"updatedAt"`
}

// ProjectDetailDTO includes the project with its installment plan, cost history and receipts
type ProjectDetailDTO struct {
	ProjectDTO
	BaseCost        float64             `json:"baseCost"`
	InstallmentPlan []InstallmentDTO    `json:"installmentPlan"`
	CostHistory     []CostChangeDTO     `json:"costHistory"`
	Receipts        []PaymentReceiptDTO `json:"receipts"`
}

// ProjectSummaryDTO is the financial reconciliation view of a project
type ProjectSummaryDTO struct {
	ProjectID uuid.UUID                `json:"projectId"`
	BaseCost  float64                  `json:"baseCost"`
	Summary   finance.FinancialSummary `json:"summary"`
	Totals    finance.Totals           `json:"installmentTotals"`
}

type InstallmentDTO struct {
	ID            uuid.UUID         `json:"id"`
	ProjectID     uuid.UUID         `json:"projectId"`
	Amount        float64           `json:"amount"`
	DueDate       string            `json:"dueDate"` // YYYY-MM-DD
	Status        InstallmentStatus `json:"status"`
	DisplayStatus InstallmentStatus `json:"displayStatus"`
	Notes         string            `json:"notes,omitempty"`
	AccountID     *uuid.UUID        `json:"accountId,omitempty"`
	PaidAt        *string           `json:"paidAt,omitempty"`
	CreatedAt     string            `json:"createdAt"`
}

type CostChangeDTO struct {
	ID            uuid.UUID `json:"id"`
	PreviousCost  float64   `json:"previousCost"`
	NewCost       float64   `json:"newCost"`
	Reason        string    `json:"reason"`
	ChangedByID   string    `json:"changedById"`
	ChangedByName string    `json:"changedByName,omitempty"`
	ChangedAt     string    `json:"changedAt"`
}

type PaymentReceiptDTO struct {
	ID             uuid.UUID     `json:"id"`
	ProjectID      uuid.UUID     `json:"projectId"`
	Amount         float64       `json:"amount"`
	ReceivedAt     string        `json:"receivedAt"`
	Notes          string        `json:"notes,omitempty"`
	Status         ReceiptStatus `json:"status"`
	Source         ReceiptSource `json:"source"`
	ERPReference   string        `json:"erpReference,omitempty"`
	AccountID      *uuid.UUID    `json:"accountId,omitempty"`
	HasAttachment  bool          `json:"hasAttachment"`
	AttachmentName string        `json:"attachmentName,omitempty"`
	ReviewedAt     *string       `json:"reviewedAt,omitempty"`
	CreatedAt      string        `json:"createdAt"`
}

type AccountDTO struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	Number    string      `json:"number,omitempty"`
	Balance   float64     `json:"balance"`
	CreatedAt string      `json:"createdAt"`
}

// DashboardDTO aggregates figures over the selected period
type DashboardDTO struct {
	Period            string                   `json:"period"`
	From              *string                  `json:"from,omitempty"`
	To                *string                  `json:"to,omitempty"`
	ClientCount       int                      `json:"clientCount"`
	ProjectCount      int                      `json:"projectCount"`
	ActiveProjects    int                      `json:"activeProjects"`
	Financials        finance.FinancialSummary `json:"financials"`
	OverdueCount      int                      `json:"overdueCount"`
	OverdueAmount     float64                  `json:"overdueAmount"`
	PendingReceipts   int                      `json:"pendingReceipts"`
	UpcomingDueAmount float64                  `json:"upcomingDueAmount"`
}

// ImportResultDTO reports the outcome of a legacy import
type ImportResultDTO struct {
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Skipped int               `json:"skipped"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Pagination
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// FlexibleAmount accepts a JSON number or a numeric string and keeps the raw
// text, so the finance validators decide what counts as a valid amount.
type FlexibleAmount string

// UnmarshalJSON implements json.Unmarshaler
func (a *FlexibleAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = FlexibleAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or numeric string")
	}
	*a = FlexibleAmount(n.String())
	return nil
}

// Request DTOs

type CreateClientRequest struct {
	Name        string       `json:"name" validate:"required,max=200"`
	CompanyName string       `json:"companyName,omitempty" validate:"max=200"`
	Email       string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string       `json:"phone,omitempty" validate:"max=50"`
	Address     string       `json:"address,omitempty" validate:"max=500"`
	Tags        []string     `json:"tags,omitempty" validate:"dive,max=50"`
	Status      ClientStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive lead"`
}

type UpdateClientRequest struct {
	Name        string       `json:"name" validate:"required,max=200"`
	CompanyName string       `json:"companyName,omitempty" validate:"max=200"`
	Email       string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string       `json:"phone,omitempty" validate:"max=50"`
	Address     string       `json:"address,omitempty" validate:"max=500"`
	Tags        []string     `json:"tags,omitempty" validate:"dive,max=50"`
	Status      ClientStatus `json:"status" validate:"required,oneof=active inactive lead"`
}

type CreateProjectRequest struct {
	Name            string        `json:"name" validate:"required,max=200"`
	Code            string        `json:"code,omitempty" validate:"max=50"`
	Description     string        `json:"description,omitempty"`
	ClientID        *uuid.UUID    `json:"clientId,omitempty"`
	Status          ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=planning active on_hold completed cancelled"`
	StartDate       string        `json:"startDate,omitempty"`
	EndDate         string        `json:"endDate,omitempty"`
	Budget          float64       `json:"budget" validate:"gte=0"`
	TotalCost       *float64      `json:"totalCost,omitempty" validate:"omitempty,gte=0"`
	AdvanceReceived float64       `json:"advanceReceived" validate:"gte=0"`
	IncludeGST      bool          `json:"includeGST"`
}

type UpdateProjectRequest struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Code        string        `json:"code,omitempty" validate:"max=50"`
	Description string        `json:"description,omitempty"`
	ClientID    *uuid.UUID    `json:"clientId,omitempty"`
	Status      ProjectStatus `json:"status" validate:"required,oneof=planning active on_hold completed cancelled"`
	StartDate   string        `json:"startDate,omitempty"`
	EndDate     string        `json:"endDate,omitempty"`
	Budget      float64       `json:"budget" validate:"gte=0"`
}

// UpdateFinancialsRequest is the partial financialDetails update
type UpdateFinancialsRequest struct {
	TotalCost       *float64 `json:"totalCost" validate:"omitempty,gte=0"`
	AdvanceReceived *float64 `json:"advanceReceived" validate:"omitempty,gte=0"`
	IncludeGST      *bool    `json:"includeGST"`
	RemainingAmount *float64 `json:"remainingAmount" validate:"omitempty,gte=0"`
}

// UpdateCostRequest is a cost change with its justification
type UpdateCostRequest struct {
	NewCost FlexibleAmount `json:"newCost"`
	Reason  string         `json:"reason"`
}

// InstallmentRequest adds or edits an installment
type InstallmentRequest struct {
	Amount    FlexibleAmount `json:"amount"`
	DueDate   string         `json:"dueDate"`
	Notes     string         `json:"notes,omitempty"`
	Status    string         `json:"status,omitempty"`
	AccountID string         `json:"accountId,omitempty"`
}

type CreateReceiptRequest struct {
	Amount     FlexibleAmount `json:"amount"`
	ReceivedAt string         `json:"receivedAt"`
	Notes      string         `json:"notes,omitempty"`
	AccountID  *uuid.UUID     `json:"accountId,omitempty"`
}

type CreateAccountRequest struct {
	Name   string      `json:"name" validate:"required,max=200"`
	Type   AccountType `json:"type" validate:"required,oneof=bank cash"`
	Number string      `json:"number,omitempty" validate:"max=50"`
}
