package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the caller did not
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ClientStatus represents the status of a client
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusLead     ClientStatus = "lead"
)

// Client is an organization or person projects are delivered for
type Client struct {
	BaseModel
	Name        string       `gorm:"type:varchar(200);not null;index"`
	CompanyName string       `gorm:"type:varchar(200);column:company_name"`
	Email       string       `gorm:"type:varchar(255)"`
	Phone       string       `gorm:"type:varchar(50)"`
	Address     string       `gorm:"type:varchar(500)"`
	Tags        []string     `gorm:"type:text;serializer:json"`
	Status      ClientStatus `gorm:"type:varchar(50);not null;default:'active';index"`
	LegacyRef   *string      `gorm:"type:varchar(100);uniqueIndex;column:legacy_ref"`
	Projects    []Project    `gorm:"foreignKey:ClientID"`
}

// ProjectStatus represents the status of a project
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// FinancialDetails holds the contract money figures of a project.
// AdvanceReceived is the cumulative amount received: the initial advance,
// approved ad-hoc receipts and installments already marked paid.
type FinancialDetails struct {
	TotalCost       *float64 `gorm:"type:decimal(15,2);column:total_cost"`
	AdvanceReceived float64  `gorm:"type:decimal(15,2);not null;default:0;column:advance_received"`
	RemainingAmount *float64 `gorm:"type:decimal(15,2);column:remaining_amount"`
	IncludeGST      bool     `gorm:"not null;default:false;column:include_gst"`
}

// Project represents contracted work for a client
type Project struct {
	BaseModel
	Name             string           `gorm:"type:varchar(200);not null;index"`
	Code             string           `gorm:"type:varchar(50);index:idx_projects_code,unique,where:code <> ''"` // Reference used by the ERP for payments, unique when set
	Description      string           `gorm:"type:text"`
	ClientID         *uuid.UUID       `gorm:"type:uuid;index;column:client_id"`
	Client           *Client          `gorm:"foreignKey:ClientID"`
	ClientName       string           `gorm:"type:varchar(200);column:client_name"`
	Status           ProjectStatus    `gorm:"type:varchar(50);not null;default:'planning';index"`
	StartDate        *time.Time       `gorm:"type:date;column:start_date"`
	EndDate          *time.Time       `gorm:"type:date;column:end_date"`
	Budget           float64          `gorm:"type:decimal(15,2);not null;default:0"`
	FinancialDetails FinancialDetails `gorm:"embedded"`
	LegacyRef        *string          `gorm:"type:varchar(100);uniqueIndex;column:legacy_ref"`
	Installments     []Installment    `gorm:"foreignKey:ProjectID"`
	CostHistory      []CostChange     `gorm:"foreignKey:ProjectID"`
	Receipts         []PaymentReceipt `gorm:"foreignKey:ProjectID"`
}

// InstallmentStatus is the stored status of an installment.
// Overdue is never stored; it is derived when displaying.
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
)

// Installment is a scheduled payment against a project's total cost
type Installment struct {
	BaseModel
	ProjectID uuid.UUID         `gorm:"type:uuid;not null;index;column:project_id"`
	Amount    float64           `gorm:"type:decimal(15,2);not null"`
	DueDate   time.Time         `gorm:"type:date;not null;index;column:due_date"`
	Status    InstallmentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Notes     string            `gorm:"type:text"`
	AccountID *uuid.UUID        `gorm:"type:uuid;column:account_id"` // Set only for manually recorded, already settled payments
	Account   *Account          `gorm:"foreignKey:AccountID"`
	PaidAt    *time.Time        `gorm:"column:paid_at"`
}

// CostChange is an append-only audit entry for a project cost edit
type CostChange struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index;column:project_id"`
	PreviousCost  float64   `gorm:"type:decimal(15,2);not null;column:previous_cost"`
	NewCost       float64   `gorm:"type:decimal(15,2);not null;column:new_cost"`
	Reason        string    `gorm:"type:text;not null"`
	ChangedByID   string    `gorm:"type:varchar(100);not null;column:changed_by_id"`
	ChangedByName string    `gorm:"type:varchar(200);column:changed_by_name"`
	ChangedAt     time.Time `gorm:"not null;index;column:changed_at"`
}

// BeforeCreate assigns an ID when the caller did not
func (c *CostChange) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ReceiptStatus represents the approval state of an ad-hoc payment receipt
type ReceiptStatus string

const (
	ReceiptStatusPending  ReceiptStatus = "pending"
	ReceiptStatusApproved ReceiptStatus = "approved"
	ReceiptStatusRejected ReceiptStatus = "rejected"
)

// ReceiptSource tells where a receipt was recorded from
type ReceiptSource string

const (
	ReceiptSourceManual ReceiptSource = "manual"
	ReceiptSourceERP    ReceiptSource = "erp"
)

// PaymentReceipt is a payment received outside the installment schedule.
// Only approved receipts count towards AdvanceReceived.
type PaymentReceipt struct {
	BaseModel
	ProjectID      uuid.UUID     `gorm:"type:uuid;not null;index;column:project_id"`
	Amount         float64       `gorm:"type:decimal(15,2);not null"`
	ReceivedAt     time.Time     `gorm:"not null;column:received_at"`
	Notes          string        `gorm:"type:text"`
	Status         ReceiptStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Source         ReceiptSource `gorm:"type:varchar(20);not null;default:'manual'"`
	ERPReference   *string       `gorm:"type:varchar(100);uniqueIndex;column:erp_reference"`
	AccountID      *uuid.UUID    `gorm:"type:uuid;column:account_id"`
	Account        *Account      `gorm:"foreignKey:AccountID"`
	AttachmentPath string        `gorm:"type:varchar(500);column:attachment_path"`
	AttachmentName string        `gorm:"type:varchar(255);column:attachment_name"`
	AttachmentType string        `gorm:"type:varchar(100);column:attachment_type"`
	RecordedByID   string        `gorm:"type:varchar(100);column:recorded_by_id"`
	ReviewedByID   string        `gorm:"type:varchar(100);column:reviewed_by_id"`
	ReviewedAt     *time.Time    `gorm:"column:reviewed_at"`
}

// AccountType represents the kind of finance account
type AccountType string

const (
	AccountTypeBank AccountType = "bank"
	AccountTypeCash AccountType = "cash"
)

// Account is a finance account settled payments are credited to
type Account struct {
	BaseModel
	Name    string      `gorm:"type:varchar(200);not null;uniqueIndex"`
	Type    AccountType `gorm:"type:varchar(20);not null;default:'bank'"`
	Number  string      `gorm:"type:varchar(50)"`
	Balance float64     `gorm:"type:decimal(15,2);not null;default:0"`
}

// UserRoleType represents a role granted through the access token
type UserRoleType string

const (
	RoleAdmin      UserRoleType = "admin"
	RoleViewer     UserRoleType = "viewer"
	RoleAPIService UserRoleType = "api_service"
)
