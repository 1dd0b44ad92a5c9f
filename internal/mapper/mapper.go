package mapper

import (
	"time"

	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/finance"
)

const (
	timestampLayout = "2006-01-02T15:04:05Z"
	dateLayout      = "2006-01-02"
)

// ToClientDTO converts Client to ClientDTO
func ToClientDTO(client *domain.Client) domain.ClientDTO {
	tags := client.Tags
	if tags == nil {
		tags = []string{}
	}
	dto := domain.ClientDTO{
		ID:          client.ID,
		Name:        client.Name,
		CompanyName: client.CompanyName,
		Email:       client.Email,
		Phone:       client.Phone,
		Address:     client.Address,
		Tags:        tags,
		Status:      client.Status,
		CreatedAt:   formatTimestamp(client.CreatedAt),
		UpdatedAt:   formatTimestamp(client.UpdatedAt),
	}
	if client.LegacyRef != nil {
		dto.LegacyRef = *client.LegacyRef
	}
	return dto
}

// ToFinancials extracts the calculator input from a project. Installments,
// cost history and receipts must have been preloaded.
func ToFinancials(project *domain.Project) finance.ProjectFinancials {
	fd := project.FinancialDetails
	received := fd.AdvanceReceived

	plan := make([]finance.Installment, len(project.Installments))
	for i, inst := range project.Installments {
		plan[i] = toFinanceInstallment(&inst)
	}

	history := make([]finance.CostChange, len(project.CostHistory))
	for i, c := range project.CostHistory {
		history[i] = finance.CostChange{
			PreviousCost: c.PreviousCost,
			NewCost:      c.NewCost,
			ChangedAt:    c.ChangedAt,
		}
	}

	approved := 0.0
	for _, r := range project.Receipts {
		if r.Status == domain.ReceiptStatusApproved {
			approved += r.Amount
		}
	}

	return finance.ProjectFinancials{
		TotalCost:        fd.TotalCost,
		Budget:           project.Budget,
		AdvanceReceived:  &received,
		RemainingAmount:  fd.RemainingAmount,
		Installments:     plan,
		CostHistory:      history,
		ApprovedReceipts: &approved,
	}
}

// ToProjectDTO converts Project to ProjectDTO including its computed summary
func ToProjectDTO(project *domain.Project) domain.ProjectDTO {
	fd := project.FinancialDetails
	return domain.ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Code:        project.Code,
		Description: project.Description,
		ClientID:    project.ClientID,
		ClientName:  project.ClientName,
		Status:      project.Status,
		StartDate:   formatDatePtr(project.StartDate),
		EndDate:     formatDatePtr(project.EndDate),
		Budget:      project.Budget,
		FinancialDetails: domain.FinancialDetailsDTO{
			TotalCost:       fd.TotalCost,
			AdvanceReceived: fd.AdvanceReceived,
			RemainingAmount: fd.RemainingAmount,
			IncludeGST:      fd.IncludeGST,
		},
		Summary:   finance.Summarize(ToFinancials(project)),
		CreatedAt: formatTimestamp(project.CreatedAt),
		UpdatedAt: formatTimestamp(project.UpdatedAt),
	}
}

// ToProjectDetailDTO converts Project to ProjectDetailDTO. The installment
// plan is ordered by due date and labelled with its display status at now.
func ToProjectDetailDTO(project *domain.Project, now time.Time) domain.ProjectDetailDTO {
	installments := ToInstallmentDTOs(project.Installments, now)

	history := make([]domain.CostChangeDTO, len(project.CostHistory))
	for i := range project.CostHistory {
		history[i] = ToCostChangeDTO(&project.CostHistory[i])
	}

	receipts := make([]domain.PaymentReceiptDTO, len(project.Receipts))
	for i := range project.Receipts {
		receipts[i] = ToPaymentReceiptDTO(&project.Receipts[i])
	}

	return domain.ProjectDetailDTO{
		ProjectDTO:      ToProjectDTO(project),
		BaseCost:        finance.BaseCost(ToFinancials(project)),
		InstallmentPlan: installments,
		CostHistory:     history,
		Receipts:        receipts,
	}
}

// ToProjectSummaryDTO builds the reconciliation view of a project
func ToProjectSummaryDTO(project *domain.Project) domain.ProjectSummaryDTO {
	financials := ToFinancials(project)
	return domain.ProjectSummaryDTO{
		ProjectID: project.ID,
		BaseCost:  finance.BaseCost(financials),
		Summary:   finance.Summarize(financials),
		Totals:    finance.InstallmentTotals(financials.Installments),
	}
}

// ToInstallmentDTO converts Installment to InstallmentDTO
func ToInstallmentDTO(inst *domain.Installment, now time.Time) domain.InstallmentDTO {
	display := finance.DisplayStatus(toFinanceInstallment(inst), now)
	return domain.InstallmentDTO{
		ID:            inst.ID,
		ProjectID:     inst.ProjectID,
		Amount:        inst.Amount,
		DueDate:       inst.DueDate.Format(dateLayout),
		Status:        inst.Status,
		DisplayStatus: domain.InstallmentStatus(display),
		Notes:         inst.Notes,
		AccountID:     inst.AccountID,
		PaidAt:        formatTimestampPtr(inst.PaidAt),
		CreatedAt:     formatTimestamp(inst.CreatedAt),
	}
}

// ToInstallmentDTOs converts and orders an installment plan by due date
func ToInstallmentDTOs(plan []domain.Installment, now time.Time) []domain.InstallmentDTO {
	sorted := make([]domain.Installment, len(plan))
	copy(sorted, plan)
	finance.SortByDueDate(sorted, func(i domain.Installment) time.Time { return i.DueDate })

	dtos := make([]domain.InstallmentDTO, len(sorted))
	for i := range sorted {
		dtos[i] = ToInstallmentDTO(&sorted[i], now)
	}
	return dtos
}

// ToCostChangeDTO converts CostChange to CostChangeDTO
func ToCostChangeDTO(change *domain.CostChange) domain.CostChangeDTO {
	return domain.CostChangeDTO{
		ID:            change.ID,
		PreviousCost:  change.PreviousCost,
		NewCost:       change.NewCost,
		Reason:        change.Reason,
		ChangedByID:   change.ChangedByID,
		ChangedByName: change.ChangedByName,
		ChangedAt:     formatTimestamp(change.ChangedAt),
	}
}

// ToPaymentReceiptDTO converts PaymentReceipt to PaymentReceiptDTO
func ToPaymentReceiptDTO(receipt *domain.PaymentReceipt) domain.PaymentReceiptDTO {
	dto := domain.PaymentReceiptDTO{
		ID:             receipt.ID,
		ProjectID:      receipt.ProjectID,
		Amount:         receipt.Amount,
		ReceivedAt:     formatTimestamp(receipt.ReceivedAt),
		Notes:          receipt.Notes,
		Status:         receipt.Status,
		Source:         receipt.Source,
		AccountID:      receipt.AccountID,
		HasAttachment:  receipt.AttachmentPath != "",
		AttachmentName: receipt.AttachmentName,
		ReviewedAt:     formatTimestampPtr(receipt.ReviewedAt),
		CreatedAt:      formatTimestamp(receipt.CreatedAt),
	}
	if receipt.ERPReference != nil {
		dto.ERPReference = *receipt.ERPReference
	}
	return dto
}

// ToAccountDTO converts Account to AccountDTO
func ToAccountDTO(account *domain.Account) domain.AccountDTO {
	return domain.AccountDTO{
		ID:        account.ID,
		Name:      account.Name,
		Type:      account.Type,
		Number:    account.Number,
		Balance:   account.Balance,
		CreatedAt: formatTimestamp(account.CreatedAt),
	}
}

func toFinanceInstallment(inst *domain.Installment) finance.Installment {
	return finance.Installment{
		Amount:  inst.Amount,
		DueDate: inst.DueDate,
		Status:  finance.Status(inst.Status),
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
