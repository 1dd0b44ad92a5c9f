// Package ingest normalizes loosely shaped records exported from the legacy
// backend into canonical client and project records. Field fallbacks are
// resolved here once so nothing downstream needs to know the legacy shapes.
package ingest

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/filter"
)

var (
	ErrMissingID   = errors.New("record has no id")
	ErrMissingName = errors.New("record has no name")
)

// ClientRecord is a normalized legacy client
type ClientRecord struct {
	LegacyRef   string
	Name        string
	CompanyName string
	Email       string
	Phone       string
	Address     string
	Tags        []string
	Status      domain.ClientStatus
	CreatedAt   *time.Time
}

// InstallmentRecord is a normalized legacy installment
type InstallmentRecord struct {
	Amount  float64
	DueDate time.Time
	Status  domain.InstallmentStatus
	Notes   string
	PaidAt  *time.Time
}

// ProjectRecord is a normalized legacy project
type ProjectRecord struct {
	LegacyRef       string
	Name            string
	Code            string
	Description     string
	ClientRef       string
	ClientName      string
	Status          domain.ProjectStatus
	StartDate       *time.Time
	EndDate         *time.Time
	Budget          float64
	TotalCost       *float64
	AdvanceReceived float64
	RemainingAmount *float64
	IncludeGST      bool
	Installments    []InstallmentRecord
	CreatedAt       *time.Time
}

// NormalizeClient maps a legacy client document. Only the id and a name are
// required; dates that cannot be parsed are left unknown.
func NormalizeClient(raw map[string]any, loc *time.Location) (ClientRecord, error) {
	id := Text(raw, "_id", "id")
	if id == "" {
		return ClientRecord{}, ErrMissingID
	}

	name := Text(raw, "name", "companyName", "company")
	if name == "" {
		return ClientRecord{}, ErrMissingName
	}

	return ClientRecord{
		LegacyRef:   id,
		Name:        name,
		CompanyName: Text(raw, "companyName", "company"),
		Email:       strings.ToLower(Text(raw, "email", "contactEmail")),
		Phone:       Text(raw, "phone", "phoneNumber", "mobile"),
		Address:     Text(raw, "address", "location"),
		Tags:        stringList(raw["tags"]),
		Status:      clientStatus(Text(raw, "status")),
		CreatedAt:   date(raw, loc, "createdAt", "created_at", "dateCreated"),
	}, nil
}

// NormalizeProject maps a legacy project document. Financial figures may sit
// at the top level or under financialDetails, as numbers or numeric strings.
func NormalizeProject(raw map[string]any, loc *time.Location) (ProjectRecord, error) {
	id := Text(raw, "_id", "id")
	if id == "" {
		return ProjectRecord{}, ErrMissingID
	}

	name := Text(raw, "name", "projectName", "title")
	if name == "" {
		return ProjectRecord{}, ErrMissingName
	}

	rec := ProjectRecord{
		LegacyRef:   id,
		Name:        name,
		Code:        Text(raw, "code", "projectCode", "reference"),
		Description: Text(raw, "description", "notes"),
		Status:      projectStatus(Text(raw, "status")),
		StartDate:   date(raw, loc, "startDate", "start_date"),
		EndDate:     date(raw, loc, "endDate", "end_date", "deadline"),
		CreatedAt:   date(raw, loc, "createdAt", "created_at"),
	}
	rec.ClientRef, rec.ClientName = clientReference(raw)

	fin, _ := raw["financialDetails"].(map[string]any)
	lookup := func(keys ...string) any {
		if fin != nil {
			if v := firstValue(fin, keys...); v != nil {
				return v
			}
		}
		return firstValue(raw, keys...)
	}

	if v, ok := Money(lookup("budget")); ok {
		rec.Budget = math.Max(0, v)
	}
	if v, ok := Money(lookup("totalCost", "cost", "contractValue")); ok {
		v = math.Max(0, v)
		rec.TotalCost = &v
	}
	if v, ok := Money(lookup("advanceReceived", "advance", "amountReceived")); ok {
		rec.AdvanceReceived = math.Max(0, v)
	}
	if v, ok := Money(lookup("remainingAmount", "remaining", "balance")); ok {
		v = math.Max(0, v)
		rec.RemainingAmount = &v
	}
	if b, ok := lookup("includeGST", "includeGst", "gst").(bool); ok {
		rec.IncludeGST = b
	}

	plan, _ := lookup("installments", "installmentPlan").([]any)
	for _, item := range plan {
		doc, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if inst, ok := normalizeInstallment(doc, loc); ok {
			rec.Installments = append(rec.Installments, inst)
		}
	}

	return rec, nil
}

// normalizeInstallment drops entries without a positive amount or a due date.
// A stored "overdue" status is a display label and imports as pending.
func normalizeInstallment(raw map[string]any, loc *time.Location) (InstallmentRecord, bool) {
	amount, ok := Money(firstValue(raw, "amount", "value"))
	if !ok || amount <= 0 {
		return InstallmentRecord{}, false
	}
	due := date(raw, loc, "dueDate", "due_date", "date")
	if due == nil {
		return InstallmentRecord{}, false
	}

	inst := InstallmentRecord{
		Amount:  amount,
		DueDate: *due,
		Status:  domain.InstallmentStatusPending,
		Notes:   Text(raw, "notes", "description"),
	}
	if strings.EqualFold(Text(raw, "status"), string(domain.InstallmentStatusPaid)) {
		inst.Status = domain.InstallmentStatusPaid
		inst.PaidAt = date(raw, loc, "paidAt", "paidDate")
	}
	return inst, true
}

// clientReference resolves the client as an id, an embedded document or a bare name
func clientReference(raw map[string]any) (ref, name string) {
	switch c := raw["client"].(type) {
	case map[string]any:
		return Text(c, "_id", "id"), Text(c, "name", "companyName", "company")
	case string:
		ref = strings.TrimSpace(c)
	}
	if ref == "" {
		ref = Text(raw, "clientId", "client_id")
	}
	return ref, Text(raw, "clientName", "companyName", "company")
}

// Text returns the first non-empty string-like value among keys
func Text(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// Money parses a number or numeric string. Thousands separators and spaces
// are ignored; non-finite values are rejected.
func Money(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(n))
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func firstValue(raw map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func date(raw map[string]any, loc *time.Location, keys ...string) *time.Time {
	t, ok := filter.ParseDate(filter.RecordDate(raw, keys...), loc)
	if !ok {
		return nil
	}
	return &t
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func clientStatus(s string) domain.ClientStatus {
	switch strings.ToLower(s) {
	case "inactive", "archived":
		return domain.ClientStatusInactive
	case "lead", "prospect":
		return domain.ClientStatusLead
	default:
		return domain.ClientStatusActive
	}
}

func projectStatus(s string) domain.ProjectStatus {
	switch strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(s)) {
	case "active", "in_progress", "ongoing":
		return domain.ProjectStatusActive
	case "on_hold", "paused":
		return domain.ProjectStatusOnHold
	case "completed", "done", "finished":
		return domain.ProjectStatusCompleted
	case "cancelled", "canceled":
		return domain.ProjectStatusCancelled
	default:
		return domain.ProjectStatusPlanning
	}
}
