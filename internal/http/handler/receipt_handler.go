package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/service"
	"go.uber.org/zap"
)

type ReceiptHandler struct {
	receiptService *service.ReceiptService
	maxUploadMB    int64
	logger         *zap.Logger
}

func NewReceiptHandler(receiptService *service.ReceiptService, maxUploadMB int64, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		maxUploadMB:    maxUploadMB,
		logger:         logger,
	}
}

// Create godoc
// @Summary Record payment receipt
// @Description Record a pending receipt. Accepts JSON, or multipart/form-data with the same fields plus an optional file.
// @Tags Receipts
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param request body domain.CreateReceiptRequest false "Receipt data (JSON)"
// @Param file formData file false "Attachment (multipart)"
// @Success 201 {object} domain.PaymentReceiptDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/receipts [post]
func (h *ReceiptHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseID(w, r, "id", "project")
	if !ok {
		return
	}

	var req domain.CreateReceiptRequest
	var attachment *service.Attachment

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)
		if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
			return
		}

		req.Amount = domain.FlexibleAmount(r.FormValue("amount"))
		req.ReceivedAt = r.FormValue("receivedAt")
		req.Notes = r.FormValue("notes")
		if raw := r.FormValue("accountId"); raw != "" {
			accountID, err := uuid.Parse(raw)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid accountId: must be a valid UUID")
				return
			}
			req.AccountID = &accountID
		}

		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			attachment = &service.Attachment{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        file,
			}
		case err != http.ErrMissingFile:
			respondWithError(w, http.StatusBadRequest, "Invalid file upload")
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	receipt, err := h.receiptService.Create(r.Context(), projectID, &req, attachment)
	if err != nil {
		respondServiceError(w, h.logger, err, "create receipt")
		return
	}

	respondJSON(w, http.StatusCreated, receipt)
}

// ListByProject godoc
// @Summary List project receipts
// @Description Receipts of a project, most recent first
// @Tags Receipts
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {array} domain.PaymentReceiptDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/receipts [get]
func (h *ReceiptHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseID(w, r, "id", "project")
	if !ok {
		return
	}

	receipts, err := h.receiptService.ListByProject(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list receipts")
		return
	}

	respondJSON(w, http.StatusOK, receipts)
}

// Approve godoc
// @Summary Approve receipt
// @Description Approve a pending receipt, crediting the project and its account
// @Tags Receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID" format(uuid)
// @Success 200 {object} domain.PaymentReceiptDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /receipts/{id}/approve [post]
func (h *ReceiptHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "receipt")
	if !ok {
		return
	}

	receipt, err := h.receiptService.Approve(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "approve receipt")
		return
	}

	respondJSON(w, http.StatusOK, receipt)
}

// Reject godoc
// @Summary Reject receipt
// @Tags Receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID" format(uuid)
// @Success 200 {object} domain.PaymentReceiptDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /receipts/{id}/reject [post]
func (h *ReceiptHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "receipt")
	if !ok {
		return
	}

	receipt, err := h.receiptService.Reject(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "reject receipt")
		return
	}

	respondJSON(w, http.StatusOK, receipt)
}

// DownloadAttachment godoc
// @Summary Download receipt attachment
// @Tags Receipts
// @Produce octet-stream
// @Param id path string true "Receipt ID" format(uuid)
// @Success 200 {file} binary
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /receipts/{id}/attachment [get]
func (h *ReceiptHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "receipt")
	if !ok {
		return
	}

	reader, receipt, err := h.receiptService.DownloadAttachment(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "download attachment")
		return
	}
	defer reader.Close()

	contentType := receipt.AttachmentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := strings.ReplaceAll(receipt.AttachmentName, `"`, "")

	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", contentType)

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("attachment stream interrupted", zap.String("receipt_id", id.String()), zap.Error(err))
	}
}
