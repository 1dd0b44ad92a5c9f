package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/straye-as/finance-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartReceipt(t *testing.T, fields map[string]string, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestReceiptHandler_MultipartWithAttachment(t *testing.T) {
	s := newTestServer(t)
	project := createProject(t, s, "Brygge Ålesund", 70000, 0)
	pdf := []byte("%PDF-1.4 kvittering")

	body, contentType := multipartReceipt(t, map[string]string{
		"amount":     "15000",
		"receivedAt": "2025-05-02",
		"notes":      "Vipps transfer",
	}, "kvittering.pdf", "application/pdf", pdf)

	req := httptest.NewRequest(http.MethodPost, "/projects/"+project.ID.String()+"/receipts", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt := decode[domain.PaymentReceiptDTO](t, rec)
	assert.Equal(t, domain.ReceiptStatusPending, receipt.Status)
	assert.True(t, receipt.HasAttachment)
	assert.Equal(t, "kvittering.pdf", receipt.AttachmentName)

	rec = s.do(t, http.MethodGet, "/receipts/"+receipt.ID.String()+"/attachment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="kvittering.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, pdf, rec.Body.Bytes())
}

func TestReceiptHandler_JSONApproveAndReject(t *testing.T) {
	s := newTestServer(t)
	project := createProject(t, s, "Lager Drammen", 50000, 0)
	receiptsPath := "/projects/" + project.ID.String() + "/receipts"

	rec := s.do(t, http.MethodPost, receiptsPath, `{"amount":"10000","receivedAt":"2025-05-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	approved := decode[domain.PaymentReceiptDTO](t, rec)

	rec = s.do(t, http.MethodPost, "/receipts/"+approved.ID.String()+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.ReceiptStatusApproved, decode[domain.PaymentReceiptDTO](t, rec).Status)

	rec = s.do(t, http.MethodPost, "/receipts/"+approved.ID.String()+"/reject", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "a reviewed receipt cannot be reviewed again")

	rec = s.do(t, http.MethodPost, receiptsPath, `{"amount":4000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rejected := decode[domain.PaymentReceiptDTO](t, rec)

	rec = s.do(t, http.MethodPost, "/receipts/"+rejected.ID.String()+"/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/projects/"+project.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[domain.ProjectDetailDTO](t, rec)
	assert.Equal(t, 10000.0, detail.FinancialDetails.AdvanceReceived, "only approved receipts count")

	rec = s.do(t, http.MethodGet, receiptsPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.PaymentReceiptDTO](t, rec), 2)
}

func TestReceiptHandler_Errors(t *testing.T) {
	s := newTestServer(t)
	project := createProject(t, s, "Verksted Bodø", 20000, 0)
	receiptsPath := "/projects/" + project.ID.String() + "/receipts"

	rec := s.do(t, http.MethodPost, receiptsPath, `{"amount":-3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, receiptsPath, `{"amount":300,"receivedAt":"yesterday-ish"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, receiptsPath, `{"amount":300,"accountId":"5d9c1e2f-3a4b-4c5d-8e6f-7a8b9c0d1e2f"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, receiptsPath, `{"amount":300}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	noFile := decode[domain.PaymentReceiptDTO](t, rec)

	rec = s.do(t, http.MethodGet, "/receipts/"+noFile.ID.String()+"/attachment", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body, contentType := multipartReceipt(t, map[string]string{"amount": "100", "accountId": "nope"}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, receiptsPath, body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
