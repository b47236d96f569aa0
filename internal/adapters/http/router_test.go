package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mlevkov/claimaudit/internal/core/domain"
	"github.com/mlevkov/claimaudit/internal/observability/metrics"
)

type auditorFake struct {
	result       *domain.AuditResult
	err          error
	lastSource   string
	lastLanguage string
}

func (f *auditorFake) Audit(_ context.Context, source, language string) (*domain.AuditResult, error) {
	f.lastSource = source
	f.lastLanguage = language
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type ingestorFake struct {
	key          string
	err          error
	lastCaseID   string
	lastFilename string
}

func (f *ingestorFake) Upload(_ context.Context, caseID, filename string, _ io.Reader) (string, error) {
	f.lastCaseID = caseID
	f.lastFilename = filename
	if f.err != nil {
		return "", f.err
	}
	return f.key, nil
}

func newTestRouter(auditor *auditorFake, ingestor *ingestorFake) http.Handler {
	return NewRouter(auditor, ingestor, metrics.NewHTTPServerMetrics(serviceName), "en").Handler()
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(&auditorFake{}, &ingestorFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
}

func multipartClaim(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	part, err := writer.CreateFormFile("file", "claim.pdf")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("%PDF-1.4"))
	_ = writer.Close()
	return &body, writer.FormDataContentType()
}

func TestUploadClaimRunsAudit(t *testing.T) {
	ingestor := &ingestorFake{key: "case-1/abc_claim.pdf"}
	auditor := &auditorFake{result: &domain.AuditResult{RunID: "run-9"}}
	handler := newTestRouter(auditor, ingestor)

	body, contentType := multipartClaim(t, map[string]string{"case_id": "case-1"})
	req := httptest.NewRequest(http.MethodPost, "/v1/claims", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", res.Code, res.Body.String())
	}
	if ingestor.lastCaseID != "case-1" || ingestor.lastFilename != "claim.pdf" {
		t.Errorf("ingestor called with %q / %q", ingestor.lastCaseID, ingestor.lastFilename)
	}
	if auditor.lastSource != "case-1/abc_claim.pdf" {
		t.Errorf("audit source = %q, want uploaded key", auditor.lastSource)
	}

	var result domain.AuditResult
	if err := json.Unmarshal(res.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.RunID != "run-9" {
		t.Errorf("run id = %q", result.RunID)
	}
}

func TestUploadClaimUploadOnly(t *testing.T) {
	ingestor := &ingestorFake{key: "case-1/abc_claim.pdf"}
	auditor := &auditorFake{}
	handler := newTestRouter(auditor, ingestor)

	body, contentType := multipartClaim(t, map[string]string{"case_id": "case-1", "audit": "false"})
	req := httptest.NewRequest(http.MethodPost, "/v1/claims", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", res.Code, res.Body.String())
	}
	if auditor.lastSource != "" {
		t.Error("upload-only mode must not run the pipeline")
	}

	var payload map[string]string
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["key"] != "case-1/abc_claim.pdf" {
		t.Errorf("key = %q", payload["key"])
	}
}

func TestUploadClaimRequiresFile(t *testing.T) {
	handler := newTestRouter(&auditorFake{}, &ingestorFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/claims", strings.NewReader("not multipart"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestAuditClaim(t *testing.T) {
	auditor := &auditorFake{result: &domain.AuditResult{
		RunID: "run-1",
		Report: domain.FinalReport{
			Content:        "report body",
			Recommendation: domain.RecommendApprove,
		},
	}}
	handler := newTestRouter(auditor, &ingestorFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/claims/audit",
		strings.NewReader(`{"source":"case-1/claim.pdf","language":"zh"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", res.Code, res.Body.String())
	}
	if auditor.lastSource != "case-1/claim.pdf" {
		t.Errorf("source = %q", auditor.lastSource)
	}
	if auditor.lastLanguage != "zh" {
		t.Errorf("language = %q", auditor.lastLanguage)
	}

	var result domain.AuditResult
	if err := json.Unmarshal(res.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.RunID != "run-1" {
		t.Errorf("run id = %q", result.RunID)
	}
}

func TestAuditClaimDefaultsLanguage(t *testing.T) {
	auditor := &auditorFake{result: &domain.AuditResult{}}
	handler := newTestRouter(auditor, &ingestorFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/claims/audit",
		strings.NewReader(`{"source":"case-1/claim.pdf"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	if auditor.lastLanguage != "en" {
		t.Errorf("language = %q, want configured default", auditor.lastLanguage)
	}
}

func TestAuditClaimRequiresSource(t *testing.T) {
	handler := newTestRouter(&auditorFake{}, &ingestorFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/claims/audit", strings.NewReader(`{"language":"en"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestAuditClaimMapsErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "audit", io.EOF), http.StatusBadRequest},
		{"not found", domain.WrapError(domain.ErrNotFound, "audit", io.EOF), http.StatusNotFound},
		{"region blocked", domain.WrapError(domain.ErrRegionBlocked, "audit", io.EOF), http.StatusUnavailableForLegalReasons},
		{"temporary", domain.WrapError(domain.ErrTemporary, "audit", io.EOF), http.StatusServiceUnavailable},
		{"unknown", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestRouter(&auditorFake{err: tc.err}, &ingestorFake{})

			req := httptest.NewRequest(http.MethodPost, "/v1/claims/audit",
				strings.NewReader(`{"source":"case-1/claim.pdf"}`))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			if res.Code != tc.want {
				t.Fatalf("status = %d, want %d", res.Code, tc.want)
			}
		})
	}
}

func TestRequestIDHeaderAssigned(t *testing.T) {
	handler := newTestRouter(&auditorFake{}, &ingestorFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatal("request id header must be assigned")
	}
}

func TestMetricsEndpointServed(t *testing.T) {
	handler := newTestRouter(&auditorFake{}, &ingestorFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "claimaudit_http_in_flight_requests") {
		t.Error("expected registered http series in metrics output")
	}
}
