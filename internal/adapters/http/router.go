package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mlevkov/claimaudit/internal/core/ports"
	"github.com/mlevkov/claimaudit/internal/i18n"
	"github.com/mlevkov/claimaudit/internal/observability/metrics"
)

const serviceName = "claimaudit-api"

type Router struct {
	auditor         ports.ClaimAuditor
	ingestor        ports.ClaimIngestor
	serverMetrics   *metrics.HTTPServerMetrics
	defaultLanguage string
}

func NewRouter(
	auditor ports.ClaimAuditor,
	ingestor ports.ClaimIngestor,
	serverMetrics *metrics.HTTPServerMetrics,
	defaultLanguage string,
) *Router {
	return &Router{
		auditor:         auditor,
		ingestor:        ingestor,
		serverMetrics:   serverMetrics,
		defaultLanguage: defaultLanguage,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/claims", rt.uploadClaim)
	mux.HandleFunc("/v1/claims/audit", rt.auditClaim)
	mux.Handle("/metrics", rt.serverMetrics.Handler())

	var handler http.Handler = mux
	handler = rt.serverMetrics.Middleware(serviceName, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	caseID := r.FormValue("case_id")
	key, err := rt.ingestor.Upload(r.Context(), caseID, fileHeader.Filename, file)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	// Upload-only mode stores the document for a later audit-by-key call.
	if r.FormValue("audit") == "false" {
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
		return
	}

	rt.runAudit(w, r, key, r.FormValue("language"))
}

func (rt *Router) auditClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Source   string `json:"source"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source is required"})
		return
	}

	rt.runAudit(w, r, req.Source, req.Language)
}

func (rt *Router) runAudit(w http.ResponseWriter, r *http.Request, source, language string) {
	lang := i18n.Normalize(language)
	if language == "" {
		lang = i18n.Normalize(rt.defaultLanguage)
	}

	start := time.Now()
	result, err := rt.auditor.Audit(r.Context(), source, lang)
	if err != nil {
		rt.serverMetrics.RecordAuditRun(serviceName, "error", time.Since(start))
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.serverMetrics.RecordAuditRun(serviceName, "success", time.Since(start))
	rt.serverMetrics.RecordRecommendation(serviceName, string(result.Report.Recommendation))
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
