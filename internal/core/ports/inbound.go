package ports

import (
	"context"
	"io"

	"github.com/mlevkov/claimaudit/internal/core/domain"
)

// ClaimAuditor is the inbound contract for one full pipeline run over an
// already-stored document.
type ClaimAuditor interface {
	Audit(ctx context.Context, source, language string) (*domain.AuditResult, error)
}

// ClaimIngestor stores an uploaded claim document and returns its storage
// key.
type ClaimIngestor interface {
	Upload(ctx context.Context, caseID, filename string, body io.Reader) (string, error)
}
