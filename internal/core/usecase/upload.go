package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mlevkov/claimaudit/internal/core/domain"
	"github.com/mlevkov/claimaudit/internal/core/ports"
)

// UploadClaimUseCase stores an incoming claim document under a
// case-scoped key so later audit runs can address it.
type UploadClaimUseCase struct {
	storage ports.ObjectStorage
}

func NewUploadClaimUseCase(storage ports.ObjectStorage) *UploadClaimUseCase {
	return &UploadClaimUseCase{storage: storage}
}

func (uc *UploadClaimUseCase) Upload(ctx context.Context, caseID, filename string, body io.Reader) (string, error) {
	caseID = sanitizeFilename(caseID)
	if caseID == "" || caseID == "document.bin" {
		caseID = "uncategorized"
	}

	key := fmt.Sprintf("%s/%s_%s", caseID, uuid.NewString(), sanitizeFilename(filename))
	if err := uc.storage.Save(ctx, key, body); err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "upload", fmt.Errorf("save to object storage: %w", err))
	}
	return key, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	base = strings.Trim(base, "._")
	if base == "" {
		return "document.bin"
	}
	return base
}
