// Package docintel converts stored claim documents into text payloads.
// Dispatch is by filename suffix; every branch converts its own failures
// into a valid payload with an error kind, so the caller always has
// something to feed the rest of the pipeline.
package docintel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mlevkov/claimaudit/internal/core/domain"
	"github.com/mlevkov/claimaudit/internal/core/ports"
)

const (
	confidencePDFText    = 0.95
	confidenceWordText   = 0.9
	confidenceImage      = 0.8
	confidenceScannedPDF = 0.6
	confidenceMedical    = 0.5
	confidenceDiagnostic = 0.2
)

var imageMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
}

const imagePrompt = "Describe this insurance claim document image in detail. " +
	"Transcribe any visible text, amounts, dates, names and policy numbers, " +
	"and note the overall legibility of the document."

const scannedPDFPrompt = "This PDF contains no extractable text and is likely a scan. " +
	"Describe its pages, transcribing any visible claim details: names, policy " +
	"numbers, dates and amounts."

const dicomNotePrompt = "Write a short note for a claims adjuster explaining that a DICOM " +
	"medical imaging file was submitted with an insurance claim, that its pixel data is " +
	"not analyzed by this system, and that it contains protected health information."

const dicomFallbackNote = "A DICOM medical imaging file was submitted with this claim. " +
	"Its contents are not analyzed automatically and it contains protected health " +
	"information; route to a qualified reviewer."

type Analyzer struct {
	storage ports.ObjectStorage
	gen     ports.TextGenerator
	logger  *slog.Logger
}

func NewAnalyzer(storage ports.ObjectStorage, gen ports.TextGenerator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{storage: storage, gen: gen, logger: logger}
}

func (a *Analyzer) Analyze(ctx context.Context, source string) domain.DocumentPayload {
	suffix := strings.ToLower(filepath.Ext(source))

	if suffix == "" || !a.recognized(suffix) {
		return domain.DocumentPayload{
			Source:     source,
			Kind:       domain.KindUnsupported,
			Text:       fmt.Sprintf("Unsupported document type %q; no analysis performed.", suffix),
			Confidence: 0,
		}
	}

	data, err := a.read(ctx, source)
	if err != nil {
		a.logger.Warn("document_read_failed", "source", source, "error", err)
		if _, isImage := imageMimeTypes[suffix]; isImage {
			return imageErrorPayload(source, err)
		}
		return errorPayload(source, fmt.Sprintf("document could not be read: %v", err))
	}

	meta := map[string]string{
		"file_size_bytes": strconv.Itoa(len(data)),
		"suffix":          suffix,
	}

	switch {
	case suffix == ".pdf":
		return a.analyzePDF(ctx, source, data, meta)
	case suffix == ".doc" || suffix == ".docx":
		return a.analyzeWord(source, data, meta)
	case suffix == ".dcm":
		return a.analyzeDICOM(ctx, source, meta)
	default:
		return a.analyzeImage(ctx, source, suffix, data, meta)
	}
}

func (a *Analyzer) recognized(suffix string) bool {
	if _, ok := imageMimeTypes[suffix]; ok {
		return true
	}
	switch suffix {
	case ".pdf", ".doc", ".docx", ".dcm":
		return true
	default:
		return false
	}
}

func (a *Analyzer) read(ctx context.Context, source string) ([]byte, error) {
	reader, err := a.storage.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (a *Analyzer) analyzePDF(ctx context.Context, source string, data []byte, meta map[string]string) domain.DocumentPayload {
	text, pages, err := extractPDFText(data)
	if err == nil && strings.TrimSpace(text) != "" {
		meta["page_count"] = strconv.Itoa(pages)
		return domain.DocumentPayload{
			Source:     source,
			Kind:       domain.KindPDF,
			Text:       text,
			Confidence: confidencePDFText,
			Metadata:   meta,
		}
	}
	if err != nil {
		a.logger.Warn("pdf_text_extraction_failed", "source", source, "error", err)
	}

	// Empty or unreadable text means an image-based PDF: fall back to a
	// vision description instead of verbatim extraction.
	description, descErr := a.gen.DescribeImage(ctx, "application/pdf", data, scannedPDFPrompt)
	if descErr != nil {
		a.logger.Warn("pdf_vision_fallback_failed", "source", source, "error", descErr)
		return errorPayload(source, fmt.Sprintf("PDF has no extractable text and vision analysis failed: %v", descErr))
	}

	meta["image_based"] = "true"
	return domain.DocumentPayload{
		Source:               source,
		Kind:                 domain.KindPDF,
		Text:                 description,
		Confidence:           confidenceScannedPDF,
		Metadata:             meta,
		RequiresManualReview: true,
	}
}

func (a *Analyzer) analyzeImage(ctx context.Context, source, suffix string, data []byte, meta map[string]string) domain.DocumentPayload {
	description, err := a.gen.DescribeImage(ctx, imageMimeTypes[suffix], data, imagePrompt)
	if err != nil {
		a.logger.Warn("image_analysis_failed", "source", source, "error", err)
		return imageErrorPayload(source, err)
	}

	return domain.DocumentPayload{
		Source:     source,
		Kind:       domain.KindImage,
		Text:       description,
		Confidence: confidenceImage,
		Metadata:   meta,
	}
}

func (a *Analyzer) analyzeWord(source string, data []byte, meta map[string]string) domain.DocumentPayload {
	text, err := extractWordText(data)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			a.logger.Warn("word_extraction_failed", "source", source, "error", err)
		}
		// Diagnostic text instead of an error payload: the document kind
		// is known even when the container cannot be unpacked.
		return domain.DocumentPayload{
			Source:               source,
			Kind:                 domain.KindWord,
			Text:                 fmt.Sprintf("Word document text could not be extracted: %v", err),
			Confidence:           confidenceDiagnostic,
			Metadata:             meta,
			RequiresManualReview: true,
		}
	}

	return domain.DocumentPayload{
		Source:     source,
		Kind:       domain.KindWord,
		Text:       text,
		Confidence: confidenceWordText,
		Metadata:   meta,
	}
}

func (a *Analyzer) analyzeDICOM(ctx context.Context, source string, meta map[string]string) domain.DocumentPayload {
	note, err := a.gen.Generate(ctx, dicomNotePrompt)
	if err != nil || strings.TrimSpace(note) == "" {
		note = dicomFallbackNote
	}

	meta["privacy"] = "phi"
	return domain.DocumentPayload{
		Source:               source,
		Kind:                 domain.KindMedicalImaging,
		Text:                 note,
		Confidence:           confidenceMedical,
		Metadata:             meta,
		RequiresManualReview: true,
		PrivacySensitive:     true,
	}
}

func errorPayload(source, text string) domain.DocumentPayload {
	return domain.DocumentPayload{
		Source:     source,
		Kind:       domain.KindError,
		Text:       text,
		Confidence: 0,
	}
}

func imageErrorPayload(source string, err error) domain.DocumentPayload {
	return domain.DocumentPayload{
		Source:     source,
		Kind:       domain.KindImageError,
		Text:       fmt.Sprintf("image could not be analyzed: %v", err),
		Confidence: 0,
	}
}
