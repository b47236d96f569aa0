package docintel

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// extractPDFText pulls the embedded text layer out of a PDF. Scanned PDFs
// succeed with empty text; the caller decides on the vision fallback.
func extractPDFText(data []byte) (text string, pages int, err error) {
	// The pdf library panics on some malformed cross-reference tables;
	// contain that here so the analyzer's no-raise contract holds.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", 0, fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), reader.NumPage(), nil
}
