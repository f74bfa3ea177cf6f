package testutil

import (
	"context"

	"github.com/invora/invora/internal/domain/pdfgen"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/pdf"
)

var _ pdf.Generator = (*MockPDFGenerator)(nil)

// MockPDFGenerator renders fixed bytes so service tests can exercise
// export flows without a typst binary
type MockPDFGenerator struct {
	logger *logger.Logger

	// LastData captures the payload of the most recent render call
	LastData *pdfgen.InvoiceData
}

// NewMockPDFGenerator creates a new mock document generator
func NewMockPDFGenerator(logger *logger.Logger) *MockPDFGenerator {
	return &MockPDFGenerator{logger: logger}
}

func (m *MockPDFGenerator) RenderInvoicePdf(ctx context.Context, data *pdfgen.InvoiceData) ([]byte, error) {
	m.LastData = data
	return []byte("%PDF-1.7 test"), nil
}

func (m *MockPDFGenerator) RenderInvoiceJpeg(ctx context.Context, data *pdfgen.InvoiceData) ([]byte, error) {
	m.LastData = data
	return []byte{0xFF, 0xD8, 0xFF, 0xD9}, nil
}
