package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"image/png"

	"github.com/invora/invora/internal/config"
	"github.com/invora/invora/internal/domain/pdfgen"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/typst"
)

const (
	invoiceTemplate = "invoice.typ"

	// rasterPPI keeps JPEG exports readable on phone screens
	rasterPPI = 144

	jpegQuality = 90
)

// Generator defines the interface for invoice document rendering
type Generator interface {
	RenderInvoicePdf(ctx context.Context, data *pdfgen.InvoiceData) ([]byte, error)
	// RenderInvoiceJpeg renders the first page of the invoice as a JPEG image
	RenderInvoiceJpeg(ctx context.Context, data *pdfgen.InvoiceData) ([]byte, error)
}

type service struct {
	config *config.PDFConfig
	typst  typst.Compiler
}

// NewGenerator creates a new document generator
func NewGenerator(cfg *config.Configuration, typst typst.Compiler) Generator {
	return &service{
		config: &cfg.PDF,
		typst:  typst,
	}
}

func (s *service) RenderInvoicePdf(ctx context.Context, data *pdfgen.InvoiceData) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to marshal invoice data").
			Mark(ierr.ErrSystem)
	}

	out, err := s.typst.CompileTemplate(
		invoiceTemplate,
		jsonData,
		typst.WithOutputFile(fmt.Sprintf("invoice-%s.pdf", data.ID)),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to compile invoice template").
			Mark(ierr.ErrSystem)
	}

	return out, nil
}

// RenderInvoiceJpeg compiles the template to PNG and transcodes it.
// Typst rasters to PNG only, so the JPEG step happens here.
func (s *service) RenderInvoiceJpeg(ctx context.Context, data *pdfgen.InvoiceData) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to marshal invoice data").
			Mark(ierr.ErrSystem)
	}

	pngBytes, err := s.typst.CompileTemplate(
		invoiceTemplate,
		jsonData,
		typst.WithOutputFile(fmt.Sprintf("invoice-%s.png", data.ID)),
		typst.WithFormat("png"),
		typst.WithPPI(rasterPPI),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to compile invoice template").
			Mark(ierr.ErrSystem)
	}

	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to decode rendered image").
			Mark(ierr.ErrSystem)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to encode invoice image").
			Mark(ierr.ErrSystem)
	}

	return buf.Bytes(), nil
}
