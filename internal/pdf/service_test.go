package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/invora/invora/internal/domain/pdfgen"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/typst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mocking the typst.Compiler for testing
type MockCompiler struct {
	mock.Mock
}

func (m *MockCompiler) Compile(opts typst.CompileOpts) (string, error) {
	args := m.Called(opts)
	return args.String(0), args.Error(1)
}

func (m *MockCompiler) CompileToBytes(opts typst.CompileOpts) ([]byte, error) {
	args := m.Called(opts)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCompiler) CompileTemplate(templateName string, jsonData []byte, options ...typst.CompileOptsBuilder) ([]byte, error) {
	args := m.Called(templateName, jsonData, options)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCompiler) CleanupGeneratedFiles(files ...string) {
	m.Called(files)
}

func TestRenderInvoicePdf(t *testing.T) {
	mockCompiler := new(MockCompiler)
	service := &service{
		typst: mockCompiler,
	}

	data := &pdfgen.InvoiceData{ID: "inv_123"}
	expectedPDF := []byte("mocked PDF content")

	jsonData, err := json.Marshal(data)
	assert.NoError(t, err)

	mockCompiler.On("CompileTemplate", "invoice.typ", jsonData, mock.Anything).Return(expectedPDF, nil)

	out, err := service.RenderInvoicePdf(context.Background(), data)

	assert.NoError(t, err)
	assert.Equal(t, expectedPDF, out)
}

func TestRenderInvoicePdf_Error(t *testing.T) {
	mockCompiler := new(MockCompiler)
	service := &service{
		typst: mockCompiler,
	}

	data := &pdfgen.InvoiceData{ID: "inv_123"}
	expectedError := ierr.NewError("compilation error").Mark(ierr.ErrSystem)

	mockCompiler.On("CompileTemplate", "invoice.typ", mock.Anything, mock.Anything).Return([]byte{}, expectedError)

	out, err := service.RenderInvoicePdf(context.Background(), data)

	assert.Error(t, err)
	assert.ErrorIs(t, err, expectedError)
	assert.Nil(t, out)
}

func TestRenderInvoiceJpeg(t *testing.T) {
	mockCompiler := new(MockCompiler)
	service := &service{
		typst: mockCompiler,
	}

	// The compiler hands back a PNG page render
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var pngBuf bytes.Buffer
	assert.NoError(t, png.Encode(&pngBuf, img))

	data := &pdfgen.InvoiceData{ID: "inv_123"}
	mockCompiler.On("CompileTemplate", "invoice.typ", mock.Anything, mock.Anything).Return(pngBuf.Bytes(), nil)

	out, err := service.RenderInvoiceJpeg(context.Background(), data)

	assert.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestRenderInvoiceJpeg_InvalidImage(t *testing.T) {
	mockCompiler := new(MockCompiler)
	service := &service{
		typst: mockCompiler,
	}

	data := &pdfgen.InvoiceData{ID: "inv_123"}
	mockCompiler.On("CompileTemplate", "invoice.typ", mock.Anything, mock.Anything).Return([]byte("not a png"), nil)

	out, err := service.RenderInvoiceJpeg(context.Background(), data)

	assert.Error(t, err)
	assert.Nil(t, out)
}
