package typst

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
)

type Compiler interface {
	Compile(opts CompileOpts) (string, error)
	CompileToBytes(opts CompileOpts) ([]byte, error)
	CompileTemplate(templateName string, data []byte, opts ...CompileOptsBuilder) ([]byte, error)
	CleanupGeneratedFiles(files ...string)
}

// compiler represents a Typst document compiler
type compiler struct {
	logger *logger.Logger
	// Path to the typst binary
	binaryPath string
	// Directory where fonts are stored
	fontDir string
	// Directory where templates are stored
	templateDir string
	// Directory for output files
	outputDir string
}

// CompileOpts contains options for compiling a Typst document
type CompileOpts struct {
	// Input file path
	InputFile string
	// Output file name (optional, if not provided a temp file will be created)
	OutputFile string
	// Format is the typst output format, pdf when empty. Use png for
	// raster export.
	Format string
	// PPI sets the raster resolution, only meaningful with png output
	PPI int
	// Font paths to include
	FontDirs []string
	// Additional command-line arguments
	ExtraArgs []string
}

type CompileOptsBuilder func(c *CompileOpts)

func WithInputFile(inputFile string) CompileOptsBuilder {
	return func(c *CompileOpts) {
		c.InputFile = inputFile
	}
}

func WithOutputFile(outputFile string) CompileOptsBuilder {
	return func(c *CompileOpts) {
		c.OutputFile = outputFile
	}
}

func WithFormat(format string) CompileOptsBuilder {
	return func(c *CompileOpts) {
		c.Format = format
	}
}

func WithPPI(ppi int) CompileOptsBuilder {
	return func(c *CompileOpts) {
		c.PPI = ppi
	}
}

func WithFontDirs(fontDirs ...string) CompileOptsBuilder {
	return func(c *CompileOpts) {
		c.FontDirs = fontDirs
	}
}

func WithExtraArgs(extraArgs ...string) CompileOptsBuilder {
	return func(c *CompileOpts) {
		c.ExtraArgs = extraArgs
	}
}

// NewCompiler creates a new Typst compiler
func NewCompiler(logger *logger.Logger, binaryPath, fontDir, templateDir, outputDir string) Compiler {
	return &compiler{
		logger:      logger,
		binaryPath:  binaryPath,
		fontDir:     fontDir,
		templateDir: templateDir,
		outputDir:   outputDir,
	}
}

// DefaultCompiler creates a compiler with default settings
func DefaultCompiler(logger *logger.Logger) Compiler {
	return &compiler{
		logger:      logger,
		binaryPath:  "typst",
		fontDir:     "assets/fonts",
		templateDir: "assets/typst-templates",
		outputDir:   os.TempDir(),
	}
}

// Compile compiles a Typst document and returns the output file path
func (c *compiler) Compile(opts CompileOpts) (string, error) {
	outputFile := opts.OutputFile
	if outputFile == "" {
		ext := opts.Format
		if ext == "" {
			ext = "pdf"
		}
		outputFile = fmt.Sprintf("typst-%d.%s", time.Now().UnixMilli(), ext)
	}
	outputFile = filepath.Join(c.outputDir, outputFile)

	var fontDirs []string
	if c.fontDir != "" {
		fontDirs = append(fontDirs, c.fontDir)
	}
	fontDirs = append(fontDirs, opts.FontDirs...)

	args := []string{"compile", "--root", "/"}

	if opts.Format != "" {
		args = append(args, "--format", opts.Format)
	}
	if opts.PPI > 0 {
		args = append(args, "--ppi", fmt.Sprintf("%d", opts.PPI))
	}

	for _, dir := range fontDirs {
		args = append(args, "--font-path", dir)
	}

	args = append(args, opts.ExtraArgs...)
	args = append(args, opts.InputFile, outputFile)

	cmd := exec.Command(c.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", ierr.WithError(err).
			WithMessage("typst compilation failed").
			WithHint("typst error").
			WithReportableDetails(map[string]any{
				"stderr": stderr.String(),
			}).
			Mark(ierr.ErrSystem)
	}

	return outputFile, nil
}

// CompileToBytes compiles a Typst document and returns the content as bytes
func (c *compiler) CompileToBytes(opts CompileOpts) ([]byte, error) {
	outPath, err := c.Compile(opts)
	if err != nil {
		return nil, err
	}
	defer os.Remove(outPath)

	return os.ReadFile(outPath)
}

// CompileTemplate compiles a Typst template with the provided data.
// The data must be valid JSON compatible with the template, which reads
// it via:
//
//	#let invoice-data = json(sys.inputs.path)
func (c *compiler) CompileTemplate(
	templateName string,
	data []byte,
	opts ...CompileOptsBuilder,
) ([]byte, error) {
	templatePath := filepath.Join(c.templateDir, templateName)
	if _, err := os.Stat(templatePath); os.IsNotExist(err) {
		return nil, ierr.WithError(err).
			WithMessagef("template not found: %s", templatePath).
			WithHint("template error").Mark(ierr.ErrSystem)
	}

	jsonFile, err := os.Create(filepath.Join(c.outputDir, fmt.Sprintf("typst-%d.json", time.Now().UnixMilli())))
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to create temporary json file").
			WithHint("template error").Mark(ierr.ErrSystem)
	}

	if _, err := jsonFile.Write(data); err != nil {
		jsonFile.Close()
		return nil, ierr.WithError(err).
			WithMessage("failed to write data to json file").
			WithHint("template error").Mark(ierr.ErrSystem)
	}

	jsonFile.Close()
	defer os.Remove(jsonFile.Name())

	compileOpts := CompileOpts{
		InputFile: templatePath,
		ExtraArgs: []string{"--input", fmt.Sprintf("path=%s", jsonFile.Name())},
	}

	for _, opt := range opts {
		opt(&compileOpts)
	}

	return c.CompileToBytes(compileOpts)
}

// CleanupGeneratedFiles removes temporary files created during compilation
func (c *compiler) CleanupGeneratedFiles(files ...string) {
	for _, file := range files {
		if file != "" {
			os.Remove(file)
		}
	}
}
