package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/filecrate/filecrate/internal/file"
)

// PDFStage sanitizes PDFs by rewriting them through the pdfcpu
// optimizer, dropping unreferenced objects and normalizing structure.
type PDFStage struct {
	conf *model.Configuration
}

func NewPDFStage() *PDFStage {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFStage{conf: conf}
}

func (*PDFStage) Name() string              { return "sanitize" }
func (*PDFStage) Suffix() string            { return "sanitized" }
func (*PDFStage) OutputExt() string         { return "pdf" }
func (*PDFStage) OutputContentType() string { return "application/pdf" }
func (*PDFStage) DoneStatus() file.Status   { return file.StatusSanitized }
func (*PDFStage) FailedStatus() file.Status { return file.StatusSanitizationFailed }

func (s *PDFStage) Transform(_ context.Context, src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(src), &buf, s.conf); err != nil {
		return nil, fmt.Errorf("pipeline: rewrite pdf: %w", err)
	}
	return buf.Bytes(), nil
}
