package report

import (
	"fmt"
	"os"
	"time"

	"github.com/fujishima/keihi/internal/receipt"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExcelWriter fills the 経費精算書 Excel template with a populated cell
// sequence.
type ExcelWriter struct {
	templatePath string
	populator    *Populator
	logger       *zap.Logger
}

// NewExcelWriter creates a writer bound to a template file. The template is
// checked again at write time, so a missing file here is only a warning.
func NewExcelWriter(templatePath string, populator *Populator, logger *zap.Logger) *ExcelWriter {
	if _, err := os.Stat(templatePath); os.IsNotExist(err) {
		logger.Warn("Report template not found at startup",
			zap.String("template_path", templatePath))
	}
	return &ExcelWriter{
		templatePath: templatePath,
		populator:    populator,
		logger:       logger,
	}
}

// Write populates the template with the summary and saves it to outputPath.
// It returns the populated result so callers can report truncation.
func (w *ExcelWriter) Write(sum *receipt.Summary, today time.Time, outputPath string) (*Result, error) {
	if _, err := os.Stat(w.templatePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, w.templatePath)
	}

	f, err := excelize.OpenFile(w.templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: template has no sheets", ErrTemplateNotFound)
	}
	sheet := sheets[0]

	res := w.populator.Populate(sum, today)
	for _, cell := range res.Cells {
		name, err := excelize.CoordinatesToCellName(cell.Col, cell.Row)
		if err != nil {
			return nil, fmt.Errorf("invalid cell coordinate (%d,%d): %w", cell.Row, cell.Col, err)
		}
		if err := f.SetCellValue(sheet, name, cell.Value); err != nil {
			return nil, fmt.Errorf("failed to set cell %s: %w", name, err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	w.logger.Info("Expense report written",
		zap.String("output_path", outputPath),
		zap.Int("cells", len(res.Cells)),
		zap.Int("dropped_vendors", res.DroppedVendors),
		zap.Int("dropped_transport", res.DroppedTransport))

	return res, nil
}
