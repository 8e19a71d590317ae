package export

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fujishima/keihi/internal/models"
	"github.com/fujishima/keihi/internal/receipt"
	"github.com/fujishima/keihi/internal/report"
)

// RecordSource supplies the records an export runs over.
type RecordSource interface {
	ListByUser(userID string) ([]*models.Record, error)
	GetByIDs(userID string, ids []string) ([]*models.Record, error)
}

// ExcelReporter renders a summary into a spreadsheet file.
type ExcelReporter interface {
	Write(sum *receipt.Summary, today time.Time, outputPath string) (*report.Result, error)
}

// Service builds exports from a user's stored records. Each export reads,
// classifies and aggregates fresh; nothing is cached between calls.
type Service struct {
	records RecordSource
	excel   ExcelReporter

	outputDir string
	order     receipt.DateOrder
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates an export service.
func NewService(records RecordSource, excel ExcelReporter, outputDir string, order receipt.DateOrder, logger *zap.Logger) *Service {
	return &Service{
		records:   records,
		excel:     excel,
		outputDir: outputDir,
		order:     order,
		now:       time.Now,
		logger:    logger,
	}
}

// ParseDateOrder maps the configuration value to a sort direction.
// Anything other than "asc" means descending.
func ParseDateOrder(s string) receipt.DateOrder {
	if s == "asc" {
		return receipt.DateAscending
	}
	return receipt.DateDescending
}

// Excel renders the user's records into the spreadsheet template and returns
// the path of the written file. A nil ids slice exports everything.
func (s *Service) Excel(userID string, ids []string) (string, *report.Result, error) {
	records, err := s.resolve(userID, ids)
	if err != nil {
		return "", nil, err
	}
	if len(records) == 0 {
		return "", nil, report.ErrNoRecords
	}

	sum := receipt.Aggregate(receipt.Partition(records), s.order)

	today := s.now()
	outputPath := filepath.Join(s.outputDir, fmt.Sprintf("keihi_%s.xlsx", today.Format("20060102_150405")))

	result, err := s.excel.Write(sum, today, outputPath)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("Excel export written",
		zap.String("user_id", userID),
		zap.String("path", outputPath),
		zap.Int("records", len(records)),
		zap.Int("dropped_vendors", result.DroppedVendors),
		zap.Int("dropped_transport", result.DroppedTransport))

	return outputPath, result, nil
}

// CSV streams the user's records as UTF-8 BOM CSV.
func (s *Service) CSV(w io.Writer, userID string, ids []string) error {
	records, err := s.resolve(userID, ids)
	if err != nil {
		return err
	}
	return report.WriteCSV(w, records)
}

// List builds the paginated expense list document for external rendering.
func (s *Service) List(userID string, ids []string) (*report.ListDocument, error) {
	records, err := s.resolve(userID, ids)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("経費一覧 %s", s.now().Format("2006/01/02"))
	return report.BuildListDocument(title, records)
}

func (s *Service) resolve(userID string, ids []string) ([]*models.Record, error) {
	if len(ids) == 0 {
		return s.records.ListByUser(userID)
	}
	return s.records.GetByIDs(userID, ids)
}
