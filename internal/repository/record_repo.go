package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fujishima/keihi/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordRepository handles receipt record database operations.
type RecordRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *sql.DB, logger *zap.Logger) *RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a record for a user, assigning an ID when absent.
func (r *RecordRepository) Create(rec *models.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	itemsJSON := ""
	if len(rec.Items) > 0 {
		data, err := json.Marshal(rec.Items)
		if err != nil {
			return fmt.Errorf("failed to marshal items: %w", err)
		}
		itemsJSON = string(data)
	}

	query := `
		INSERT INTO records (
			id, user_id, date, vendor_name, total_amount,
			category, is_ic_transport, is_parking, items_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		rec.ID,
		rec.UserID,
		rec.Date,
		rec.VendorName,
		rec.TotalAmount,
		rec.Category,
		rec.IsICTransport,
		rec.IsParking,
		itemsJSON,
	)
	if err != nil {
		r.logger.Error("Failed to create record", zap.Error(err))
		return fmt.Errorf("failed to create record: %w", err)
	}

	return nil
}

// CreateBatch stores all records inside one transaction.
func (r *RecordRepository) CreateBatch(records []*models.Record) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, rec := range records {
		if err := r.createInTx(tx, rec); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

func (r *RecordRepository) createInTx(tx *sql.Tx, rec *models.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	itemsJSON := ""
	if len(rec.Items) > 0 {
		data, err := json.Marshal(rec.Items)
		if err != nil {
			return fmt.Errorf("failed to marshal items: %w", err)
		}
		itemsJSON = string(data)
	}

	_, err := tx.Exec(`
		INSERT INTO records (
			id, user_id, date, vendor_name, total_amount,
			category, is_ic_transport, is_parking, items_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Date, rec.VendorName, rec.TotalAmount,
		rec.Category, rec.IsICTransport, rec.IsParking, itemsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// ListByUser returns all of a user's records, newest first.
func (r *RecordRepository) ListByUser(userID string) ([]*models.Record, error) {
	query := `
		SELECT id, user_id, date, vendor_name, total_amount,
		       category, is_ic_transport, is_parking, items_json, created_at
		FROM records
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// GetByIDs returns the user's records matching the given IDs. Unknown IDs
// are skipped silently.
func (r *RecordRepository) GetByIDs(userID string, ids []string) ([]*models.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT id, user_id, date, vendor_name, total_amount,
		       category, is_ic_transport, is_parking, items_json, created_at
		FROM records
		WHERE user_id = ? AND id IN (%s)
		ORDER BY date DESC, created_at DESC
	`, placeholders)

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// Delete removes one of the user's records.
func (r *RecordRepository) Delete(userID, id string) error {
	res, err := r.db.Exec("DELETE FROM records WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *RecordRepository) scanRecords(rows *sql.Rows) ([]*models.Record, error) {
	var records []*models.Record
	for rows.Next() {
		rec := &models.Record{}
		var itemsJSON string
		err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Date, &rec.VendorName, &rec.TotalAmount,
			&rec.Category, &rec.IsICTransport, &rec.IsParking, &itemsJSON, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if itemsJSON != "" {
			if err := json.Unmarshal([]byte(itemsJSON), &rec.Items); err != nil {
				r.logger.Warn("Dropping unreadable record items",
					zap.String("record_id", rec.ID),
					zap.Error(err))
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
