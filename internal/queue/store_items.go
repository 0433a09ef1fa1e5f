package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, source_path, status, error_message, outputs_json, format_notes_json, created_at, updated_at"

// Enqueue adds a source file to the queue. It is a no-op when the path does
// not exist on disk or is already present under its canonical path; added
// reports whether a new item was inserted.
func (s *Store) Enqueue(ctx context.Context, path string) (item *Item, added bool, err error) {
	ctx = ensureContext(ctx)

	canonical, exists, err := CanonicalPath(path)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	if existing, err := s.BySourcePath(ctx, canonical); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (source_path, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		canonical,
		StatusQueued,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("last insert id: %w", err)
	}

	inserted, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return inserted, true, nil
}

// GetByID fetches a queue item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// BySourcePath returns the item with the given canonical source path, or nil.
func (s *Store) BySourcePath(ctx context.Context, sourcePath string) (*Item, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE source_path = ?`,
		sourcePath,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by source path: %w", err)
	}
	return item, nil
}

// List returns all queue items in insertion order, which is also processing
// order. Safe to call while a batch is running; it is a read-only snapshot.
func (s *Store) List(ctx context.Context) ([]*Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM queue_items ORDER BY id`)
}

// ItemsByStatus returns items matching a status in insertion order.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE status = ? ORDER BY id`, status)
}

// Update persists the mutable fields of an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()

	outputsJSON, err := marshalStrings(item.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}
	notesJSON, err := marshalNotes(item.FormatNotes)
	if err != nil {
		return fmt.Errorf("marshal format notes: %w", err)
	}

	_, err = s.execWithRetry(
		ensureContext(ctx),
		`UPDATE queue_items
         SET status = ?, error_message = ?, outputs_json = ?, format_notes_json = ?, updated_at = ?
         WHERE id = ?`,
		item.Status,
		nullableString(item.ErrorMessage),
		outputsJSON,
		notesJSON,
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Remove deletes an item by identifier. Silently a no-op while a batch run is
// active; items are never deleted mid-run.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	if s.RunActive() {
		return false, nil
	}
	res, err := s.execWithRetry(ensureContext(ctx), `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all items from the queue. Silently a no-op while a batch run
// is active.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if s.RunActive() {
		return 0, nil
	}
	res, err := s.execWithRetry(ensureContext(ctx), `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// Requeue returns terminal items to queued for another run, clearing their
// results. With no ids, all terminal items are requeued. Rejected (no-op)
// while a batch run is active.
func (s *Store) Requeue(ctx context.Context, ids ...int64) (int64, error) {
	if s.RunActive() {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	terminal := []any{StatusDone, StatusSkipped, StatusError, StatusCancelled}

	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE queue_items
             SET status = ?, error_message = NULL, outputs_json = NULL, format_notes_json = NULL, updated_at = ?
             WHERE status IN (?, ?, ?, ?)`,
			append([]any{StatusQueued, timestamp}, terminal...)...,
		)
		if err != nil {
			return 0, fmt.Errorf("requeue items: %w", err)
		}
		return res.RowsAffected()
	}

	args := append([]any{StatusQueued, timestamp}, terminal...)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE queue_items
        SET status = ?, error_message = NULL, outputs_json = NULL, format_notes_json = NULL, updated_at = ?
        WHERE status IN (?, ?, ?, ?) AND id IN (` + makePlaceholders(len(ids)) + `)`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("requeue selected items: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]*Item, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		sourcePath   string
		statusStr    string
		errorMessage sql.NullString
		outputsRaw   sql.NullString
		notesRaw     sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&statusStr,
		&errorMessage,
		&outputsRaw,
		&notesRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:           id,
		SourcePath:   sourcePath,
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
	}

	if outputsRaw.Valid && outputsRaw.String != "" {
		if err := json.Unmarshal([]byte(outputsRaw.String), &item.Outputs); err != nil {
			return nil, fmt.Errorf("decode outputs for item %d: %w", id, err)
		}
	}
	if notesRaw.Valid && notesRaw.String != "" {
		if err := json.Unmarshal([]byte(notesRaw.String), &item.FormatNotes); err != nil {
			return nil, fmt.Errorf("decode format notes for item %d: %w", id, err)
		}
	}

	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func marshalStrings(values []string) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func marshalNotes(notes map[string]string) (any, error) {
	if len(notes) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
