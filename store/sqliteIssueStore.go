package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"civicsync-issues/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const issueColumns = `id, title, category, location, priority, description, image, image_ref,
	address, city, state, zip_code, country, lat, lng, created_at, updated_at`

// SQLiteIssueStore keeps issues in the "issues" table. Ids are ObjectID hex
// strings so records look the same whichever backend produced them.
type SQLiteIssueStore struct {
	db   *sql.DB
	opts options
}

func NewSQLiteIssueStore(db *sql.DB, opts ...Option) *SQLiteIssueStore {
	return &SQLiteIssueStore{db: db, opts: newOptions(opts)}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteIssueStore) Create(ctx context.Context, rec *models.IssueRecord) (*models.IssueRecord, error) {
	stored := *rec
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt = s.opts.stamp()
	stored.UpdatedAt = stored.CreatedAt

	lat, lng := coordinateColumns(stored.Coordinates)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO issues (`+issueColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID.Hex(), stored.Title, stored.Category, stored.Location, string(stored.Priority),
		stored.Description, stored.Image, nullString(stored.ImageRef),
		stored.Address, stored.City, stored.State, stored.ZipCode, stored.Country,
		lat, lng, stored.CreatedAt.UnixMilli(), stored.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, storageErr("insert issue", err)
	}
	return &stored, nil
}

func (s *SQLiteIssueStore) Get(ctx context.Context, id string) (*models.IssueRecord, error) {
	return getIssue(ctx, s.db, id)
}

func (s *SQLiteIssueStore) ListAll(ctx context.Context) ([]models.IssueRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+issueColumns+` FROM issues ORDER BY rowid`)
	if err != nil {
		return nil, storageErr("list issues", err)
	}
	defer rows.Close()

	issues := []models.IssueRecord{}
	for rows.Next() {
		rec, err := scanIssue(rows)
		if err != nil {
			return nil, storageErr("scan issue", err)
		}
		issues = append(issues, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list issues", err)
	}
	return issues, nil
}

func (s *SQLiteIssueStore) Update(ctx context.Context, id string, patch models.IssuePatch) (*models.IssueRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin update", err)
	}
	defer tx.Rollback()

	rec, err := getIssue(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(rec, s.opts.stamp())

	lat, lng := coordinateColumns(rec.Coordinates)
	_, err = tx.ExecContext(ctx,
		`UPDATE issues SET title = ?, category = ?, location = ?, priority = ?, description = ?,
		 address = ?, city = ?, state = ?, zip_code = ?, country = ?, lat = ?, lng = ?, updated_at = ?
		 WHERE id = ?`,
		rec.Title, rec.Category, rec.Location, string(rec.Priority), rec.Description,
		rec.Address, rec.City, rec.State, rec.ZipCode, rec.Country, lat, lng, rec.UpdatedAt.UnixMilli(),
		rec.ID.Hex(),
	)
	if err != nil {
		return nil, storageErr("update issue", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit update", err)
	}
	return rec, nil
}

func (s *SQLiteIssueStore) Delete(ctx context.Context, id string) (*models.IssueRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin delete", err)
	}
	defer tx.Rollback()

	rec, err := getIssue(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, rec.ID.Hex()); err != nil {
		return nil, storageErr("delete issue", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit delete", err)
	}
	return rec, nil
}

func getIssue(ctx context.Context, q queryer, id string) (*models.IssueRecord, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, models.ErrNotFound
	}

	row := q.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	rec, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get issue", err)
	}
	return rec, nil
}

func scanIssue(row scanner) (*models.IssueRecord, error) {
	var (
		rec                  models.IssueRecord
		id, priority         string
		imageRef             sql.NullString
		lat, lng             sql.NullFloat64
		createdAt, updatedAt int64
	)
	err := row.Scan(&id, &rec.Title, &rec.Category, &rec.Location, &priority, &rec.Description,
		&rec.Image, &imageRef, &rec.Address, &rec.City, &rec.State, &rec.ZipCode, &rec.Country,
		&lat, &lng, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec.ID, err = primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("stored id %q: %w", id, err)
	}
	rec.Priority = models.Priority(priority)
	if imageRef.Valid {
		ref := imageRef.String
		rec.ImageRef = &ref
	}
	if lat.Valid && lng.Valid {
		rec.Coordinates = &models.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &rec, nil
}

func coordinateColumns(c *models.Coordinates) (lat, lng sql.NullFloat64) {
	if c == nil {
		return lat, lng
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true}, sql.NullFloat64{Float64: c.Lng, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
