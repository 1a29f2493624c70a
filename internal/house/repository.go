package house

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository is the reconciliation store backed by SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a SQLite house repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, source, external_id, status, property_type, sub_type,
	price, beds, baths, sqft, lot_sqft, address_line, city, state, postal_code,
	lat, lng, list_date, last_sold_date, primary_photo_url, geohash, created_at, updated_at`

const upsertSQL = `INSERT INTO houses
	(source, external_id, status, property_type, sub_type, price, beds, baths, sqft, lot_sqft,
	 address_line, city, state, postal_code, lat, lng, list_date, last_sold_date, primary_photo_url, geohash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (source, external_id) DO UPDATE SET
		status = excluded.status,
		property_type = excluded.property_type,
		sub_type = excluded.sub_type,
		price = excluded.price,
		beds = excluded.beds,
		baths = excluded.baths,
		sqft = excluded.sqft,
		lot_sqft = excluded.lot_sqft,
		address_line = excluded.address_line,
		city = excluded.city,
		state = excluded.state,
		postal_code = excluded.postal_code,
		lat = excluded.lat,
		lng = excluded.lng,
		list_date = excluded.list_date,
		last_sold_date = excluded.last_sold_date,
		primary_photo_url = excluded.primary_photo_url,
		geohash = excluded.geohash,
		updated_at = CURRENT_TIMESTAMP`

// UpsertHouse inserts or updates the house keyed by (source, externalID).
// A house whose stored fields already equal f is left untouched and
// reported as Unchanged.
func (r *Repository) UpsertHouse(ctx context.Context, source, externalID string, f Fields) (h *House, outcome Outcome, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Unchanged, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = rollback(tx, err)
		}
	}()

	query := fmt.Sprintf("SELECT %s FROM houses WHERE source = ? AND external_id = ?", selectColumns)
	existing, err := scanHouse(tx.QueryRowContext(ctx, query, source, externalID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		outcome = Created
	case err != nil:
		return nil, Unchanged, fmt.Errorf("querying house %s/%s: %w", source, externalID, err)
	case existing.Fields.Equal(f):
		if err := tx.Commit(); err != nil {
			return nil, Unchanged, fmt.Errorf("committing: %w", err)
		}
		return existing, Unchanged, nil
	default:
		outcome = Updated
	}

	_, err = tx.ExecContext(ctx, upsertSQL,
		source, externalID,
		f.Status, f.PropertyType, f.SubType,
		f.Price, f.Beds, f.Baths, f.Sqft, f.LotSqft,
		f.AddressLine, f.City, f.State, f.PostalCode,
		f.Lat, f.Lng, timeArg(f.ListDate), dateArg(f.LastSoldDate),
		f.PrimaryPhotoURL, geohashOf(f),
	)
	if err != nil {
		return nil, Unchanged, fmt.Errorf("upserting house %s/%s: %w", source, externalID, err)
	}

	h, err = scanHouse(tx.QueryRowContext(ctx, query, source, externalID))
	if err != nil {
		return nil, Unchanged, fmt.Errorf("reading back house %s/%s: %w", source, externalID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, Unchanged, fmt.Errorf("committing: %w", err)
	}
	return h, outcome, nil
}

// rollback aborts tx after err. A transaction already finished by a failed
// commit is not reported twice.
func rollback(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		return fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
	}
	return err
}

// GetByID returns a house by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*House, error) {
	query := fmt.Sprintf("SELECT %s FROM houses WHERE id = ?", selectColumns)
	h, err := scanHouse(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("house %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying house %d: %w", id, err)
	}
	return h, nil
}

// ListHouses returns houses of a source ordered by id.
func (r *Repository) ListHouses(ctx context.Context, source string, filter HouseFilter) (houses []*House, err error) {
	query := fmt.Sprintf("SELECT %s FROM houses", selectColumns)
	conditions := []string{"source = ?"}
	args := []any{source}

	if filter.ID != 0 {
		conditions = append(conditions, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.PostalCode != "" {
		conditions = append(conditions, "postal_code = ?")
		args = append(args, filter.PostalCode)
	}
	if filter.Geohash != "" {
		conditions = append(conditions, "substr(geohash, 1, length(?)) = ?")
		args = append(args, filter.Geohash, filter.Geohash)
	}

	query += " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing houses: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning house: %w", err)
		}
		houses = append(houses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating houses: %w", err)
	}

	return houses, nil
}

// UpsertDetail overwrites the detail payload of a house, reporting whether
// the row was created.
func (r *Repository) UpsertDetail(ctx context.Context, houseID int64, payload any) (bool, error) {
	raw, err := encodePayload(payload, "{}")
	if err != nil {
		return false, fmt.Errorf("encoding detail payload: %w", err)
	}
	return r.upsertPayload(ctx, "house_details", houseID, raw)
}

// UpsertPhotos overwrites the photo payload of a house, reporting whether
// the row was created.
func (r *Repository) UpsertPhotos(ctx context.Context, houseID int64, payload any) (bool, error) {
	raw, err := encodePayload(payload, "[]")
	if err != nil {
		return false, fmt.Errorf("encoding photo payload: %w", err)
	}
	return r.upsertPayload(ctx, "house_photos", houseID, raw)
}

func (r *Repository) upsertPayload(ctx context.Context, table string, houseID int64, raw string) (created bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = rollback(tx, err)
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE house_id = ?", table), houseID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking %s for house %d: %w", table, houseID, err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (house_id, payload, fetched_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (house_id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`, table),
		houseID, raw,
	)
	if err != nil {
		return false, fmt.Errorf("upserting %s for house %d: %w", table, houseID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	return exists == 0, nil
}

// GetDetail returns the stored detail of a house.
func (r *Repository) GetDetail(ctx context.Context, houseID int64) (*Detail, error) {
	var d Detail
	var raw string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, house_id, payload, fetched_at FROM house_details WHERE house_id = ?", houseID,
	).Scan(&d.ID, &d.HouseID, &raw, &d.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("detail for house %d: %w", houseID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying detail for house %d: %w", houseID, err)
	}
	if d.Payload, err = decodePayload([]byte(raw)); err != nil {
		return nil, fmt.Errorf("decoding detail %d: %w", d.ID, err)
	}
	return &d, nil
}

const photoSetQuery = `SELECT p.id, p.house_id, h.external_id, p.payload, p.fetched_at
	FROM house_photos p JOIN houses h ON h.id = p.house_id`

// GetPhotoSet returns the stored photo set of a house.
func (r *Repository) GetPhotoSet(ctx context.Context, houseID int64) (*PhotoSet, error) {
	ps, err := scanPhotoSet(r.db.QueryRowContext(ctx, photoSetQuery+" WHERE p.house_id = ?", houseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("photos for house %d: %w", houseID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying photos for house %d: %w", houseID, err)
	}
	return ps, nil
}

// ListPhotoSets returns stored photo sets ordered by id.
func (r *Repository) ListPhotoSets(ctx context.Context, limit int) (sets []*PhotoSet, err error) {
	query := photoSetQuery + " ORDER BY p.id"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing photo sets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		ps, err := scanPhotoSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning photo set: %w", err)
		}
		sets = append(sets, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating photo sets: %w", err)
	}

	return sets, nil
}

// UpdatePhotoSet rewrites the payload of an existing photo set.
func (r *Repository) UpdatePhotoSet(ctx context.Context, id int64, payload any) error {
	raw, err := encodePayload(payload, "[]")
	if err != nil {
		return fmt.Errorf("encoding photo payload: %w", err)
	}

	result, err := r.db.ExecContext(ctx, "UPDATE house_photos SET payload = ? WHERE id = ?", raw, id)
	if err != nil {
		return fmt.Errorf("updating photo set %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("photo set %d: %w", id, ErrNotFound)
	}

	return nil
}

// AppendImportError records a failed enrichment call.
func (r *Repository) AppendImportError(ctx context.Context, e ImportError) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO house_import_errors (house_id, external_id, import_type, error_message, run_id)
		VALUES (?, ?, ?, ?, ?)`,
		e.HouseID, e.ExternalID, e.ImportType, e.Message, e.RunID,
	)
	if err != nil {
		return fmt.Errorf("appending import error: %w", err)
	}
	return nil
}

// ListImportErrors returns import errors, newest first.
func (r *Repository) ListImportErrors(ctx context.Context, filter ImportErrorFilter) (errs []*ImportError, err error) {
	query := `SELECT id, house_id, external_id, import_type, error_message, run_id, created_at
		FROM house_import_errors`
	var args []any
	if filter.ImportType != "" {
		query += " WHERE import_type = ?"
		args = append(args, filter.ImportType)
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing import errors: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		ie, err := scanImportError(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning import error: %w", err)
		}
		errs = append(errs, ie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating import errors: %w", err)
	}

	return errs, nil
}

func scanPhotoSet(row scanner) (*PhotoSet, error) {
	var ps PhotoSet
	var raw string
	if err := row.Scan(&ps.ID, &ps.HouseID, &ps.ExternalID, &raw, &ps.FetchedAt); err != nil {
		return nil, err
	}
	payload, err := decodePayload([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding photo set %d: %w", ps.ID, err)
	}
	ps.Payload = payload
	return &ps, nil
}

func scanImportError(row scanner) (*ImportError, error) {
	var ie ImportError
	var houseID sql.NullInt64
	if err := row.Scan(&ie.ID, &houseID, &ie.ExternalID, &ie.ImportType, &ie.Message, &ie.RunID, &ie.CreatedAt); err != nil {
		return nil, err
	}
	if houseID.Valid {
		ie.HouseID = &houseID.Int64
	}
	return &ie, nil
}
