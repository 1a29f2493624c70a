package house

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is the reconciliation store backed by PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL house repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const pgSelectColumns = `id, source, external_id, status, property_type, sub_type,
	price, beds, baths, sqft, lot_sqft, address_line, city, state, postal_code,
	lat, lng, list_date, to_char(last_sold_date, 'YYYY-MM-DD'), primary_photo_url, geohash, created_at, updated_at`

// pgUpsertSQL only touches the row when a canonical field differs, so an
// unchanged listing returns no row.
const pgUpsertSQL = `INSERT INTO houses
	(source, external_id, status, property_type, sub_type, price, beds, baths, sqft, lot_sqft,
	 address_line, city, state, postal_code, lat, lng, list_date, last_sold_date, primary_photo_url, geohash)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (source, external_id) DO UPDATE SET
		status = EXCLUDED.status,
		property_type = EXCLUDED.property_type,
		sub_type = EXCLUDED.sub_type,
		price = EXCLUDED.price,
		beds = EXCLUDED.beds,
		baths = EXCLUDED.baths,
		sqft = EXCLUDED.sqft,
		lot_sqft = EXCLUDED.lot_sqft,
		address_line = EXCLUDED.address_line,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		postal_code = EXCLUDED.postal_code,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		list_date = EXCLUDED.list_date,
		last_sold_date = EXCLUDED.last_sold_date,
		primary_photo_url = EXCLUDED.primary_photo_url,
		geohash = EXCLUDED.geohash,
		updated_at = NOW()
	WHERE (houses.status, houses.property_type, houses.sub_type, houses.price, houses.beds,
		houses.baths, houses.sqft, houses.lot_sqft, houses.address_line, houses.city,
		houses.state, houses.postal_code, houses.lat, houses.lng, houses.list_date,
		houses.last_sold_date, houses.primary_photo_url)
	IS DISTINCT FROM (EXCLUDED.status, EXCLUDED.property_type, EXCLUDED.sub_type, EXCLUDED.price, EXCLUDED.beds,
		EXCLUDED.baths, EXCLUDED.sqft, EXCLUDED.lot_sqft, EXCLUDED.address_line, EXCLUDED.city,
		EXCLUDED.state, EXCLUDED.postal_code, EXCLUDED.lat, EXCLUDED.lng, EXCLUDED.list_date,
		EXCLUDED.last_sold_date, EXCLUDED.primary_photo_url)
	RETURNING id, (xmax = 0)`

// UpsertHouse inserts or updates the house keyed by (source, externalID)
// in a single statement.
func (r *PostgresRepository) UpsertHouse(ctx context.Context, source, externalID string, f Fields) (*House, Outcome, error) {
	var id int64
	var inserted bool
	err := r.pool.QueryRow(ctx, pgUpsertSQL,
		source, externalID,
		f.Status, f.PropertyType, f.SubType,
		f.Price, f.Beds, f.Baths, f.Sqft, f.LotSqft,
		f.AddressLine, f.City, f.State, f.PostalCode,
		f.Lat, f.Lng, timeArg(f.ListDate), timeArg(f.LastSoldDate),
		f.PrimaryPhotoURL, geohashOf(f),
	).Scan(&id, &inserted)

	outcome := Updated
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		outcome = Unchanged
	case err != nil:
		return nil, Unchanged, fmt.Errorf("upserting house %s/%s: %w", source, externalID, err)
	case inserted:
		outcome = Created
	}

	query := fmt.Sprintf("SELECT %s FROM houses WHERE source = $1 AND external_id = $2", pgSelectColumns)
	h, err := scanHouse(r.pool.QueryRow(ctx, query, source, externalID))
	if err != nil {
		return nil, Unchanged, fmt.Errorf("reading back house %s/%s: %w", source, externalID, err)
	}
	return h, outcome, nil
}

// GetByID returns a house by its ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*House, error) {
	query := fmt.Sprintf("SELECT %s FROM houses WHERE id = $1", pgSelectColumns)
	h, err := scanHouse(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("house %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying house %d: %w", id, err)
	}
	return h, nil
}

// ListHouses returns houses of a source ordered by id.
func (r *PostgresRepository) ListHouses(ctx context.Context, source string, filter HouseFilter) ([]*House, error) {
	query := fmt.Sprintf("SELECT %s FROM houses", pgSelectColumns)
	conditions := []string{"source = $1"}
	args := []any{source}

	if filter.ID != 0 {
		args = append(args, filter.ID)
		conditions = append(conditions, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.PostalCode != "" {
		args = append(args, filter.PostalCode)
		conditions = append(conditions, fmt.Sprintf("postal_code = $%d", len(args)))
	}
	if filter.Geohash != "" {
		args = append(args, filter.Geohash)
		conditions = append(conditions, fmt.Sprintf("left(geohash, char_length($%[1]d::text)) = $%[1]d::text", len(args)))
	}

	query += " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing houses: %w", err)
	}
	defer rows.Close()

	var houses []*House
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
func (r *PostgresRepository) UpsertDetail(ctx context.Context, houseID int64, payload any) (bool, error) {
	raw, err := encodePayload(payload, "{}")
	if err != nil {
		return false, fmt.Errorf("encoding detail payload: %w", err)
	}
	return r.upsertPayload(ctx, "house_details", houseID, raw)
}

// UpsertPhotos overwrites the photo payload of a house, reporting whether
// the row was created.
func (r *PostgresRepository) UpsertPhotos(ctx context.Context, houseID int64, payload any) (bool, error) {
	raw, err := encodePayload(payload, "[]")
	if err != nil {
		return false, fmt.Errorf("encoding photo payload: %w", err)
	}
	return r.upsertPayload(ctx, "house_photos", houseID, raw)
}

func (r *PostgresRepository) upsertPayload(ctx context.Context, table string, houseID int64, raw string) (bool, error) {
	var created bool
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`INSERT INTO %s (house_id, payload, fetched_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (house_id) DO UPDATE SET payload = EXCLUDED.payload, fetched_at = EXCLUDED.fetched_at
		RETURNING (xmax = 0)`, table),
		houseID, raw,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upserting %s for house %d: %w", table, houseID, err)
	}
	return created, nil
}

// GetDetail returns the stored detail of a house.
func (r *PostgresRepository) GetDetail(ctx context.Context, houseID int64) (*Detail, error) {
	var d Detail
	var raw string
	err := r.pool.QueryRow(ctx,
		"SELECT id, house_id, payload::text, fetched_at FROM house_details WHERE house_id = $1", houseID,
	).Scan(&d.ID, &d.HouseID, &raw, &d.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
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

const pgPhotoSetQuery = `SELECT p.id, p.house_id, h.external_id, p.payload::text, p.fetched_at
	FROM house_photos p JOIN houses h ON h.id = p.house_id`

// GetPhotoSet returns the stored photo set of a house.
func (r *PostgresRepository) GetPhotoSet(ctx context.Context, houseID int64) (*PhotoSet, error) {
	ps, err := scanPhotoSet(r.pool.QueryRow(ctx, pgPhotoSetQuery+" WHERE p.house_id = $1", houseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("photos for house %d: %w", houseID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying photos for house %d: %w", houseID, err)
	}
	return ps, nil
}

// ListPhotoSets returns stored photo sets ordered by id.
func (r *PostgresRepository) ListPhotoSets(ctx context.Context, limit int) ([]*PhotoSet, error) {
	query := pgPhotoSetQuery + " ORDER BY p.id"
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing photo sets: %w", err)
	}
	defer rows.Close()

	var sets []*PhotoSet
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
func (r *PostgresRepository) UpdatePhotoSet(ctx context.Context, id int64, payload any) error {
	raw, err := encodePayload(payload, "[]")
	if err != nil {
		return fmt.Errorf("encoding photo payload: %w", err)
	}

	tag, err := r.pool.Exec(ctx, "UPDATE house_photos SET payload = $1::jsonb WHERE id = $2", raw, id)
	if err != nil {
		return fmt.Errorf("updating photo set %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("photo set %d: %w", id, ErrNotFound)
	}

	return nil
}

// AppendImportError records a failed enrichment call.
func (r *PostgresRepository) AppendImportError(ctx context.Context, e ImportError) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO house_import_errors (house_id, external_id, import_type, error_message, run_id)
		VALUES ($1, $2, $3, $4, $5)`,
		e.HouseID, e.ExternalID, e.ImportType, e.Message, e.RunID,
	)
	if err != nil {
		return fmt.Errorf("appending import error: %w", err)
	}
	return nil
}

// ListImportErrors returns import errors, newest first.
func (r *PostgresRepository) ListImportErrors(ctx context.Context, filter ImportErrorFilter) ([]*ImportError, error) {
	query := `SELECT id, house_id, external_id, import_type, error_message, run_id, created_at
		FROM house_import_errors`
	var args []any
	if filter.ImportType != "" {
		args = append(args, filter.ImportType)
		query += fmt.Sprintf(" WHERE import_type = $%d", len(args))
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing import errors: %w", err)
	}
	defer rows.Close()

	var errs []*ImportError
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

// Close releases the pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}
