package storage

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"

	"github.com/example/sitter-hub/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing handle; used by tests.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) CreateSitter(ctx context.Context, s *models.Sitter) error {
	taken, err := p.EmailExists(ctx, s.Email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return p.db.QueryRowContext(ctx,
		`INSERT INTO sitters(email, name, phone, city, address, hourly_rate, experience_years, bio, rating, reviews_count, lat, lng, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW()) RETURNING id`,
		s.Email, s.Name, s.Phone, s.City, s.Address, s.HourlyRate, s.ExperienceYears, s.Bio, s.Rating, s.ReviewsCount, s.Coord.Lat, s.Coord.Lng,
	).Scan(&s.ID)
}

func (p *PostgresStore) GetSitter(ctx context.Context, id int64) (*models.Sitter, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, email, name, phone, city, address, hourly_rate, experience_years, bio, rating, reviews_count, lat, lng, created_at
		 FROM sitters WHERE id=$1`, id)
	return scanSitter(row)
}

func (p *PostgresStore) ListSitters(ctx context.Context) ([]models.Sitter, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, email, name, phone, city, address, hourly_rate, experience_years, bio, rating, reviews_count, lat, lng, created_at
		 FROM sitters ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Sitter
	for rows.Next() {
		s, err := scanSitter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSitter(row rowScanner) (*models.Sitter, error) {
	var s models.Sitter
	var lat, lng sql.NullFloat64
	err := row.Scan(&s.ID, &s.Email, &s.Name, &s.Phone, &s.City, &s.Address, &s.HourlyRate, &s.ExperienceYears, &s.Bio, &s.Rating, &s.ReviewsCount, &lat, &lng, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		s.Coord = models.NewCoordinate(lat.Float64, lng.Float64)
	}
	return &s, nil
}

// ApplyRating runs read-compute-write inside one transaction with a row lock
// so concurrent raters cannot tear the running average.
func (p *PostgresStore) ApplyRating(ctx context.Context, sitterID int64, rating float64) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var oldRating float64
	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT rating, reviews_count FROM sitters WHERE id=$1 FOR UPDATE`, sitterID,
	).Scan(&oldRating, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	next, nextCount := models.NextRating(oldRating, count, rating)
	if _, err := tx.ExecContext(ctx,
		`UPDATE sitters SET rating=$1, reviews_count=$2 WHERE id=$3`, next, nextCount, sitterID); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *PostgresStore) CreateParent(ctx context.Context, pr *models.Parent) error {
	taken, err := p.EmailExists(ctx, pr.Email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return p.db.QueryRowContext(ctx,
		`INSERT INTO parents(email, name, phone, city, address, children_count, bio, lat, lng, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW()) RETURNING id`,
		pr.Email, pr.Name, pr.Phone, pr.City, pr.Address, pr.ChildrenCount, pr.Bio, pr.Coord.Lat, pr.Coord.Lng,
	).Scan(&pr.ID)
}

func (p *PostgresStore) GetParent(ctx context.Context, id int64) (*models.Parent, error) {
	var pr models.Parent
	var lat, lng sql.NullFloat64
	err := p.db.QueryRowContext(ctx,
		`SELECT id, email, name, phone, city, address, children_count, bio, lat, lng, created_at
		 FROM parents WHERE id=$1`, id,
	).Scan(&pr.ID, &pr.Email, &pr.Name, &pr.Phone, &pr.City, &pr.Address, &pr.ChildrenCount, &pr.Bio, &lat, &lng, &pr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		pr.Coord = models.NewCoordinate(lat.Float64, lng.Float64)
	}
	return &pr, nil
}

func (p *PostgresStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	return p.db.QueryRowContext(ctx,
		`INSERT INTO bookings(parent_id, sitter_id, start_time, end_time, status, payment_ref, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,NOW()) RETURNING id`,
		b.ParentID, b.SitterID, b.Start, b.End, b.Status, b.PaymentRef,
	).Scan(&b.ID)
}

func (p *PostgresStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	err := p.db.QueryRowContext(ctx,
		`SELECT id, parent_id, sitter_id, start_time, end_time, status, payment_ref, created_at
		 FROM bookings WHERE id=$1`, id,
	).Scan(&b.ID, &b.ParentID, &b.SitterID, &b.Start, &b.End, &b.Status, &b.PaymentRef, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (p *PostgresStore) UpdateBooking(ctx context.Context, b *models.Booking) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE bookings SET status=$1, payment_ref=$2 WHERE id=$3`, b.Status, b.PaymentRef, b.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) ListBookingsByParent(ctx context.Context, parentID int64) ([]models.Booking, error) {
	return p.listBookings(ctx, `parent_id`, parentID)
}

func (p *PostgresStore) ListBookingsBySitter(ctx context.Context, sitterID int64) ([]models.Booking, error) {
	return p.listBookings(ctx, `sitter_id`, sitterID)
}

func (p *PostgresStore) listBookings(ctx context.Context, column string, id int64) ([]models.Booking, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, parent_id, sitter_id, start_time, end_time, status, payment_ref, created_at
		 FROM bookings WHERE `+column+`=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.ParentID, &b.SitterID, &b.Start, &b.End, &b.Status, &b.PaymentRef, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *PostgresStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sitters WHERE lower(email)=lower($1)) OR EXISTS(SELECT 1 FROM parents WHERE lower(email)=lower($1))`,
		email,
	).Scan(&exists)
	return exists, err
}
