package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/BTreeMap/Brenda/internal/models"
)

const courseColumns = `id, name, short_description, description, level, modality, price, currency, sessions, duration_hours, topics`

const (
	queryAllCourses  = `SELECT ` + courseColumns + ` FROM courses WHERE active = TRUE ORDER BY display_order, id`
	queryCourseByID  = `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	querySearch      = `SELECT ` + courseColumns + ` FROM courses WHERE active = TRUE AND (name ILIKE $1 OR short_description ILIKE $1 OR description ILIKE $1 OR $2 = ANY(topics)) ORDER BY display_order, id`
	queryBonuses     = `SELECT id, COALESCE(course_id, ''), name, description, personas, COALESCE(resource_url, '') FROM bonuses WHERE active = TRUE AND (course_id IS NULL OR course_id = $1) ORDER BY display_order, id`
	defaultPoolConns = 5
)

// PostgresCatalog reads courses and bonuses from PostgreSQL.
type PostgresCatalog struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCatalog opens a connection pool to the content database.
func NewPostgresCatalog(dsn string, logger *slog.Logger) (*PostgresCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open content database: %w", err)
	}
	db.SetMaxOpenConns(defaultPoolConns)
	db.SetMaxIdleConns(defaultPoolConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach content database: %w", err)
	}
	logger.Debug("PostgresCatalog: connected")
	return NewPostgresCatalogFromDB(db, logger), nil
}

// NewPostgresCatalogFromDB wraps an existing handle.
func NewPostgresCatalogFromDB(db *sql.DB, logger *slog.Logger) *PostgresCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCatalog{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.Name, &c.ShortDescription, &c.Description, &c.Level, &c.Modality,
		&c.Price, &c.Currency, &c.Sessions, &c.DurationHours, pq.Array(&c.Topics))
	return c, err
}

func (p *PostgresCatalog) queryCourses(ctx context.Context, query string, args ...any) ([]models.Course, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *PostgresCatalog) AllCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := p.queryCourses(ctx, queryAllCourses)
	if err != nil {
		p.logger.Error("PostgresCatalog.AllCourses: query failed", "error", err)
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	return courses, nil
}

func (p *PostgresCatalog) CourseByID(ctx context.Context, id string) (models.Course, error) {
	c, err := scanCourse(p.db.QueryRowContext(ctx, queryCourseByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Course{}, fmt.Errorf("%w: %s", models.ErrCourseNotFound, id)
	}
	if err != nil {
		p.logger.Error("PostgresCatalog.CourseByID: query failed", "error", err, "courseID", id)
		return models.Course{}, fmt.Errorf("failed to query course %s: %w", id, err)
	}
	return c, nil
}

func (p *PostgresCatalog) SearchCourses(ctx context.Context, keyword string) ([]models.Course, error) {
	courses, err := p.queryCourses(ctx, querySearch, "%"+keyword+"%", keyword)
	if err != nil {
		p.logger.Error("PostgresCatalog.SearchCourses: query failed", "error", err, "keyword", keyword)
		return nil, fmt.Errorf("failed to search courses: %w", err)
	}
	return courses, nil
}

func (p *PostgresCatalog) BonusesForCourse(ctx context.Context, courseID string) ([]models.Bonus, error) {
	rows, err := p.db.QueryContext(ctx, queryBonuses, courseID)
	if err != nil {
		p.logger.Error("PostgresCatalog.BonusesForCourse: query failed", "error", err, "courseID", courseID)
		return nil, fmt.Errorf("failed to query bonuses: %w", err)
	}
	defer rows.Close()
	var out []models.Bonus
	for rows.Next() {
		var b models.Bonus
		if err := rows.Scan(&b.ID, &b.CourseID, &b.Name, &b.Description, pq.Array(&b.Personas), &b.ResourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan bonus row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (p *PostgresCatalog) Close() error {
	return p.db.Close()
}
