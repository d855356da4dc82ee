package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/locallink/backend/internal/model/listing"
)

// Driver selects the SQL backend.
type Driver string

const (
	Postgres Driver = "postgres"
	SQLite   Driver = "sqlite"
)

// ParseDriver accepts the configured driver name.
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

func (d Driver) sqlName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Driver) dialect() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

func (d Driver) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// ListingStore implements listing.Store on database/sql.
type ListingStore struct {
	db     *sql.DB
	driver Driver
	now    func() time.Time
}

// Open connects to the database. Migrations are applied separately with Migrate.
func Open(driver Driver, dsn string) (*ListingStore, error) {
	if dsn == "" {
		return nil, errors.New("missing database dsn")
	}
	db, err := sql.Open(driver.sqlName(), dsn)
	if err != nil {
		return nil, err
	}
	if driver == SQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	return &ListingStore{db: db, driver: driver, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *ListingStore) DB() *sql.DB {
	return s.db
}

func (s *ListingStore) Driver() Driver {
	return s.driver
}

func (s *ListingStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *ListingStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const listingColumns = "id, user_id, name, service_name, description, location, availability, charges, contact, image_url, created_at"

// Create inserts a listing, assigning its id and creation time.
func (s *ListingStore) Create(ctx context.Context, l listing.Listing) (listing.Listing, error) {
	l.ID = uuid.NewString()
	l.CreatedAt = s.now()

	placeholders := make([]string, 11)
	for i := range placeholders {
		placeholders[i] = s.driver.placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO listings (%s) VALUES (%s)", listingColumns, strings.Join(placeholders, ", "))

	_, err := s.db.ExecContext(ctx, query,
		l.ID, l.UserID, l.Name, l.ServiceName, l.Description, l.Location,
		l.Availability, l.Charges, l.Contact, l.ImageURL, l.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return listing.Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	return l, nil
}

// Query loads the listings matching filter, newest first. Predicates and limit run in SQL.
func (s *ListingStore) Query(ctx context.Context, filter listing.Filter) ([]listing.Listing, error) {
	where, args := s.whereClause(filter)
	query := fmt.Sprintf("SELECT %s FROM listings%s ORDER BY created_at DESC", listingColumns, where)
	if filter.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(filter.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var all []listing.Listing
	for rows.Next() {
		var (
			l         listing.Listing
			createdAt int64
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.ServiceName, &l.Description, &l.Location,
			&l.Availability, &l.Charges, &l.Contact, &l.ImageURL, &createdAt); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		l.CreatedAt = time.UnixMilli(createdAt).UTC()
		all = append(all, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return all, nil
}

// searchColumns are the columns Keyword and AnyTerms are matched against.
var searchColumns = []string{"name", "service_name", "description", "location"}

// whereClause mirrors listing.Filter.Matches in SQL.
func (s *ListingStore) whereClause(filter listing.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return s.driver.placeholder(len(args))
	}
	// 任一可检索字段包含 term 即命中
	anyField := func(term string) string {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		parts := make([]string, 0, len(searchColumns))
		for _, col := range searchColumns {
			parts = append(parts, fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, col, bind(pattern)))
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	}

	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		conds = append(conds, "user_id = "+bind(userID))
	}
	if filter.Service != "" && filter.Service != listing.AllServices {
		conds = append(conds, "service_name = "+bind(filter.Service))
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		conds = append(conds, anyField(keyword))
	}

	var terms []string
	for _, term := range filter.AnyTerms {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, anyField(term))
		}
	}
	if len(terms) > 0 {
		conds = append(conds, "("+strings.Join(terms, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
