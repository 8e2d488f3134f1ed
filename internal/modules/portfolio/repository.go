// Package portfolio provides the repository for portfolio records.
package portfolio

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/database"
	"github.com/dkaratzas/portfoliodb/internal/domain"
)

// Repository handles portfolio persistence. Portfolios are created on demand
// and never mutated afterwards; removal is only the schema-level cascade.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// Create inserts a new portfolio and returns it with ID and created date
// populated. A duplicate name surfaces as ErrIntegrityViolation.
func (r *Repository) Create(name string) (*domain.Portfolio, error) {
	result, err := r.db.Exec("INSERT INTO portfolios (name) VALUES (?)", name)
	if err != nil {
		if database.IsConstraintViolation(err) {
			return nil, fmt.Errorf("portfolio %q: %w", name, domain.ErrIntegrityViolation)
		}
		return nil, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	p, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	r.log.Info().Str("name", name).Int64("portfolio_id", id).Msg("Created portfolio")
	return p, nil
}

// GetByID retrieves a portfolio by primary key.
func (r *Repository) GetByID(id int64) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := r.db.QueryRow(
		"SELECT portfolio_id, name, created_date FROM portfolios WHERE portfolio_id = ?", id,
	).Scan(&p.ID, &p.Name, &p.CreatedDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return &p, nil
}

// GetByName retrieves a portfolio by its unique name.
// Returns (nil, nil) when no portfolio has that name.
func (r *Repository) GetByName(name string) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := r.db.QueryRow(
		"SELECT portfolio_id, name, created_date FROM portfolios WHERE name = ?", name,
	).Scan(&p.ID, &p.Name, &p.CreatedDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio by name: %w", err)
	}
	return &p, nil
}

// ResolveID returns the ID for a portfolio name, or ErrPortfolioNotFound.
// Every read-model query calls this before issuing its aggregation.
func (r *Repository) ResolveID(name string) (int64, error) {
	p, err := r.GetByName(name)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, fmt.Errorf("portfolio %q: %w", name, domain.ErrPortfolioNotFound)
	}
	return p.ID, nil
}

// List returns all portfolios ordered by name.
func (r *Repository) List() ([]domain.Portfolio, error) {
	rows, err := r.db.Query("SELECT portfolio_id, name, created_date FROM portfolios ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []domain.Portfolio
	for rows.Next() {
		var p domain.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedDate); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}
