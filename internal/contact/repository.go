package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/contacts-api/internal/database"
)

var (
	ErrNotFound      = errors.New("contact not found")
	ErrAlreadyExists = errors.New("contact with this email or phone already exists")
)

// Repository handles contact persistence. Every query is scoped to an owner.
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// List returns the owner's contacts matching f, ordered by surname and name
func (r *Repository) List(ctx context.Context, userID uuid.UUID, f Filter) ([]*Contact, error) {
	var rows []database.Contact
	q := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID)

	if f.Name != "" {
		q = q.Where("name ILIKE ?", likePattern(f.Name))
	}
	if f.Surname != "" {
		q = q.Where("surname ILIKE ?", likePattern(f.Surname))
	}
	if f.Email != "" {
		q = q.Where("email ILIKE ?", likePattern(f.Email))
	}

	err := q.Order("surname ASC", "name ASC").
		Offset(f.Skip).
		Limit(f.Limit).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return mapRows(rows), nil
}

// ListAll returns every contact of the owner
func (r *Repository) ListAll(ctx context.Context, userID uuid.UUID) ([]*Contact, error) {
	var rows []database.Contact
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return mapRows(rows), nil
}

// FindByID returns the contact only when it belongs to userID
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*Contact, error) {
	row := new(database.Contact)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return mapRow(row), nil
}

// ExistsByEmailOrPhone reports whether the owner already has a contact with either value
func (r *Repository) ExistsByEmailOrPhone(ctx context.Context, userID uuid.UUID, email, phone string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Contact)(nil)).
		Where("user_id = ?", userID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("email = ?", email).WhereOr("phone = ?", phone)
		}).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check contact: %w", err)
	}
	return exists, nil
}

// Create inserts c for userID
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, c *Contact) (*Contact, error) {
	row := toRow(userID, c)

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return mapRow(row), nil
}

// Update replaces every field of the owner's contact id
func (r *Repository) Update(ctx context.Context, userID, id uuid.UUID, c *Contact) (*Contact, error) {
	row := toRow(userID, c)

	_, err := r.db.NewUpdate().
		Model(row).
		Set("name = ?", row.Name).
		Set("surname = ?", row.Surname).
		Set("email = ?", row.Email).
		Set("phone = ?", row.Phone).
		Set("birthday = ?", row.Birthday).
		Set("info = ?", row.Info).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		case isUniqueViolation(err):
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	if row.ID == uuid.Nil {
		return nil, ErrNotFound
	}

	return mapRow(row), nil
}

// Delete removes the owner's contact id and returns it
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (*Contact, error) {
	row := new(database.Contact)

	_, err := r.db.NewDelete().
		Model(row).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete contact: %w", err)
	}
	if row.ID == uuid.Nil {
		return nil, ErrNotFound
	}

	return mapRow(row), nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// likePattern matches s anywhere, treating LIKE metacharacters literally
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func toRow(userID uuid.UUID, c *Contact) *database.Contact {
	return &database.Contact{
		UserID:   userID,
		Name:     c.Name,
		Surname:  c.Surname,
		Email:    c.Email,
		Phone:    c.Phone,
		Birthday: c.Birthday.Time,
		Info:     c.Info,
	}
}

func mapRows(rows []database.Contact) []*Contact {
	out := make([]*Contact, 0, len(rows))
	for i := range rows {
		out = append(out, mapRow(&rows[i]))
	}
	return out
}

func mapRow(row *database.Contact) *Contact {
	b := row.Birthday
	return &Contact{
		ID:        row.ID,
		Name:      row.Name,
		Surname:   row.Surname,
		Email:     row.Email,
		Phone:     row.Phone,
		Birthday:  NewDate(b.Year(), b.Month(), b.Day()),
		Info:      row.Info,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
