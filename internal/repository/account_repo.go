package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"llm-insurance/internal/domain"
)

var (
	// ErrUniqueViolation se devuelve cuando el insert choca con user_id existente.
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrConstraintViolation cubre el resto de violaciones de integridad.
	ErrConstraintViolation = errors.New("integrity constraint violation")
)

// AccountRepository define el contrato de persistencia para cuentas.
// Las busquedas sin resultado devuelven pgx.ErrNoRows.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByUserID(ctx context.Context, userID string) (domain.Account, error)
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
	// StateByUserID lee solo version e is_deleted.
	StateByUserID(ctx context.Context, userID string) (domain.AccountState, error)
	// Update escribe los campos mutables de una cuenta activa; sobre una cuenta
	// borrada no afecta filas y devuelve pgx.ErrNoRows.
	Update(ctx context.Context, account domain.Account) error
	// SoftDelete marca la cuenta como borrada y deslogueada con modified_at = account.ModifiedAt.
	SoftDelete(ctx context.Context, account domain.Account) error
}

// PgAccountRepository implementa AccountRepository usando pgxpool.
type PgAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPgAccountRepository(pool *pgxpool.Pool) *PgAccountRepository {
	return &PgAccountRepository{pool: pool}
}

const accountColumns = `
	id, user_id, password_hash, email, name, phone_number, birth_date, gender,
	is_married, job, diseases, subscriptions, created_at, modified_at,
	is_logged_in, is_deleted, version
`

func (r *PgAccountRepository) Create(ctx context.Context, a domain.Account) error {
	const query = `
		INSERT INTO app_users (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.UserID,
		a.PasswordHash,
		a.Email,
		a.Name,
		a.PhoneNumber,
		a.BirthDate,
		string(a.Gender),
		a.IsMarried,
		a.Job,
		domain.CloneTags(a.Diseases),
		domain.CloneTags(a.Subscriptions),
		a.CreatedAt,
		a.ModifiedAt,
		a.IsLoggedIn,
		a.IsDeleted,
		a.Version,
	)
	if err != nil {
		return classifyPgError("insert account", err)
	}
	return nil
}

func (r *PgAccountRepository) GetByUserID(ctx context.Context, userID string) (domain.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM app_users
		WHERE user_id = $1
	`
	var (
		a      domain.Account
		gender string
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.PasswordHash,
		&a.Email,
		&a.Name,
		&a.PhoneNumber,
		&a.BirthDate,
		&gender,
		&a.IsMarried,
		&a.Job,
		&a.Diseases,
		&a.Subscriptions,
		&a.CreatedAt,
		&a.ModifiedAt,
		&a.IsLoggedIn,
		&a.IsDeleted,
		&a.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, err
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("select account: %w", err)
	}
	a.Gender = domain.Gender(gender)
	a.Diseases = domain.CloneTags(a.Diseases)
	a.Subscriptions = domain.CloneTags(a.Subscriptions)
	return a, nil
}

func (r *PgAccountRepository) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM app_users WHERE user_id = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	return exists, nil
}

func (r *PgAccountRepository) StateByUserID(ctx context.Context, userID string) (domain.AccountState, error) {
	const query = `SELECT version, is_deleted FROM app_users WHERE user_id = $1`
	var state domain.AccountState
	err := r.pool.QueryRow(ctx, query, userID).Scan(&state.Version, &state.IsDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AccountState{}, err
	}
	if err != nil {
		return domain.AccountState{}, fmt.Errorf("select account state: %w", err)
	}
	return state, nil
}

// Update reescribe los campos mutables en una sola sentencia.
// id, user_id, created_at e is_deleted no se modifican aqui.
func (r *PgAccountRepository) Update(ctx context.Context, a domain.Account) error {
	const query = `
		UPDATE app_users
		SET email = $2,
			name = $3,
			phone_number = $4,
			birth_date = $5,
			gender = $6,
			is_married = $7,
			job = $8,
			diseases = $9,
			subscriptions = $10,
			modified_at = $11,
			is_logged_in = $12,
			version = version + 1
		WHERE id = $1 AND is_deleted = FALSE
	`
	tag, err := r.pool.Exec(ctx, query,
		a.ID,
		a.Email,
		a.Name,
		a.PhoneNumber,
		a.BirthDate,
		string(a.Gender),
		a.IsMarried,
		a.Job,
		domain.CloneTags(a.Diseases),
		domain.CloneTags(a.Subscriptions),
		a.ModifiedAt,
		a.IsLoggedIn,
	)
	if err != nil {
		return classifyPgError("update account", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgAccountRepository) SoftDelete(ctx context.Context, a domain.Account) error {
	const query = `
		UPDATE app_users
		SET is_deleted = TRUE,
			is_logged_in = FALSE,
			modified_at = $2,
			version = version + 1
		WHERE id = $1 AND is_deleted = FALSE
	`
	tag, err := r.pool.Exec(ctx, query, a.ID, a.ModifiedAt)
	if err != nil {
		return classifyPgError("soft delete account", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// classifyPgError traduce codigos SQLSTATE de integridad (clase 23) a errores del paquete.
func classifyPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return fmt.Errorf("%s: %w: %s", op, ErrUniqueViolation, pgErr.ConstraintName)
		case strings.HasPrefix(pgErr.Code, "23"):
			return fmt.Errorf("%s: %w: %s", op, ErrConstraintViolation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
