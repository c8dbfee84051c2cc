package cloudaccount

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/db"
)

// Repo provides database operations for cloud accounts. It also implements
// auth.AccountLookup so internal/auth's session middleware can resolve an
// OIDC-verified email to a Session without importing this package.
type Repo struct {
	dbtx db.DBTX
}

// NewRepo creates a cloudaccount Repo backed by the given database connection.
func NewRepo(dbtx db.DBTX) *Repo {
	return &Repo{dbtx: dbtx}
}

const accountColumns = `id, email, password_hash, display_name, account_type, status, reseller_id, tenant_id, created_at, updated_at`

func scanRow(row pgx.Row) (CloudAccount, error) {
	var a CloudAccount
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.AccountType, &a.Status, &a.ResellerID, &a.TenantID, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Get returns a single account by ID.
func (repo *Repo) Get(ctx context.Context, id uuid.UUID) (CloudAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM cloud_accounts WHERE id = $1`
	a, err := scanRow(repo.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return CloudAccount{}, apperr.NotFoundf("account %s not found", id)
		}
		return CloudAccount{}, fmt.Errorf("getting account: %w", err)
	}
	return a, nil
}

// GetByEmail returns a single account by (normalized) email.
func (repo *Repo) GetByEmail(ctx context.Context, email string) (CloudAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM cloud_accounts WHERE email = $1`
	a, err := scanRow(repo.dbtx.QueryRow(ctx, query, normalizeEmail(email)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return CloudAccount{}, apperr.Unauthenticatedf("invalid email or password")
		}
		return CloudAccount{}, fmt.Errorf("getting account by email: %w", err)
	}
	return a, nil
}

// Create inserts a new account, enforcing the OWNER/RESELLER/TENANT_ADMIN
// reference invariant before it ever reaches storage.
func (repo *Repo) Create(ctx context.Context, p CreateParams) (CloudAccount, error) {
	switch p.AccountType {
	case TypeOwner:
		if p.ResellerID != nil || p.TenantID != nil {
			return CloudAccount{}, apperr.Validationf("OWNER accounts may not reference a reseller or tenant")
		}
	case TypeReseller:
		if p.ResellerID == nil || p.TenantID != nil {
			return CloudAccount{}, apperr.Validationf("RESELLER accounts require exactly a reseller reference")
		}
	case TypeTenantAdmin:
		if p.TenantID == nil || p.ResellerID != nil {
			return CloudAccount{}, apperr.Validationf("TENANT_ADMIN accounts require exactly a tenant reference")
		}
	default:
		return CloudAccount{}, apperr.Validationf("unknown account type %q", p.AccountType)
	}

	query := `INSERT INTO cloud_accounts (email, password_hash, display_name, account_type, status, reseller_id, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING ` + accountColumns
	a, err := scanRow(repo.dbtx.QueryRow(ctx, query,
		normalizeEmail(p.Email), p.PasswordHash, p.DisplayName, p.AccountType, StatusActive, p.ResellerID, p.TenantID))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return CloudAccount{}, apperr.Conflictf("email %s already registered", p.Email)
		}
		return CloudAccount{}, fmt.Errorf("creating account: %w", err)
	}
	return a, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ToSession reduces a CloudAccount to the identity internal/auth carries
// through a request.
func ToSession(a CloudAccount) *auth.Session {
	return &auth.Session{
		AccountID:   a.ID,
		AccountType: a.AccountType,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		ResellerID:  a.ResellerID,
		TenantID:    a.TenantID,
	}
}

// FindSessionByAccountID implements auth.AccountLookup.
func (repo *Repo) FindSessionByAccountID(ctx context.Context, accountID string) (*auth.Session, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, apperr.Unauthenticatedf("invalid account id")
	}
	a, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusActive {
		return nil, apperr.Unauthenticatedf("account disabled")
	}
	return ToSession(a), nil
}

// FindSessionByEmail implements auth.AccountLookup.
func (repo *Repo) FindSessionByEmail(ctx context.Context, email string) (*auth.Session, error) {
	a, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusActive {
		return nil, apperr.Unauthenticatedf("account disabled")
	}
	return ToSession(a), nil
}
