package revision

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/radixpos/controlplane/internal/apperr"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/db"
)

var domainPattern = regexp.MustCompile(`^[A-Z0-9:_-]+$`)

// NormalizeDomain upper-cases domain and validates its character set (spec
// §4.3 step 1: `A-Z 0-9 : _ -`).
func NormalizeDomain(domain string) (string, error) {
	d := strings.ToUpper(strings.TrimSpace(domain))
	if d == "" || !domainPattern.MatchString(d) {
		return "", apperr.Validationf("domain must be non-empty and contain only A-Z, 0-9, :, _, -")
	}
	return d, nil
}

// Repo provides database operations for revisions.
type Repo struct {
	dbtx db.DBTX
}

// NewRepo creates a revision Repo backed by the given database connection.
func NewRepo(dbtx db.DBTX) *Repo {
	return &Repo{dbtx: dbtx}
}

const revisionColumns = `id, store_id, domain, number, payload, published_by, created_at`

func scanRow(row pgx.Row) (Revision, error) {
	var rv Revision
	err := row.Scan(&rv.ID, &rv.StoreID, &rv.Domain, &rv.Number, &rv.Payload, &rv.PublishedBy, &rv.CreatedAt)
	return rv, err
}

// MaxNumber returns the current highest revision number for (storeID,
// domain), or 0 if none exist yet.
func (repo *Repo) MaxNumber(ctx context.Context, storeID uuid.UUID, domain string) (int, error) {
	var max *int
	err := repo.dbtx.QueryRow(ctx,
		`SELECT MAX(number) FROM revisions WHERE store_id = $1 AND domain = $2`,
		storeID, domain).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("getting max revision number: %w", err)
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// Create inserts a revision at the given number. The caller (service.go) is
// responsible for retrying on a unique-violation of (store_id, domain,
// number).
func (repo *Repo) Create(ctx context.Context, p PublishParams, number int) (Revision, error) {
	query := `INSERT INTO revisions (store_id, domain, number, payload, published_by)
		VALUES ($1, $2, $3, $4, $5) RETURNING ` + revisionColumns
	rv, err := scanRow(repo.dbtx.QueryRow(ctx, query, p.StoreID, p.Domain, number, p.Payload, p.PublishedBy))
	if err != nil {
		return Revision{}, err
	}
	return rv, nil
}

// LatestForDomain returns the latest revision for a single (store, domain).
func (repo *Repo) LatestForDomain(ctx context.Context, storeID uuid.UUID, domain string) (Revision, error) {
	query := `SELECT ` + revisionColumns + ` FROM revisions
		WHERE store_id = $1 AND domain = $2 ORDER BY number DESC LIMIT 1`
	rv, err := scanRow(repo.dbtx.QueryRow(ctx, query, storeID, domain))
	if err != nil {
		if err == pgx.ErrNoRows {
			return Revision{}, apperr.NotFoundf("no revisions published for domain %s", domain)
		}
		return Revision{}, fmt.Errorf("getting latest revision: %w", err)
	}
	return rv, nil
}

// StoreTenantRef looks up the minimal tenant shape the scope predicates need
// for a given store, without this package importing pkg/tenant.
func (repo *Repo) StoreTenantRef(ctx context.Context, storeID uuid.UUID) (auth.TenantRef, error) {
	query := `SELECT t.id, t.reseller_id FROM tenants t JOIN stores s ON s.tenant_id = t.id WHERE s.id = $1`
	var ref auth.TenantRef
	err := repo.dbtx.QueryRow(ctx, query, storeID).Scan(&ref.ID, &ref.ResellerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return auth.TenantRef{}, apperr.NotFoundf("store %s not found", storeID)
		}
		return auth.TenantRef{}, fmt.Errorf("resolving store tenant: %w", err)
	}
	return ref, nil
}

// LatestByDomain returns a {domain -> latest revision} map across all
// domains of a store.
func (repo *Repo) LatestByDomain(ctx context.Context, storeID uuid.UUID) (map[string]Revision, error) {
	query := `SELECT DISTINCT ON (domain) ` + revisionColumns + ` FROM revisions
		WHERE store_id = $1 ORDER BY domain, number DESC`
	rows, err := repo.dbtx.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing latest revisions by domain: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Revision)
	for rows.Next() {
		var rv Revision
		if err := rows.Scan(&rv.ID, &rv.StoreID, &rv.Domain, &rv.Number, &rv.Payload, &rv.PublishedBy, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning revision row: %w", err)
		}
		out[rv.Domain] = rv
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating revision rows: %w", err)
	}
	return out, nil
}
