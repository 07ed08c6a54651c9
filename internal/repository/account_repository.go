package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/HieuTrannn/fibo-academic-api/internal/models"
)

// AccountRepository is the read-only account lookup used to decorate
// membership responses. Accounts are owned by the identity service; this
// repository never mutates them.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs the repository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = "id, first_name, last_name, email, student_id, role, status"

// FindByID returns the account or nil when absent.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE id = $1", accountColumns)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &account, nil
}

// FindByIDs resolves a batch of account ids, returning only those found.
func (r *AccountRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Account, error) {
	if len(ids) == 0 {
		return map[string]models.Account{}, nil
	}
	const chunkSize = 100
	found := make(map[string]models.Account, len(ids))
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		placeholders := make([]string, len(chunk))
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}
		query := fmt.Sprintf("SELECT %s FROM accounts WHERE id IN (%s)", accountColumns, strings.Join(placeholders, ","))
		var accounts []models.Account
		if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
			return nil, fmt.Errorf("resolve accounts: %w", err)
		}
		for _, a := range accounts {
			found[a.ID] = a
		}
	}
	return found, nil
}
