package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
)

// RegistrationRepository provides database access for pending registration
// requests.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository creates a new instance of RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a pending request with status=pending.
func (r *RegistrationRepository) Create(ctx context.Context, req *models.PendingRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.Status = models.RequestStatusPending

	const query = `INSERT INTO pending_requests (id, name, email, role, class, subject, status, created_at) VALUES (:id, :name, :email, :role, :class, :subject, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create pending request: %w", err)
	}
	return nil
}

// FindByID returns a pending request by identifier.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.PendingRequest, error) {
	const query = `SELECT id, name, email, role, class, subject, status, created_at, approved_at, approved_by FROM pending_requests WHERE id = $1 LIMIT 1`
	var req models.PendingRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find pending request by id: %w", err)
	}
	return &req, nil
}

// List returns requests newest first with total count. Requests carrying the
// admin role are excluded in the query itself; they must never reach the
// decision surface regardless of how they were inserted.
func (r *RegistrationRepository) List(ctx context.Context, filter models.PendingRequestFilter) ([]models.PendingRequest, int, error) {
	baseQuery := `FROM pending_requests WHERE role IN ('student', 'teacher')`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, name, email, role, class, subject, status, created_at, approved_at, approved_by %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var requests []models.PendingRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list pending requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count pending requests: %w", err)
	}

	return requests, total, nil
}

// CountPending returns the number of undecided requests.
func (r *RegistrationRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM pending_requests WHERE status = 'pending' AND role IN ('student', 'teacher')`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return total, nil
}

// MarkApproved transitions a request to approved. The status guard keeps
// terminal states monotonic: the update only lands while the row is still
// pending. Returns false when no row transitioned.
func (r *RegistrationRepository) MarkApproved(ctx context.Context, id, approvedBy string, ts time.Time) (bool, error) {
	const query = `UPDATE pending_requests SET status = 'approved', approved_at = $2, approved_by = $3 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, ts, approvedBy)
	if err != nil {
		return false, fmt.Errorf("mark request approved: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark request approved: %w", err)
	}
	return affected > 0, nil
}

// MarkRejected transitions a request to rejected under the same guard.
func (r *RegistrationRepository) MarkRejected(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE pending_requests SET status = 'rejected' WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark request rejected: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark request rejected: %w", err)
	}
	return affected > 0, nil
}
