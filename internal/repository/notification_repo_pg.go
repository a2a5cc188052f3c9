package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id int64) (*domain.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, userID int64, forAdmin bool) (int64, error)
	List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error)
	Count(ctx context.Context, filter domain.NotificationFilter) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type PGNotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) NotificationRepository {
	return &PGNotificationRepository{db: db}
}

const notificationColumns = `id, user_id, booking_id, message, type, for_admin, is_read, created_at, updated_at`

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.BookingID, &n.Message, &n.Type, &n.ForAdmin, &n.IsRead,
		&n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *PGNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	n.IsRead = false
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO notifications (user_id, booking_id, message, type, for_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`, n.UserID, n.BookingID, n.Message, n.Type, n.ForAdmin).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", mapErr(err, "notification"))
	}
	return nil
}

func (r *PGNotificationRepository) GetByID(ctx context.Context, id int64) (*domain.Notification, error) {
	n, err := scanNotification(conn(ctx, r.db).QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err, "notification")
	}
	return n, nil
}

// MarkRead is idempotent: an already read notification still counts as found.
func (r *PGNotificationRepository) MarkRead(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `UPDATE notifications SET is_read=true, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("notification not found")
	}
	return nil
}

func (r *PGNotificationRepository) MarkAllRead(ctx context.Context, userID int64, forAdmin bool) (int64, error) {
	cmd, err := conn(ctx, r.db).Exec(ctx, `UPDATE notifications SET is_read=true, updated_at=now()
		WHERE user_id=$1 AND for_admin=$2 AND NOT is_read`, userID, forAdmin)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func whereNotifications(filter domain.NotificationFilter) (string, []any) {
	conds := []string{"user_id=$1"}
	args := []any{filter.UserID}
	if filter.ForAdmin != nil {
		args = append(args, *filter.ForAdmin)
		conds = append(conds, fmt.Sprintf("for_admin=$%d", len(args)))
	}
	if filter.UnreadOnly {
		conds = append(conds, "NOT is_read")
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PGNotificationRepository) List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error) {
	where, args := whereNotifications(filter)
	query := `SELECT ` + notificationColumns + ` FROM notifications` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (r *PGNotificationRepository) Count(ctx context.Context, filter domain.NotificationFilter) (int64, error) {
	where, args := whereNotifications(filter)
	var count int64
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT count(*) FROM notifications`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}

func (r *PGNotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM notifications WHERE is_read AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete read notifications: %w", err)
	}
	return cmd.RowsAffected(), nil
}

var _ NotificationRepository = (*PGNotificationRepository)(nil)
