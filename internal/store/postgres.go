package store

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/models"
)

// PostgresStore reads documents from the items, requests and users tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (s *PostgresStore) ListExpiringBefore(ctx context.Context, threshold time.Time) ([]models.StockItem, error) {
	statement, args, err := psql().
		Select("id", "quantity", "expiration_date").
		From("items").
		Where(sq.Gt{"quantity": 0}).
		Where(sq.LtOrEq{"expiration_date": threshold}).
		ToSql()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("items.expiring", err)
	}

	rows, err := s.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("items.expiring", err)
	}
	defer rows.Close()

	var items []models.StockItem
	for rows.Next() {
		var (
			item       models.StockItem
			expiration sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.Quantity, &expiration); err != nil {
			return nil, errors.NewQueryExecutionFailedError("items.expiring", err)
		}
		if expiration.Valid {
			t := expiration.Time
			item.ExpirationDate = &t
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("items.expiring", err)
	}
	return items, nil
}

func (s *PostgresStore) ListScheduledBetween(ctx context.Context, status int, start, end time.Time) ([]models.Request, error) {
	statement, args, err := psql().
		Select("id", "status", "user_id", "scheduled_pickup_date").
		From("requests").
		Where(sq.Eq{"status": status}).
		Where(sq.GtOrEq{"scheduled_pickup_date": start}).
		Where(sq.LtOrEq{"scheduled_pickup_date": end}).
		ToSql()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("requests.scheduled", err)
	}

	rows, err := s.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("requests.scheduled", err)
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var (
			req       models.Request
			userID    sql.NullString
			scheduled sql.NullTime
		)
		if err := rows.Scan(&req.ID, &req.Status, &userID, &scheduled); err != nil {
			return nil, errors.NewQueryExecutionFailedError("requests.scheduled", err)
		}
		req.UserID = userID.String
		if scheduled.Valid {
			t := scheduled.Time
			req.ScheduledPickupDate = &t
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("requests.scheduled", err)
	}
	return requests, nil
}

func userColumns() []string {
	return []string{"id", "fcm_token", "is_admin", "name", "email"}
}

func scanRecipient(scanner interface{ Scan(...interface{}) error }) (models.Recipient, error) {
	var (
		r     models.Recipient
		token sql.NullString
		name  sql.NullString
		email sql.NullString
	)
	if err := scanner.Scan(&r.UID, &token, &r.IsAdmin, &name, &email); err != nil {
		return r, err
	}
	r.Token = token.String
	r.Name = name.String
	r.Email = email.String
	return r, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, uid string) (*models.Recipient, error) {
	statement, args, err := psql().
		Select(userColumns()...).
		From("users").
		Where(sq.Eq{"id": uid}).
		ToSql()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("users.get", err)
	}

	r, err := scanRecipient(s.db.QueryRowContext(ctx, statement, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("users.get", err)
	}
	return &r, nil
}

func (s *PostgresStore) ListAdmins(ctx context.Context) ([]models.Recipient, error) {
	statement, args, err := psql().
		Select(userColumns()...).
		From("users").
		Where(sq.Eq{"is_admin": true}).
		ToSql()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("users.admins", err)
	}

	rows, err := s.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("users.admins", err)
	}
	defer rows.Close()

	var admins []models.Recipient
	for rows.Next() {
		r, err := scanRecipient(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("users.admins", err)
		}
		admins = append(admins, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("users.admins", err)
	}
	return admins, nil
}

func (s *PostgresStore) ClearPushToken(ctx context.Context, uid, token string) (bool, error) {
	statement, args, err := psql().
		Update("users").
		Set("fcm_token", sq.Expr("NULL")).
		Where(sq.Eq{"id": uid}).
		Where(sq.Eq{"fcm_token": token}).
		ToSql()
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("users.clear_token", err)
	}

	result, err := s.db.ExecContext(ctx, statement, args...)
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("users.clear_token", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("users.clear_token", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
