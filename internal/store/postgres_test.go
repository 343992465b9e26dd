package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodbank-notifier/internal/common/errors"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_ListExpiringBefore(t *testing.T) {
	s, mock := newMockStore(t)
	threshold := time.Date(2024, 5, 13, 12, 0, 0, 0, time.UTC)
	exp := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "quantity", "expiration_date"}).
		AddRow("item-1", 4, exp).
		AddRow("item-2", 1, nil)
	mock.ExpectQuery(`SELECT id, quantity, expiration_date FROM items WHERE quantity > \$1 AND expiration_date <= \$2`).
		WithArgs(0, threshold).
		WillReturnRows(rows)

	items, err := s.ListExpiringBefore(context.Background(), threshold)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "item-1", items[0].ID)
	assert.Equal(t, 4, items[0].Quantity)
	require.NotNil(t, items[0].ExpirationDate)
	assert.True(t, exp.Equal(*items[0].ExpirationDate))
	assert.Nil(t, items[1].ExpirationDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListExpiringBefore_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT id, quantity, expiration_date FROM items`).
		WillReturnError(stderrors.New("connection refused"))

	items, err := s.ListExpiringBefore(context.Background(), time.Now())
	assert.Nil(t, items)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeQueryExecutionFailed))
}

func TestPostgresStore_ListScheduledBetween(t *testing.T) {
	s, mock := newMockStore(t)
	start := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)
	pickup := start.Add(10 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "status", "user_id", "scheduled_pickup_date"}).
		AddRow("req-1", 1, "user-1", pickup).
		AddRow("req-2", 1, nil, pickup)
	mock.ExpectQuery(`SELECT id, status, user_id, scheduled_pickup_date FROM requests WHERE status = \$1 AND scheduled_pickup_date >= \$2 AND scheduled_pickup_date <= \$3`).
		WithArgs(1, start, end).
		WillReturnRows(rows)

	requests, err := s.ListScheduledBetween(context.Background(), 1, start, end)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "user-1", requests[0].UserID)
	assert.Equal(t, "", requests[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUser(t *testing.T) {
	tests := []struct {
		name      string
		mockQuery func(mock sqlmock.Sqlmock)
		wantToken string
		wantErr   error
		wantCode  errors.ErrorCode
	}{
		{
			name: "found",
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, fcm_token, is_admin, name, email FROM users WHERE id = \$1`).
					WithArgs("user-1").
					WillReturnRows(sqlmock.NewRows(userColumns()).AddRow("user-1", "tok-1", false, "Ana", nil))
			},
			wantToken: "tok-1",
		},
		{
			name: "missing row",
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
					WithArgs("user-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "store failure",
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
					WithArgs("user-1").
					WillReturnError(stderrors.New("timeout"))
			},
			wantCode: errors.ErrCodeQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.mockQuery(mock)

			user, err := s.GetUser(context.Background(), "user-1")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantCode != "":
				assert.True(t, errors.IsCode(err, tt.wantCode))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, user.Token)
				assert.Equal(t, "Ana", user.Name)
				assert.Equal(t, "", user.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_ListAdmins(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows(userColumns()).
		AddRow("admin-1", "tok-a", true, "Maria", "maria@example.org").
		AddRow("admin-2", nil, true, nil, nil)
	mock.ExpectQuery(`SELECT id, fcm_token, is_admin, name, email FROM users WHERE is_admin = \$1`).
		WithArgs(true).
		WillReturnRows(rows)

	admins, err := s.ListAdmins(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.True(t, admins[0].HasToken())
	assert.False(t, admins[1].HasToken())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ClearPushToken(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE users SET fcm_token = NULL WHERE id = \$1 AND fcm_token = \$2`).
		WithArgs("user-1", "stale").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET fcm_token = NULL WHERE id = \$1 AND fcm_token = \$2`).
		WithArgs("user-2", "rotated").
		WillReturnResult(sqlmock.NewResult(0, 0))

	cleared, err := s.ClearPushToken(context.Background(), "user-1", "stale")
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = s.ClearPushToken(context.Background(), "user-2", "rotated")
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}
