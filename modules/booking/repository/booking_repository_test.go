package repository

import (
	"context"
	"testing"
	"time"

	"smart-schedule/core/database"
	"smart-schedule/core/interval"
	"smart-schedule/modules/booking/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (database.Database, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return database.NewFromSQLx(sqlx.NewDb(db, "sqlmock")), mock
}

func TestCountInBucket(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingCountRepository(db)
	eventTypeID := uuid.New()

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	bucket := entity.Bucket{Granularity: entity.GranularityDay, Key: "2024-01-08", Location: berlin}
	from := time.Date(2024, time.January, 8, 0, 0, 0, 0, berlin)

	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM bookings`).
		WithArgs(eventTypeID, sqlmock.AnyArg(), from, from.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountInBucket(context.Background(), eventTypeID, bucket)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountInBucketPropagatesErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingCountRepository(db)

	mock.ExpectQuery(`SELECT COUNT`).WillReturnError(assert.AnError)

	_, err := repo.CountInBucket(context.Background(), uuid.New(), entity.Bucket{Granularity: entity.GranularityMonth, Key: "2024-01"})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCountInBucketRejectsBadKey(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewBookingCountRepository(db)

	_, err := repo.CountInBucket(context.Background(), uuid.New(), entity.Bucket{Granularity: entity.GranularityWeek, Key: "2024-13"})
	assert.Error(t, err)
}

func TestListBusy(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	hostID, eventTypeID, bookingID := uuid.New(), uuid.New(), uuid.New()
	start := time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)
	rng := interval.New(start.Add(-10*time.Hour), start.Add(14*time.Hour))

	mock.ExpectQuery(`FROM bookings\s+WHERE host_id = \$1`).
		WithArgs(hostID, sqlmock.AnyArg(), rng.Start, rng.End).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type_id", "host_id", "start_time", "end_time", "status"}).
			AddRow(bookingID.String(), eventTypeID.String(), hostID.String(), start, start.Add(30*time.Minute), "accepted"))

	bookings, err := repo.ListBusy(context.Background(), hostID, rng)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, bookingID, bookings[0].ID)
	assert.Equal(t, entity.BookingStatusAccepted, bookings[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
