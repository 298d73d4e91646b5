package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ridemate/internal/domain"
)

func TestReserveSeats_CapacityAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE trips").
		WithArgs(2, int64(200), int64(10), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := TripRepo{DB: db}
	if err := repo.ReserveSeats(context.Background(), nil, 10, 2, 200); err != nil {
		t.Fatalf("expected reservation to succeed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveSeats_GuardRejectsOverbooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// The conditional WHERE matches no row when the seats no longer fit.
	mock.ExpectExec("UPDATE trips").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := TripRepo{DB: db}
	err = repo.ReserveSeats(context.Background(), nil, 10, 3, 300)
	if err == nil {
		t.Fatalf("expected capacity error when the guard matches no row")
	}
	if !domain.IsCapacity(err) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelPassenger_NoConfirmedEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM trip_passengers").
		WithArgs(int64(10), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "user_id", "seats_booked", "booking_date", "status"}))

	repo := TripRepo{DB: db}
	_, err = repo.CancelPassenger(context.Background(), nil, 10, 7)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not-found for user without a confirmed entry, got %v", err)
	}
}

func TestCancelPassenger_FlipsLatestConfirmedEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	bookedAt := time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local)
	mock.ExpectQuery("FROM trip_passengers").
		WithArgs(int64(10), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "user_id", "seats_booked", "booking_date", "status"}).
			AddRow(int64(4), int64(10), int64(7), 3, bookedAt, "confirmed"))
	mock.ExpectExec("UPDATE trip_passengers").
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := TripRepo{DB: db}
	entry, err := repo.CancelPassenger(context.Background(), nil, 10, 7)
	if err != nil {
		t.Fatalf("expected cancellation to succeed, got %v", err)
	}
	if entry.SeatsBooked != 3 {
		t.Fatalf("released seats = %d, want 3", entry.SeatsBooked)
	}
	if entry.Status != "cancelled" {
		t.Fatalf("entry status = %q, want cancelled", entry.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
