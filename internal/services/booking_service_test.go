package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"

	"ridemate/internal/domain"
	"ridemate/internal/domain/models"
	"ridemate/internal/repositories"
)

// stubLocker hands the lock out immediately; the tests only care that
// the coordinator asks for it.
type stubLocker struct {
	locks int
}

func (l *stubLocker) Lock(ctx context.Context, tripID int64) (func(), error) {
	l.locks++
	return func() {}, nil
}

func newTestService(t *testing.T) (BookingService, sqlmock.Sqlmock, *stubLocker, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	locker := &stubLocker{}
	svc := BookingService{
		TripRepo:    repositories.TripRepo{DB: db},
		BookingRepo: repositories.BookingRepo{DB: db},
		DB:          db,
		Locker:      locker,
		Now:         func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.Local) },
	}
	return svc, mock, locker, func() { db.Close() }
}

var tripCols = []string{
	"id", "driver_id", "from_city", "from_state", "from_lat", "from_lng",
	"to_city", "to_state", "to_lat", "to_lng",
	"departure_date", "departure_time", "return_date", "return_time", "trip_type",
	"vehicle_type", "vehicle_model", "vehicle_number", "vehicle_color", "license_number",
	"available_seats", "booked_seats", "price_per_seat", "total_earnings",
	"status", "admin_remarks", "description", "is_active", "created_at", "updated_at",
}

func tripRow(id int64, departure time.Time, departureTime string, available, booked int, price, earnings int64, status string) *sqlmock.Rows {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.Local)
	return sqlmock.NewRows(tripCols).AddRow(
		id, int64(2), "Mumbai", "MH", nil, nil,
		"Pune", "MH", nil, nil,
		departure, departureTime, nil, "", "one-way",
		"sedan", "Honda City", "MH12AB1234", "white", "DL-123",
		available, booked, price, earnings,
		status, "", "", true, now, now,
	)
}

var bookingCols = []string{
	"id", "reference", "trip_id", "passenger_id", "seats_booked", "total_amount",
	"pickup_location", "pickup_time", "pickup_lat", "pickup_lng",
	"drop_location", "drop_time", "drop_lat", "drop_lng",
	"payment_method", "payment_status", "booking_status",
	"special_requests", "cancellation_reason", "cancelled_at", "refund_amount",
	"otp_code", "otp_generated_at", "otp_verified",
	"is_active", "created_at", "updated_at",
}

func bookingRow(id, tripID, passengerID int64, seats int, total int64, payStatus, bookStatus string) *sqlmock.Rows {
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.Local)
	return sqlmock.NewRows(bookingCols).AddRow(
		id, "ref-1", tripID, passengerID, seats, total,
		"Mumbai", "16:00", nil, nil,
		"Pune", "16:00", nil, nil,
		"online", payStatus, bookStatus,
		"", "", nil, int64(0),
		"4821", now, false,
		true, now, now,
	)
}

func validRequest(seats int) BookingRequest {
	details := make([]models.PassengerDetail, seats)
	for i := range details {
		details[i] = models.PassengerDetail{Name: "Asha", Age: 30, Gender: "female"}
	}
	return BookingRequest{
		TripID:           10,
		PassengerID:      7,
		SeatsBooked:      seats,
		PickupPoint:      models.Point{Location: "Dadar", Time: "15:30"},
		DropPoint:        models.Point{Location: "Shivajinagar", Time: "19:00"},
		PassengerDetails: details,
		PaymentMethod:    "online",
	}
}

func expectTripLoad(mock sqlmock.Sqlmock, rows *sqlmock.Rows, passengers *sqlmock.Rows) {
	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(10)).WillReturnRows(rows)
	mock.ExpectQuery("FROM trip_passengers").WithArgs(int64(10)).WillReturnRows(passengers)
}

func emptyPassengerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "trip_id", "user_id", "seats_booked", "booking_date", "status"})
}

func TestBookTrip_ReservesSeatsAndCreatesBooking(t *testing.T) {
	svc, mock, locker, done := newTestService(t)
	defer done()

	departure := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 0, 100, 0, "active"), emptyPassengerRows())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE trips").
		WithArgs(3, int64(300), int64(10), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO trip_passengers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(12, 1))
	for i := 0; i < 3; i++ {
		mock.ExpectExec("INSERT INTO booking_passengers").
			WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectCommit()

	booking, err := svc.BookTrip(context.Background(), validRequest(3))
	require.NoError(t, err)
	require.Equal(t, int64(12), booking.ID)
	require.Equal(t, int64(300), booking.TotalAmount)
	require.Equal(t, models.BookingStatusConfirmed, booking.BookingStatus)
	require.Equal(t, models.PaymentStatusPaid, booking.PaymentStatus)
	require.Len(t, booking.OTP.Code, 4)
	require.NotEmpty(t, booking.Reference)
	require.Equal(t, 1, locker.locks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTrip_InsufficientSeats(t *testing.T) {
	svc, mock, _, done := newTestService(t)
	defer done()

	departure := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 3, 100, 300, "active"), emptyPassengerRows())

	_, err := svc.BookTrip(context.Background(), validRequest(2))
	require.True(t, domain.IsCapacity(err), "want capacity error, got %v", err)

	var capErr domain.CapacityError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, 2, capErr.Requested)
	require.Equal(t, 1, capErr.Remaining)
	// No transaction may start once the capacity check fails.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTrip_DuplicateBooking(t *testing.T) {
	svc, mock, _, done := newTestService(t)
	defer done()

	departure := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)
	passengers := emptyPassengerRows().
		AddRow(int64(4), int64(10), int64(7), 2, time.Now(), "confirmed")
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 2, 100, 200, "active"), passengers)

	_, err := svc.BookTrip(context.Background(), validRequest(1))
	require.True(t, domain.IsDuplicateBooking(err), "want duplicate-booking error, got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTrip_TripNotBookable(t *testing.T) {
	svc, mock, _, done := newTestService(t)
	defer done()

	departure := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 0, 100, 0, "pending"), emptyPassengerRows())

	_, err := svc.BookTrip(context.Background(), validRequest(1))
	require.True(t, domain.IsValidation(err), "want validation error, got %v", err)
}

// The in-memory capacity check can pass on a stale snapshot; the
// conditional UPDATE inside the transaction is the guard that actually
// decides, and losing it must roll everything back.
func TestBookTrip_LosesRaceToConcurrentReservation(t *testing.T) {
	svc, mock, _, done := newTestService(t)
	defer done()

	departure := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 2, 100, 200, "active"), emptyPassengerRows())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE trips").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.BookTrip(context.Background(), validRequest(2))
	require.True(t, domain.IsCapacity(err), "want capacity error, got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookTrip_ValidationReportsEveryField(t *testing.T) {
	svc, _, locker, done := newTestService(t)
	defer done()

	_, err := svc.BookTrip(context.Background(), BookingRequest{})
	require.True(t, domain.IsValidation(err))

	var verr domain.ValidationErrors
	require.True(t, errors.As(err, &verr))

	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{
		"trip", "passenger", "seatsBooked",
		"pickupPoint.location", "pickupPoint.time",
		"dropPoint.location", "dropPoint.time",
		"passengerDetails",
	} {
		require.True(t, fields[want], "missing field %q in %v", want, fields)
	}
	require.Equal(t, 0, locker.locks, "invalid input must be rejected before locking")
}

func TestBookInline_SharesReservationProtocol(t *testing.T) {
	svc, mock, locker, done := newTestService(t)
	defer done()

	departure := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 1, 100, 100, "active"), emptyPassengerRows())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE trips").
		WithArgs(2, int64(200), int64(10), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO trip_passengers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(13, 1))
	mock.ExpectCommit()

	trip, err := svc.BookInline(context.Background(), 10, 7, 2)
	require.NoError(t, err)
	require.Equal(t, 3, trip.BookedSeats)
	require.Equal(t, int64(300), trip.TotalEarnings)
	require.Len(t, trip.Passengers, 1)
	require.Equal(t, "confirmed", trip.Passengers[0].Status)
	require.Equal(t, 1, locker.locks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking_RefundsAndReleasesSeats(t *testing.T) {
	svc, mock, locker, done := newTestService(t)
	defer done()

	// Departure 2026-05-02 16:00, now is 2026-05-01 10:00: 30 hours out,
	// so the passenger gets 90% back.
	departure := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)
	bookedAt := time.Date(2026, 4, 2, 9, 0, 0, 0, time.Local)
	passengers := emptyPassengerRows().
		AddRow(int64(4), int64(10), int64(7), 3, bookedAt, "confirmed")
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 3, 100, 300, "active"), passengers)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trip_passengers").
		WithArgs(int64(10), int64(7)).
		WillReturnRows(emptyPassengerRows().
			AddRow(int64(4), int64(10), int64(7), 3, bookedAt, "confirmed"))
	mock.ExpectExec("UPDATE trip_passengers").
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE trips").
		WithArgs(3, int64(300), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM bookings").
		WithArgs(int64(10), int64(7)).
		WillReturnRows(bookingRow(12, 10, 7, 3, 300, "paid", "confirmed"))
	mock.ExpectExec("UPDATE bookings").
		WithArgs("refunded", int64(270), "plans changed", sqlmock.AnyArg(), int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	trip, err := svc.CancelBooking(context.Background(), 10, 7, "plans changed")
	require.NoError(t, err)
	require.Equal(t, 0, trip.BookedSeats)
	require.Equal(t, int64(0), trip.TotalEarnings)
	require.Equal(t, "cancelled", trip.Passengers[0].Status)
	require.Equal(t, 1, locker.locks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking_NoConfirmedEntry(t *testing.T) {
	svc, mock, _, done := newTestService(t)
	defer done()

	departure := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 0, 100, 0, "active"), emptyPassengerRows())

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trip_passengers").
		WithArgs(int64(10), int64(7)).
		WillReturnRows(emptyPassengerRows())
	mock.ExpectRollback()

	_, err := svc.CancelBooking(context.Background(), 10, 7, "")
	require.True(t, domain.IsNotFound(err), "want not-found, got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyOTP_ExpiredAfterDeparture(t *testing.T) {
	svc, mock, _, done := newTestService(t)
	defer done()

	mock.ExpectQuery("FROM bookings").
		WithArgs(int64(12)).
		WillReturnRows(bookingRow(12, 10, 7, 3, 300, "paid", "confirmed"))
	mock.ExpectQuery("FROM booking_passengers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age", "gender", "phone"}))

	// Departed 2026-04-28 16:00, now is 2026-05-01 10:00: well past the
	// 24-hour grace window.
	departure := time.Date(2026, 4, 28, 0, 0, 0, 0, time.Local)
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 3, 100, 300, "active"), emptyPassengerRows())

	err := svc.VerifyOTP(context.Background(), 12, "4821")
	require.True(t, domain.IsValidation(err), "want expired-code validation error, got %v", err)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	svc, mock, _, done := newTestService(t)
	defer done()

	mock.ExpectQuery("FROM bookings").
		WithArgs(int64(12)).
		WillReturnRows(bookingRow(12, 10, 7, 3, 300, "paid", "confirmed"))
	mock.ExpectQuery("FROM booking_passengers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age", "gender", "phone"}))

	departure := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 3, 100, 300, "active"), emptyPassengerRows())

	err := svc.VerifyOTP(context.Background(), 12, "0000")
	require.True(t, domain.IsValidation(err), "want invalid-code validation error, got %v", err)
}

func TestVerifyOTP_HappyPath(t *testing.T) {
	svc, mock, _, done := newTestService(t)
	defer done()

	mock.ExpectQuery("FROM bookings").
		WithArgs(int64(12)).
		WillReturnRows(bookingRow(12, 10, 7, 3, 300, "paid", "confirmed"))
	mock.ExpectQuery("FROM booking_passengers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age", "gender", "phone"}))

	departure := time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local)
	expectTripLoad(mock, tripRow(10, departure, "16:00", 4, 3, 100, 300, "active"), emptyPassengerRows())

	mock.ExpectExec("UPDATE bookings SET otp_verified=1").
		WithArgs(int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.VerifyOTP(context.Background(), 12, "4821"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResendOTP_GeneratesFreshCode(t *testing.T) {
	svc, mock, _, done := newTestService(t)
	defer done()

	rdb, rmock := redismock.NewClientMock()
	svc.Redis = rdb

	mock.ExpectQuery("FROM bookings").
		WithArgs(int64(12)).
		WillReturnRows(bookingRow(12, 10, 7, 3, 300, "paid", "confirmed"))
	mock.ExpectQuery("FROM booking_passengers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age", "gender", "phone"}))

	rmock.ExpectIncr("otp_resend:12").SetVal(1)
	rmock.ExpectExpire("otp_resend:12", time.Hour).SetVal(true)

	mock.ExpectExec("UPDATE bookings SET otp_code").
		WillReturnResult(sqlmock.NewResult(0, 1))

	code, err := svc.ResendOTP(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, code, 4)
	require.NoError(t, rmock.ExpectationsWereMet())
}

func TestResendOTP_RateLimited(t *testing.T) {
	svc, mock, _, done := newTestService(t)
	defer done()

	rdb, rmock := redismock.NewClientMock()
	svc.Redis = rdb

	mock.ExpectQuery("FROM bookings").
		WithArgs(int64(12)).
		WillReturnRows(bookingRow(12, 10, 7, 3, 300, "paid", "confirmed"))
	mock.ExpectQuery("FROM booking_passengers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age", "gender", "phone"}))

	rmock.ExpectIncr("otp_resend:12").SetVal(4)

	_, err := svc.ResendOTP(context.Background(), 12)
	require.True(t, domain.IsConflict(err), "want conflict past the resend limit, got %v", err)
	require.NoError(t, rmock.ExpectationsWereMet())
}
