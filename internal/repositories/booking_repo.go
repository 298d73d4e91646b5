package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	intconfig "ridemate/internal/config"
	"ridemate/internal/domain"
	"ridemate/internal/domain/models"
)

type BookingRepo struct {
	DB *sql.DB
}

func (r BookingRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingColumns = `id, reference, trip_id, passenger_id, seats_booked, total_amount,
		pickup_location, pickup_time, pickup_lat, pickup_lng,
		drop_location, drop_time, drop_lat, drop_lng,
		payment_method, payment_status, booking_status,
		special_requests, cancellation_reason, cancelled_at, refund_amount,
		otp_code, otp_generated_at, otp_verified,
		is_active, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (models.Booking, error) {
	var b models.Booking
	var paymentStatus, bookingStatus string
	var cancelledAt, otpGeneratedAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.Reference, &b.TripID, &b.PassengerID, &b.SeatsBooked, &b.TotalAmount,
		&b.PickupPoint.Location, &b.PickupPoint.Time, &b.PickupPoint.Latitude, &b.PickupPoint.Longitude,
		&b.DropPoint.Location, &b.DropPoint.Time, &b.DropPoint.Latitude, &b.DropPoint.Longitude,
		&b.PaymentMethod, &paymentStatus, &bookingStatus,
		&b.SpecialRequests, &b.CancellationReason, &cancelledAt, &b.RefundAmount,
		&b.OTP.Code, &otpGeneratedAt, &b.OTP.Verified,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return models.Booking{}, err
	}
	b.PaymentStatus = models.PaymentStatus(paymentStatus)
	b.BookingStatus = models.BookingStatus(bookingStatus)
	if cancelledAt.Valid {
		b.CancelledAt = &cancelledAt.Time
	}
	if otpGeneratedAt.Valid {
		b.OTP.GeneratedAt = otpGeneratedAt.Time
	}
	return b, nil
}

// Create inserts the booking row plus one booking_passengers row per
// traveller. Run it inside the coordinator's transaction.
func (r BookingRepo) Create(ctx context.Context, q Queryer, b *models.Booking) error {
	if q == nil {
		q = r.db()
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO bookings (reference, trip_id, passenger_id, seats_booked, total_amount,
			pickup_location, pickup_time, pickup_lat, pickup_lng,
			drop_location, drop_time, drop_lat, drop_lng,
			payment_method, payment_status, booking_status, special_requests,
			otp_code, otp_generated_at, otp_verified, is_active)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,0,1)`,
		b.Reference, b.TripID, b.PassengerID, b.SeatsBooked, b.TotalAmount,
		b.PickupPoint.Location, b.PickupPoint.Time, b.PickupPoint.Latitude, b.PickupPoint.Longitude,
		b.DropPoint.Location, b.DropPoint.Time, b.DropPoint.Latitude, b.DropPoint.Longitude,
		b.PaymentMethod, string(b.PaymentStatus), string(b.BookingStatus), b.SpecialRequests,
		b.OTP.Code, b.OTP.GeneratedAt,
	)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	b.ID = id

	for i := range b.PassengerDetails {
		d := &b.PassengerDetails[i]
		res, err := q.ExecContext(ctx, `
			INSERT INTO booking_passengers (booking_id, name, age, gender, phone)
			VALUES (?,?,?,?,?)`,
			b.ID, strings.TrimSpace(d.Name), d.Age, d.Gender, strings.TrimSpace(d.Phone))
		if err != nil {
			return domain.InternalError{Err: err}
		}
		if did, err := res.LastInsertId(); err == nil {
			d.ID = did
		}
	}
	return nil
}

func (r BookingRepo) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=?`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking"}
		}
		return models.Booking{}, domain.InternalError{Err: err}
	}
	details, err := r.loadDetails(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	b.PassengerDetails = details
	return b, nil
}

func (r BookingRepo) loadDetails(ctx context.Context, bookingID int64) ([]models.PassengerDetail, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, name, age, gender, phone
		FROM booking_passengers WHERE booking_id=? ORDER BY id`, bookingID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.PassengerDetail
	for rows.Next() {
		var d models.PassengerDetail
		if err := rows.Scan(&d.ID, &d.Name, &d.Age, &d.Gender, &d.Phone); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return out, nil
}

// FindConfirmed returns the confirmed booking for a trip/passenger
// pair, the one a cancellation applies to.
func (r BookingRepo) FindConfirmed(ctx context.Context, q Queryer, tripID, passengerID int64) (models.Booking, error) {
	if q == nil {
		q = r.db()
	}
	row := q.QueryRowContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE trip_id=? AND passenger_id=? AND booking_status='confirmed'
		ORDER BY id DESC LIMIT 1`, tripID, passengerID)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking"}
		}
		return models.Booking{}, domain.InternalError{Err: err}
	}
	return b, nil
}

// Cancel records the cancellation outcome computed by the coordinator.
func (r BookingRepo) Cancel(ctx context.Context, q Queryer, id int64, refund int64, paymentStatus models.PaymentStatus, reason string, at time.Time) error {
	if q == nil {
		q = r.db()
	}
	res, err := q.ExecContext(ctx, `
		UPDATE bookings
		SET booking_status='cancelled', payment_status=?, refund_amount=?,
		    cancellation_reason=?, cancelled_at=?
		WHERE id=? AND booking_status='confirmed'`,
		string(paymentStatus), refund, reason, at, id,
	)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

// SetOTP stores a freshly generated code.
func (r BookingRepo) SetOTP(ctx context.Context, id int64, otp models.OTP) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE bookings SET otp_code=?, otp_generated_at=?, otp_verified=0 WHERE id=?`,
		otp.Code, otp.GeneratedAt, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

// MarkOTPVerified flips the verified flag exactly once.
func (r BookingRepo) MarkOTPVerified(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE bookings SET otp_verified=1 WHERE id=? AND otp_verified=0`, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ConflictError{Resource: "otp", Msg: "already verified"}
	}
	return nil
}

type BookingFilter struct {
	TripID        int64
	BookingStatus string
	PaymentStatus string
	Page          int
	PageSize      int
}

// List returns bookings for the admin view, newest first.
func (r BookingRepo) List(ctx context.Context, f BookingFilter) ([]models.Booking, int, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 10
	}

	where := []string{"1=1"}
	args := []any{}
	if f.TripID != 0 {
		where = append(where, "trip_id=?")
		args = append(args, f.TripID)
	}
	if f.BookingStatus != "" {
		where = append(where, "booking_status=?")
		args = append(args, f.BookingStatus)
	}
	if f.PaymentStatus != "" {
		where = append(where, "payment_status=?")
		args = append(args, f.PaymentStatus)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, domain.InternalError{Err: err}
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	rows, err := r.db().QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE `+cond+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, 0, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, domain.InternalError{Err: err}
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.InternalError{Err: err}
	}
	return out, total, nil
}

// ListByPassenger returns a passenger's bookings, newest first.
func (r BookingRepo) ListByPassenger(ctx context.Context, passengerID int64) ([]models.Booking, error) {
	rows, err := r.db().QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE passenger_id=? ORDER BY created_at DESC`,
		passengerID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return out, nil
}
