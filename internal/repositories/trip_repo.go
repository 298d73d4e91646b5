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

type TripRepo struct {
	DB *sql.DB
}

func (r TripRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const tripColumns = `id, driver_id, from_city, from_state, from_lat, from_lng,
		to_city, to_state, to_lat, to_lng,
		departure_date, departure_time, return_date, COALESCE(return_time, ''), trip_type,
		vehicle_type, vehicle_model, vehicle_number, vehicle_color, license_number,
		available_seats, booked_seats, price_per_seat, total_earnings,
		status, admin_remarks, description, is_active, created_at, updated_at`

func scanTrip(row interface{ Scan(...any) error }) (models.Trip, error) {
	var t models.Trip
	var status string
	var returnDate sql.NullTime
	err := row.Scan(
		&t.ID, &t.DriverID, &t.From.City, &t.From.State, &t.From.Latitude, &t.From.Longitude,
		&t.To.City, &t.To.State, &t.To.Latitude, &t.To.Longitude,
		&t.DepartureDate, &t.DepartureTime, &returnDate, &t.ReturnTime, &t.TripType,
		&t.Vehicle.Type, &t.Vehicle.Model, &t.Vehicle.Number, &t.Vehicle.Color, &t.LicenseNumber,
		&t.AvailableSeats, &t.BookedSeats, &t.PricePerSeat, &t.TotalEarnings,
		&status, &t.AdminRemarks, &t.Description, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return models.Trip{}, err
	}
	t.Status = models.TripStatus(status)
	if returnDate.Valid {
		t.ReturnDate = &returnDate.Time
	}
	return t, nil
}

// GetByID loads a trip together with its embedded passenger list.
func (r TripRepo) GetByID(ctx context.Context, q Queryer, id int64) (models.Trip, error) {
	if q == nil {
		q = r.db()
	}
	row := q.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=?`, id)
	t, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Trip{}, domain.NotFoundError{Resource: "trip"}
		}
		return models.Trip{}, domain.InternalError{Err: err}
	}
	passengers, err := r.loadPassengers(ctx, q, id)
	if err != nil {
		return models.Trip{}, err
	}
	t.Passengers = passengers
	return t, nil
}

func (r TripRepo) loadPassengers(ctx context.Context, q Queryer, tripID int64) ([]models.TripPassenger, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, trip_id, user_id, seats_booked, booking_date, status
		FROM trip_passengers WHERE trip_id=? ORDER BY id`, tripID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.TripPassenger
	for rows.Next() {
		var p models.TripPassenger
		if err := rows.Scan(&p.ID, &p.TripID, &p.UserID, &p.SeatsBooked, &p.BookingDate, &p.Status); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return out, nil
}

type TripSearch struct {
	FromCity string
	ToCity   string
	Date     *time.Time
	Seats    int
}

// Search returns bookable trips matching the route with enough
// remaining seats, soonest departures first.
func (r TripRepo) Search(ctx context.Context, f TripSearch) ([]models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE from_city=? AND to_city=?
		  AND is_active=1 AND status IN ('active','approved')
		  AND available_seats - booked_seats >= ?`
	args := []any{strings.TrimSpace(f.FromCity), strings.TrimSpace(f.ToCity), f.Seats}

	if f.Date != nil {
		day := f.Date.Truncate(24 * time.Hour)
		query += ` AND departure_date >= ? AND departure_date < ?`
		args = append(args, day, day.AddDate(0, 0, 1))
	} else {
		query += ` AND departure_date >= CURDATE()`
	}
	query += ` ORDER BY departure_date, departure_time LIMIT 50`

	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return out, nil
}

func (r TripRepo) ListByDriver(ctx context.Context, driverID int64) ([]models.Trip, error) {
	rows, err := r.db().QueryContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE driver_id=? ORDER BY created_at DESC`, driverID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return out, nil
}

func (r TripRepo) Create(ctx context.Context, t *models.Trip) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO trips (driver_id, from_city, from_state, from_lat, from_lng,
			to_city, to_state, to_lat, to_lng,
			departure_date, departure_time, return_date, return_time, trip_type,
			vehicle_type, vehicle_model, vehicle_number, vehicle_color, license_number,
			available_seats, booked_seats, price_per_seat, total_earnings,
			status, description, is_active)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,0,?,0,'pending',?,1)`,
		t.DriverID, t.From.City, t.From.State, t.From.Latitude, t.From.Longitude,
		t.To.City, t.To.State, t.To.Latitude, t.To.Longitude,
		t.DepartureDate, t.DepartureTime, t.ReturnDate, nullIfEmpty(t.ReturnTime), t.TripType,
		t.Vehicle.Type, t.Vehicle.Model, strings.ToUpper(t.Vehicle.Number), t.Vehicle.Color, t.LicenseNumber,
		t.AvailableSeats, t.PricePerSeat, t.Description,
	)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	t.ID = id
	t.Status = models.TripStatusPending
	return nil
}

// Update rewrites driver-editable fields. Seat counters and earnings
// are owned by the booking coordinator and never touched here.
func (r TripRepo) Update(ctx context.Context, t models.Trip) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE trips SET from_city=?, from_state=?, from_lat=?, from_lng=?,
			to_city=?, to_state=?, to_lat=?, to_lng=?,
			departure_date=?, departure_time=?, return_date=?, return_time=?, trip_type=?,
			vehicle_type=?, vehicle_model=?, vehicle_number=?, vehicle_color=?, license_number=?,
			available_seats=?, price_per_seat=?, description=?
		WHERE id=?`,
		t.From.City, t.From.State, t.From.Latitude, t.From.Longitude,
		t.To.City, t.To.State, t.To.Latitude, t.To.Longitude,
		t.DepartureDate, t.DepartureTime, t.ReturnDate, nullIfEmpty(t.ReturnTime), t.TripType,
		t.Vehicle.Type, t.Vehicle.Model, strings.ToUpper(t.Vehicle.Number), t.Vehicle.Color, t.LicenseNumber,
		t.AvailableSeats, t.PricePerSeat, t.Description,
		t.ID,
	)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

func (r TripRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM trips WHERE id=?`, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

// ReserveSeats books seats and records the earnings delta in one
// conditional UPDATE. The WHERE clause re-checks capacity so two
// concurrent reservations can never jointly exceed available_seats,
// whatever the callers saw in memory.
func (r TripRepo) ReserveSeats(ctx context.Context, q Queryer, tripID int64, seats int, amount int64) error {
	if q == nil {
		q = r.db()
	}
	res, err := q.ExecContext(ctx, `
		UPDATE trips
		SET booked_seats = booked_seats + ?, total_earnings = total_earnings + ?
		WHERE id = ? AND booked_seats + ? <= available_seats`,
		seats, amount, tripID, seats,
	)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.CapacityError{TripID: tripID, Requested: seats}
	}
	return nil
}

// ReleaseSeats reverses a reservation, clamped at zero.
func (r TripRepo) ReleaseSeats(ctx context.Context, q Queryer, tripID int64, seats int, amount int64) error {
	if q == nil {
		q = r.db()
	}
	_, err := q.ExecContext(ctx, `
		UPDATE trips
		SET booked_seats = GREATEST(booked_seats - ?, 0),
		    total_earnings = GREATEST(total_earnings - ?, 0)
		WHERE id = ?`,
		seats, amount, tripID,
	)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// AddPassenger appends a confirmed entry to the trip's passenger list.
func (r TripRepo) AddPassenger(ctx context.Context, q Queryer, p models.TripPassenger) error {
	if q == nil {
		q = r.db()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO trip_passengers (trip_id, user_id, seats_booked, booking_date, status)
		VALUES (?,?,?,?,'confirmed')`,
		p.TripID, p.UserID, p.SeatsBooked, p.BookingDate,
	)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// CancelPassenger flips the confirmed entry for userID to cancelled and
// returns the seats it held.
func (r TripRepo) CancelPassenger(ctx context.Context, q Queryer, tripID, userID int64) (models.TripPassenger, error) {
	if q == nil {
		q = r.db()
	}
	var p models.TripPassenger
	err := q.QueryRowContext(ctx, `
		SELECT id, trip_id, user_id, seats_booked, booking_date, status
		FROM trip_passengers
		WHERE trip_id=? AND user_id=? AND status='confirmed'
		ORDER BY id DESC LIMIT 1`, tripID, userID).
		Scan(&p.ID, &p.TripID, &p.UserID, &p.SeatsBooked, &p.BookingDate, &p.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TripPassenger{}, domain.NotFoundError{Resource: "booking"}
		}
		return models.TripPassenger{}, domain.InternalError{Err: err}
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE trip_passengers SET status='cancelled' WHERE id=?`, p.ID); err != nil {
		return models.TripPassenger{}, domain.InternalError{Err: err}
	}
	p.Status = "cancelled"
	return p, nil
}

// HasConfirmedPassenger reports whether userID already holds an active
// reservation on the trip.
func (r TripRepo) HasConfirmedPassenger(ctx context.Context, q Queryer, tripID, userID int64) (bool, error) {
	if q == nil {
		q = r.db()
	}
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM trip_passengers
		WHERE trip_id=? AND user_id=? AND status='confirmed'`, tripID, userID).Scan(&n)
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	return n > 0, nil
}

// SetStatus records an admin decision on the trip.
func (r TripRepo) SetStatus(ctx context.Context, id int64, status models.TripStatus, remarks string) error {
	res, err := r.db().ExecContext(ctx,
		`UPDATE trips SET status=?, admin_remarks=? WHERE id=?`, string(status), remarks, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

// CancelActiveByDriver cancels every pending/active trip owned by the
// driver, used when an admin deactivates the account.
func (r TripRepo) CancelActiveByDriver(ctx context.Context, driverID int64) error {
	_, err := r.db().ExecContext(ctx, `
		UPDATE trips SET status='cancelled'
		WHERE driver_id=? AND status IN ('pending','active')`, driverID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

type PopularRoute struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	TripCount    int     `json:"tripCount"`
	AveragePrice float64 `json:"averagePrice"`
	MinPrice     int64   `json:"minPrice"`
}

// PopularRoutes aggregates active trips by route, busiest first.
func (r TripRepo) PopularRoutes(ctx context.Context) ([]PopularRoute, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT from_city, to_city, COUNT(*) AS trips,
		       ROUND(AVG(price_per_seat), 0), MIN(price_per_seat)
		FROM trips
		WHERE status='active' AND is_active=1
		GROUP BY from_city, to_city
		ORDER BY trips DESC
		LIMIT 8`)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []PopularRoute
	for rows.Next() {
		var p PopularRoute
		if err := rows.Scan(&p.From, &p.To, &p.TripCount, &p.AveragePrice, &p.MinPrice); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
