package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	intconfig "ridemate/internal/config"
	"ridemate/internal/domain"
	"ridemate/internal/domain/models"
	"ridemate/internal/observability"
	"ridemate/internal/repositories"
	"ridemate/internal/utils"
)

// otpValidAfterDeparture is how long past departure a pickup code keeps
// working; after that the trip is over and verification is pointless.
const otpValidAfterDeparture = 24 * time.Hour

const otpResendLimit = 3

// BookingService coordinates seat reservation on a trip with the
// matching booking record. It is the only component that creates or
// cancels a reservation: both run under the per-trip lock and inside a
// single transaction, so the trip counters and the booking row are
// never visible in a half-updated state.
type BookingService struct {
	TripRepo    repositories.TripRepo
	BookingRepo repositories.BookingRepo
	DB          *sql.DB
	Locker      TripLocker
	Redis       *redis.Client
	RequestID   string
	Now         func() time.Time
}

func (s BookingService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s BookingService) trips() repositories.TripRepo {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepo{DB: s.db()}
}

func (s BookingService) bookings() repositories.BookingRepo {
	if s.BookingRepo.DB != nil {
		return s.BookingRepo
	}
	return repositories.BookingRepo{DB: s.db()}
}

func (s BookingService) locker() TripLocker {
	if s.Locker != nil {
		return s.Locker
	}
	return RedisTripLocker{Client: s.redis()}
}

func (s BookingService) redis() *redis.Client {
	if s.Redis != nil {
		return s.Redis
	}
	return intconfig.Redis
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// BookingRequest is the validated input for a standalone booking.
type BookingRequest struct {
	TripID           int64                    `json:"trip"`
	PassengerID      int64                    `json:"passenger"`
	SeatsBooked      int                      `json:"seatsBooked"`
	PickupPoint      models.Point             `json:"pickupPoint"`
	DropPoint        models.Point             `json:"dropPoint"`
	PassengerDetails []models.PassengerDetail `json:"passengerDetails"`
	PaymentMethod    string                   `json:"paymentMethod"`
	SpecialRequests  string                   `json:"specialRequests"`
}

// Validate reports every offending field at once.
func (r *BookingRequest) Validate() error {
	var fields []domain.ValidationError
	add := func(field, msg string) {
		fields = append(fields, domain.ValidationError{Field: field, Msg: msg})
	}

	if r.TripID <= 0 {
		add("trip", "trip is required")
	}
	if r.PassengerID <= 0 {
		add("passenger", "passenger is required")
	}
	if r.SeatsBooked <= 0 {
		add("seatsBooked", "at least 1 seat must be booked")
	}
	if strings.TrimSpace(r.PickupPoint.Location) == "" {
		add("pickupPoint.location", "pickup location is required")
	}
	if strings.TrimSpace(r.PickupPoint.Time) == "" {
		add("pickupPoint.time", "pickup time is required")
	}
	if strings.TrimSpace(r.DropPoint.Location) == "" {
		add("dropPoint.location", "drop location is required")
	}
	if strings.TrimSpace(r.DropPoint.Time) == "" {
		add("dropPoint.time", "drop time is required")
	}
	if len(r.PassengerDetails) == 0 {
		add("passengerDetails", "passenger details are required")
	} else if r.SeatsBooked > 0 && len(r.PassengerDetails) != r.SeatsBooked {
		add("passengerDetails", fmt.Sprintf("expected %d entries, one per seat", r.SeatsBooked))
	}
	for i, d := range r.PassengerDetails {
		if strings.TrimSpace(d.Name) == "" {
			add(fmt.Sprintf("passengerDetails[%d].name", i), "name is required")
		}
		if d.Age < 1 || d.Age > 120 {
			add(fmt.Sprintf("passengerDetails[%d].age", i), "age must be between 1 and 120")
		}
		switch d.Gender {
		case "male", "female", "other":
		default:
			add(fmt.Sprintf("passengerDetails[%d].gender", i), "gender must be male, female or other")
		}
	}
	r.PaymentMethod = strings.ToLower(strings.TrimSpace(r.PaymentMethod))
	if r.PaymentMethod == "" {
		r.PaymentMethod = "online"
	}
	if !models.ValidPaymentMethod(r.PaymentMethod) {
		add("paymentMethod", "must be one of cash, online, upi, card")
	}

	if len(fields) > 0 {
		return domain.ValidationErrors{Fields: fields}
	}
	return nil
}

// BookTrip reserves seats and creates the booking record as one unit.
// Returns the created booking; its OTP carries the pickup code.
func (s BookingService) BookTrip(ctx context.Context, req BookingRequest) (models.Booking, error) {
	if err := req.Validate(); err != nil {
		return models.Booking{}, err
	}

	unlock, err := s.locker().Lock(ctx, req.TripID)
	if err != nil {
		return models.Booking{}, err
	}
	defer unlock()

	trip, err := s.trips().GetByID(ctx, nil, req.TripID)
	if err != nil {
		return models.Booking{}, err
	}

	if !trip.Status.Bookable() {
		return models.Booking{}, domain.ValidationError{Field: "trip", Msg: "trip is not open for booking"}
	}
	if trip.ConfirmedPassenger(req.PassengerID) != nil {
		observability.BookingsTotal.WithLabelValues("duplicate").Inc()
		return models.Booking{}, domain.DuplicateBookingError{TripID: trip.ID, UserID: req.PassengerID}
	}
	if !trip.HasCapacity(req.SeatsBooked) {
		observability.BookingsTotal.WithLabelValues("insufficient").Inc()
		return models.Booking{}, domain.CapacityError{
			TripID: trip.ID, Requested: req.SeatsBooked, Remaining: trip.RemainingSeats(),
		}
	}

	now := s.now()
	totalAmount := int64(req.SeatsBooked) * trip.PricePerSeat
	booking := models.Booking{
		Reference:        uuid.NewString(),
		TripID:           trip.ID,
		PassengerID:      req.PassengerID,
		SeatsBooked:      req.SeatsBooked,
		TotalAmount:      totalAmount,
		PickupPoint:      req.PickupPoint,
		DropPoint:        req.DropPoint,
		PassengerDetails: req.PassengerDetails,
		BookingStatus:    models.BookingStatusConfirmed,
		PaymentStatus:    models.PaymentStatusFor(req.PaymentMethod),
		PaymentMethod:    req.PaymentMethod,
		SpecialRequests:  strings.TrimSpace(req.SpecialRequests),
		OTP:              models.NewOTP(now),
		IsActive:         true,
		CreatedAt:        now,
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.trips().ReserveSeats(ctx, tx, trip.ID, req.SeatsBooked, totalAmount); err != nil {
			return err
		}
		if err := s.trips().AddPassenger(ctx, tx, models.TripPassenger{
			TripID:      trip.ID,
			UserID:      req.PassengerID,
			SeatsBooked: req.SeatsBooked,
			BookingDate: now,
		}); err != nil {
			return err
		}
		return s.bookings().Create(ctx, tx, &booking)
	})
	if err != nil {
		if domain.IsCapacity(err) {
			observability.BookingsTotal.WithLabelValues("insufficient").Inc()
		} else {
			observability.BookingsTotal.WithLabelValues("error").Inc()
		}
		return models.Booking{}, err
	}

	observability.BookingsTotal.WithLabelValues("confirmed").Inc()
	observability.SeatsBookedTotal.Add(float64(req.SeatsBooked))
	utils.LogEvent(s.RequestID, "booking", "book",
		fmt.Sprintf("trip_id=%d passenger_id=%d seats=%d total=%d", trip.ID, req.PassengerID, req.SeatsBooked, totalAmount))
	return booking, nil
}

// BookInline is the trip-embedded booking path. It shares the exact
// reservation protocol with BookTrip and also creates a booking record,
// synthesized from the trip's own route, so the bookings table stays
// authoritative for every reservation. Returns the updated trip.
func (s BookingService) BookInline(ctx context.Context, tripID, userID int64, seatsRequested int) (models.Trip, error) {
	if seatsRequested <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "seatsRequested", Msg: "at least 1 seat must be booked"}
	}

	unlock, err := s.locker().Lock(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	defer unlock()

	trip, err := s.trips().GetByID(ctx, nil, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	if !trip.Status.Bookable() {
		return models.Trip{}, domain.ValidationError{Field: "trip", Msg: "trip is not open for booking"}
	}
	if trip.ConfirmedPassenger(userID) != nil {
		observability.BookingsTotal.WithLabelValues("duplicate").Inc()
		return models.Trip{}, domain.DuplicateBookingError{TripID: tripID, UserID: userID}
	}
	if !trip.HasCapacity(seatsRequested) {
		observability.BookingsTotal.WithLabelValues("insufficient").Inc()
		return models.Trip{}, domain.CapacityError{
			TripID: tripID, Requested: seatsRequested, Remaining: trip.RemainingSeats(),
		}
	}

	now := s.now()
	totalAmount := int64(seatsRequested) * trip.PricePerSeat
	entry := models.TripPassenger{
		TripID:      tripID,
		UserID:      userID,
		SeatsBooked: seatsRequested,
		BookingDate: now,
		Status:      "confirmed",
	}
	booking := models.Booking{
		Reference:     uuid.NewString(),
		TripID:        tripID,
		PassengerID:   userID,
		SeatsBooked:   seatsRequested,
		TotalAmount:   totalAmount,
		PickupPoint:   models.Point{Location: trip.From.City, Time: trip.DepartureTime},
		DropPoint:     models.Point{Location: trip.To.City, Time: trip.DepartureTime},
		BookingStatus: models.BookingStatusConfirmed,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: "cash",
		OTP:           models.NewOTP(now),
		IsActive:      true,
		CreatedAt:     now,
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.trips().ReserveSeats(ctx, tx, tripID, seatsRequested, totalAmount); err != nil {
			return err
		}
		if err := s.trips().AddPassenger(ctx, tx, entry); err != nil {
			return err
		}
		return s.bookings().Create(ctx, tx, &booking)
	})
	if err != nil {
		if domain.IsCapacity(err) {
			observability.BookingsTotal.WithLabelValues("insufficient").Inc()
		} else {
			observability.BookingsTotal.WithLabelValues("error").Inc()
		}
		return models.Trip{}, err
	}

	observability.BookingsTotal.WithLabelValues("confirmed").Inc()
	observability.SeatsBookedTotal.Add(float64(seatsRequested))
	utils.LogEvent(s.RequestID, "booking", "book_inline",
		fmt.Sprintf("trip_id=%d user_id=%d seats=%d", tripID, userID, seatsRequested))

	trip.BookedSeats += seatsRequested
	trip.TotalEarnings += totalAmount
	trip.Passengers = append(trip.Passengers, entry)
	return trip, nil
}

// CancelBooking reverses a reservation: the passenger entry flips to
// cancelled, the seats and earnings are released, and the booking
// record receives its refund, all in one transaction under the same
// per-trip lock as booking. Returns the updated trip.
func (s BookingService) CancelBooking(ctx context.Context, tripID, userID int64, reason string) (models.Trip, error) {
	unlock, err := s.locker().Lock(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	defer unlock()

	trip, err := s.trips().GetByID(ctx, nil, tripID)
	if err != nil {
		return models.Trip{}, err
	}

	now := s.now()
	var released models.TripPassenger
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		entry, err := s.trips().CancelPassenger(ctx, tx, tripID, userID)
		if err != nil {
			return err
		}
		released = entry

		amount := int64(entry.SeatsBooked) * trip.PricePerSeat
		if err := s.trips().ReleaseSeats(ctx, tx, tripID, entry.SeatsBooked, amount); err != nil {
			return err
		}

		booking, err := s.bookings().FindConfirmed(ctx, tx, tripID, userID)
		if err != nil {
			// Pre-migration trips may carry passenger entries with no
			// matching booking row; the seat release above still holds.
			if domain.IsNotFound(err) {
				return nil
			}
			return err
		}

		hours := trip.DepartureAt().Sub(now).Hours()
		refund := domain.RefundAmount(booking.TotalAmount, hours)
		paymentStatus := booking.PaymentStatus
		if refund > 0 {
			paymentStatus = models.PaymentStatusRefunded
		}
		return s.bookings().Cancel(ctx, tx, booking.ID, refund, paymentStatus, strings.TrimSpace(reason), now)
	})
	if err != nil {
		return models.Trip{}, err
	}

	observability.CancellationsTotal.Inc()
	utils.LogEvent(s.RequestID, "booking", "cancel",
		fmt.Sprintf("trip_id=%d user_id=%d seats=%d", tripID, userID, released.SeatsBooked))

	// Mirror the committed state on the loaded trip.
	trip.Release(released.SeatsBooked)
	trip.TotalEarnings -= int64(released.SeatsBooked) * trip.PricePerSeat
	if trip.TotalEarnings < 0 {
		trip.TotalEarnings = 0
	}
	for i := range trip.Passengers {
		if trip.Passengers[i].ID == released.ID {
			trip.Passengers[i].Status = "cancelled"
		}
	}
	return trip, nil
}

// VerifyOTP checks the pickup code for a booking. A code is single-use
// and stops working 24 hours after the trip's departure.
func (s BookingService) VerifyOTP(ctx context.Context, bookingID int64, code string) error {
	booking, err := s.bookings().GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.BookingStatus != models.BookingStatusConfirmed {
		return domain.ValidationError{Field: "otp", Msg: "booking is not active"}
	}

	trip, err := s.trips().GetByID(ctx, nil, booking.TripID)
	if err != nil {
		return err
	}
	if s.now().After(trip.DepartureAt().Add(otpValidAfterDeparture)) {
		return domain.ValidationError{Field: "otp", Msg: "code expired"}
	}

	if !booking.OTP.Verify(code) {
		return domain.ValidationError{Field: "otp", Msg: "invalid or already used code"}
	}
	return s.bookings().MarkOTPVerified(ctx, bookingID)
}

// ResendOTP regenerates the pickup code, at most otpResendLimit times
// per hour per booking.
func (s BookingService) ResendOTP(ctx context.Context, bookingID int64) (string, error) {
	booking, err := s.bookings().GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if booking.BookingStatus != models.BookingStatusConfirmed {
		return "", domain.ValidationError{Field: "otp", Msg: "booking is not active"}
	}

	key := fmt.Sprintf("otp_resend:%d", bookingID)
	count, err := s.redis().Incr(ctx, key).Result()
	if err != nil {
		return "", domain.InternalError{Msg: "otp resend limiter unavailable", Err: err}
	}
	if count == 1 {
		_ = s.redis().Expire(ctx, key, time.Hour).Err()
	}
	if count > otpResendLimit {
		return "", domain.ConflictError{Resource: "otp", Msg: "resend limit reached, try later"}
	}

	otp := models.NewOTP(s.now())
	if err := s.bookings().SetOTP(ctx, bookingID, otp); err != nil {
		return "", err
	}
	utils.LogEvent(s.RequestID, "booking", "resend_otp", fmt.Sprintf("booking_id=%d", bookingID))
	return otp.Code, nil
}

func (s BookingService) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}
