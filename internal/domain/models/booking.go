package models

import (
	"fmt"
	"math/rand"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ValidPaymentMethod restricts the accepted payment method values.
func ValidPaymentMethod(m string) bool {
	switch m {
	case "cash", "online", "upi", "card":
		return true
	}
	return false
}

// PaymentStatusFor implements the cash-on-pickup rule: cash bookings
// stay pending until the driver collects, everything else is captured
// at booking time.
func PaymentStatusFor(method string) PaymentStatus {
	if method == "cash" {
		return PaymentStatusPending
	}
	return PaymentStatusPaid
}

// OTP is the pickup verification code attached to a booking.
type OTP struct {
	Code        string    `json:"code"`
	GeneratedAt time.Time `json:"generatedAt"`
	Verified    bool      `json:"verified"`
}

// NewOTP produces a 4-digit code uniformly in [1000, 9999].
func NewOTP(now time.Time) OTP {
	return OTP{
		Code:        fmt.Sprintf("%04d", 1000+rand.Intn(9000)),
		GeneratedAt: now,
		Verified:    false,
	}
}

// Verify marks the OTP used when code matches and it was not already
// verified. Expiry relative to the trip departure is enforced by the
// booking service, which knows the trip schedule.
func (o *OTP) Verify(code string) bool {
	if o.Verified || o.Code == "" || code != o.Code {
		return false
	}
	o.Verified = true
	return true
}

// PassengerDetail is one traveller on a booking, one entry per seat.
type PassengerDetail struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"` // male | female | other
	Phone  string `json:"phone,omitempty"`
}

// Booking is the authoritative record of one reservation.
type Booking struct {
	ID                 int64             `json:"id"`
	Reference          string            `json:"reference"`
	TripID             int64             `json:"trip"`
	PassengerID        int64             `json:"passenger"`
	SeatsBooked        int               `json:"seatsBooked"`
	TotalAmount        int64             `json:"totalAmount"`
	PickupPoint        Point             `json:"pickupPoint"`
	DropPoint          Point             `json:"dropPoint"`
	PassengerDetails   []PassengerDetail `json:"passengerDetails"`
	BookingStatus      BookingStatus     `json:"bookingStatus"`
	PaymentStatus      PaymentStatus     `json:"paymentStatus"`
	PaymentMethod      string            `json:"paymentMethod"`
	SpecialRequests    string            `json:"specialRequests,omitempty"`
	CancellationReason string            `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time        `json:"cancelledAt,omitempty"`
	RefundAmount       int64             `json:"refundAmount"`
	OTP                OTP               `json:"otp"`
	IsActive           bool              `json:"isActive"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}
