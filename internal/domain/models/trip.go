package models

import (
	"time"

	"ridemate/internal/domain"
)

type TripStatus string

const (
	TripStatusPending   TripStatus = "pending"
	TripStatusApproved  TripStatus = "approved"
	TripStatusRejected  TripStatus = "rejected"
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// Bookable reports whether passengers may reserve seats in this state.
func (s TripStatus) Bookable() bool {
	return s == TripStatusActive || s == TripStatusApproved
}

// Location is a trip endpoint (city + state, optional coordinates).
type Location struct {
	City      string   `json:"city"`
	State     string   `json:"state"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Point is a pickup or drop stop with its scheduled time.
type Point struct {
	Location  string   `json:"location"`
	Time      string   `json:"time"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type Vehicle struct {
	Type   string `json:"type"`
	Model  string `json:"model"`
	Number string `json:"number"`
	Color  string `json:"color"`
}

// TripPassenger is one entry of the trip's embedded passenger list.
type TripPassenger struct {
	ID          int64     `json:"id"`
	TripID      int64     `json:"tripId"`
	UserID      int64     `json:"userId"`
	SeatsBooked int       `json:"seatsBooked"`
	BookingDate time.Time `json:"bookingDate"`
	Status      string    `json:"status"` // confirmed | cancelled
}

type Trip struct {
	ID            int64           `json:"id"`
	DriverID      int64           `json:"driverId"`
	From          Location        `json:"from"`
	To            Location        `json:"to"`
	DepartureDate time.Time       `json:"departureDate"`
	DepartureTime string          `json:"departureTime"` // HH:MM
	ReturnDate    *time.Time      `json:"returnDate,omitempty"`
	ReturnTime    string          `json:"returnTime,omitempty"`
	TripType      string          `json:"tripType"` // one-way | round-trip
	Vehicle       Vehicle         `json:"vehicle"`
	LicenseNumber string          `json:"licenseNumber"`
	AvailableSeats int            `json:"availableSeats"`
	BookedSeats   int             `json:"bookedSeats"`
	PricePerSeat  int64           `json:"pricePerSeat"`
	TotalEarnings int64           `json:"totalEarnings"`
	Status        TripStatus      `json:"status"`
	AdminRemarks  string          `json:"adminRemarks,omitempty"`
	Description   string          `json:"description,omitempty"`
	Passengers    []TripPassenger `json:"passengers,omitempty"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// RemainingSeats is the trip's free capacity.
func (t *Trip) RemainingSeats() int {
	return t.AvailableSeats - t.BookedSeats
}

// HasCapacity reports whether n seats can still be reserved. Fails
// closed for n <= 0.
func (t *Trip) HasCapacity(n int) bool {
	if n <= 0 {
		return false
	}
	return t.RemainingSeats() >= n
}

// Reserve books n seats on the in-memory counter. Callers must hold the
// trip's serialization boundary; the repository enforces the same bound
// again with a conditional UPDATE.
func (t *Trip) Reserve(n int) error {
	if !t.HasCapacity(n) {
		return domain.CapacityError{TripID: t.ID, Requested: n, Remaining: t.RemainingSeats()}
	}
	t.BookedSeats += n
	return nil
}

// Release frees n seats, clamped so the counter never goes negative.
func (t *Trip) Release(n int) {
	if n <= 0 {
		return
	}
	t.BookedSeats -= n
	if t.BookedSeats < 0 {
		t.BookedSeats = 0
	}
}

// ConfirmedPassenger returns the confirmed passenger entry for userID,
// or nil when the user holds no active reservation.
func (t *Trip) ConfirmedPassenger(userID int64) *TripPassenger {
	for i := range t.Passengers {
		if t.Passengers[i].UserID == userID && t.Passengers[i].Status == "confirmed" {
			return &t.Passengers[i]
		}
	}
	return nil
}

// DepartureAt combines departure date and HH:MM time into one instant.
func (t *Trip) DepartureAt() time.Time {
	hh, mm := 0, 0
	if len(t.DepartureTime) == 5 {
		hh = int(t.DepartureTime[0]-'0')*10 + int(t.DepartureTime[1]-'0')
		mm = int(t.DepartureTime[3]-'0')*10 + int(t.DepartureTime[4]-'0')
	}
	d := t.DepartureDate
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, d.Location())
}
