package models

import (
	"sync"
	"testing"
	"time"

	"ridemate/internal/domain"
)

func TestTripHasCapacity(t *testing.T) {
	trip := Trip{AvailableSeats: 4, BookedSeats: 2}

	if !trip.HasCapacity(1) {
		t.Fatalf("expected capacity for 1 seat with 2 remaining")
	}
	if !trip.HasCapacity(2) {
		t.Fatalf("expected capacity for 2 seats with 2 remaining")
	}
	if trip.HasCapacity(3) {
		t.Fatalf("expected no capacity for 3 seats with 2 remaining")
	}
	if trip.HasCapacity(0) {
		t.Fatalf("zero seats must never pass the capacity check")
	}
	if trip.HasCapacity(-1) {
		t.Fatalf("negative seats must never pass the capacity check")
	}
}

func TestTripReserveAndRelease(t *testing.T) {
	trip := Trip{AvailableSeats: 4}

	if err := trip.Reserve(3); err != nil {
		t.Fatalf("reserve 3 of 4: %v", err)
	}
	if trip.BookedSeats != 3 {
		t.Fatalf("booked_seats = %d, want 3", trip.BookedSeats)
	}

	err := trip.Reserve(2)
	if err == nil {
		t.Fatalf("reserve 2 with 1 remaining should fail")
	}
	if !domain.IsCapacity(err) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if trip.BookedSeats != 3 {
		t.Fatalf("failed reserve must not change booked_seats, got %d", trip.BookedSeats)
	}

	trip.Release(2)
	if trip.BookedSeats != 1 {
		t.Fatalf("after release booked_seats = %d, want 1", trip.BookedSeats)
	}

	trip.Release(10)
	if trip.BookedSeats != 0 {
		t.Fatalf("release past zero must clamp, got %d", trip.BookedSeats)
	}
}

// Two passengers racing for the last seats: the total booked can never
// exceed the trip's available seats no matter how the goroutines
// interleave.
func TestTripReserveConcurrent(t *testing.T) {
	for run := 0; run < 50; run++ {
		trip := Trip{AvailableSeats: 4, BookedSeats: 2}
		var mu sync.Mutex
		var wg sync.WaitGroup
		successes := 0

		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				mu.Lock()
				defer mu.Unlock()
				if err := trip.Reserve(2); err == nil {
					successes++
				}
			}()
		}
		wg.Wait()

		if successes != 1 {
			t.Fatalf("run %d: %d reservations of 2 seats succeeded with 2 remaining, want exactly 1", run, successes)
		}
		if trip.BookedSeats > trip.AvailableSeats {
			t.Fatalf("run %d: booked %d exceeds available %d", run, trip.BookedSeats, trip.AvailableSeats)
		}
	}
}

func TestTripConfirmedPassenger(t *testing.T) {
	trip := Trip{Passengers: []TripPassenger{
		{ID: 1, UserID: 7, Status: "cancelled"},
		{ID: 2, UserID: 7, Status: "confirmed"},
		{ID: 3, UserID: 9, Status: "confirmed"},
	}}

	p := trip.ConfirmedPassenger(7)
	if p == nil || p.ID != 2 {
		t.Fatalf("expected confirmed entry 2 for user 7, got %+v", p)
	}
	if trip.ConfirmedPassenger(5) != nil {
		t.Fatalf("user 5 has no entry, got one anyway")
	}
}

func TestTripDepartureAt(t *testing.T) {
	trip := Trip{
		DepartureDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local),
		DepartureTime: "16:30",
	}
	want := time.Date(2026, 3, 14, 16, 30, 0, 0, time.Local)
	if got := trip.DepartureAt(); !got.Equal(want) {
		t.Fatalf("DepartureAt = %v, want %v", got, want)
	}
}

func TestTripStatusBookable(t *testing.T) {
	for _, s := range []TripStatus{TripStatusActive, TripStatusApproved} {
		if !s.Bookable() {
			t.Fatalf("%s should be bookable", s)
		}
	}
	for _, s := range []TripStatus{TripStatusPending, TripStatusRejected, TripStatusCompleted, TripStatusCancelled} {
		if s.Bookable() {
			t.Fatalf("%s should not be bookable", s)
		}
	}
}
