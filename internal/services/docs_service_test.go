package services

import (
	"bytes"
	"testing"
	"time"

	"ridemate/internal/domain/models"
)

func TestBuildETicketPDF(t *testing.T) {
	booking := models.Booking{
		ID:          12,
		Reference:   "ref-1",
		SeatsBooked: 2,
		TotalAmount: 200,
		PickupPoint: models.Point{Location: "Dadar", Time: "15:30"},
		DropPoint:   models.Point{Location: "Shivajinagar", Time: "19:00"},
		PassengerDetails: []models.PassengerDetail{
			{Name: "Asha", Age: 30, Gender: "female"},
			{Name: "Ravi", Age: 34, Gender: "male"},
		},
		PaymentMethod: "online",
		PaymentStatus: models.PaymentStatusPaid,
		OTP:           models.OTP{Code: "4821", GeneratedAt: time.Now()},
	}
	trip := models.Trip{
		From:          models.Location{City: "Mumbai", State: "MH"},
		To:            models.Location{City: "Pune", State: "MH"},
		DepartureDate: time.Date(2026, 5, 2, 0, 0, 0, 0, time.Local),
		DepartureTime: "16:00",
		Vehicle:       models.Vehicle{Model: "Honda City", Color: "white", Number: "MH12AB1234"},
	}

	pdf, filename, err := buildETicketPDF(booking, trip)
	if err != nil {
		t.Fatalf("buildETicketPDF returned error: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("buildETicketPDF returned empty data")
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF")
	}
	if filename != "eticket-12.pdf" {
		t.Fatalf("filename = %q, want eticket-12.pdf", filename)
	}
}
