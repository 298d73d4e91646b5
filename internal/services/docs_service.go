package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	intconfig "ridemate/internal/config"
	"ridemate/internal/domain/models"
	"ridemate/internal/repositories"
	"ridemate/internal/utils"
)

// DocsService renders a booking e-ticket as PDF.
type DocsService struct {
	BookingRepo repositories.BookingRepo
	TripRepo    repositories.TripRepo
	DB          *sql.DB
	RequestID   string
}

func (s DocsService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s DocsService) GenerateETicket(ctx context.Context, bookingID int64) ([]byte, string, error) {
	bookings := s.BookingRepo
	if bookings.DB == nil {
		bookings = repositories.BookingRepo{DB: s.db()}
	}
	trips := s.TripRepo
	if trips.DB == nil {
		trips = repositories.TripRepo{DB: s.db()}
	}

	booking, err := bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	trip, err := trips.GetByID(ctx, nil, booking.TripID)
	if err != nil {
		return nil, "", err
	}

	utils.LogEvent(s.RequestID, "docs", "generate_eticket", fmt.Sprintf("booking_id=%d", bookingID))
	return buildETicketPDF(booking, trip)
}

func buildETicketPDF(b models.Booking, t models.Trip) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "RIDEMATE E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking Ref   : %s", safe(b.Reference, "-")),
		fmt.Sprintf("Route         : %s, %s -> %s, %s", t.From.City, t.From.State, t.To.City, t.To.State),
		fmt.Sprintf("Departure     : %s %s", utils.FormatDate(t.DepartureDate), t.DepartureTime),
		fmt.Sprintf("Seats         : %d", b.SeatsBooked),
		fmt.Sprintf("Total Amount  : %d", b.TotalAmount),
		fmt.Sprintf("Pickup        : %s (%s)", safe(b.PickupPoint.Location, "-"), safe(b.PickupPoint.Time, "-")),
		fmt.Sprintf("Drop          : %s (%s)", safe(b.DropPoint.Location, "-"), safe(b.DropPoint.Time, "-")),
		fmt.Sprintf("Vehicle       : %s %s (%s)", t.Vehicle.Model, t.Vehicle.Color, t.Vehicle.Number),
		fmt.Sprintf("Payment       : %s / %s", safe(b.PaymentMethod, "-"), string(b.PaymentStatus)),
		fmt.Sprintf("Pickup OTP    : %s", safe(b.OTP.Code, "-")),
	}
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}

	if len(b.PassengerDetails) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Passengers")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		for i, d := range b.PassengerDetails {
			pdf.Cell(0, 7, fmt.Sprintf("%d. %s (%d, %s)", i+1, d.Name, d.Age, d.Gender))
			pdf.Ln(7)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("eticket-%d.pdf", b.ID)
	return buf.Bytes(), filename, nil
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
