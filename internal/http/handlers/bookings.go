package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ridemate/internal/domain"
	"ridemate/internal/http/middleware"
	"ridemate/internal/repositories"
	"ridemate/internal/services"
)

// POST /api/bookings
func CreateBooking(c *gin.Context) {
	var req services.BookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	svc := services.BookingService{RequestID: middleware.GetRequestID(c)}
	booking, err := svc.BookTrip(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Ride booked successfully",
		"data":    booking,
		"otp":     booking.OTP.Code,
	})
}

// GET /api/bookings/:id
func GetBooking(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "booking"})
		return
	}
	booking, err := repositories.BookingRepo{}.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
}

// GET /api/bookings/passenger/:passengerId
func GetPassengerBookings(c *gin.Context) {
	passengerID := ParamID(c, "passengerId")
	if passengerID == 0 {
		RespondDomainError(c, domain.ValidationError{Field: "passengerId", Msg: "invalid id"})
		return
	}
	bookings, err := repositories.BookingRepo{}.ListByPassenger(c.Request.Context(), passengerID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(bookings), "data": bookings})
}

type verifyOTPRequest struct {
	Code string `json:"code"`
}

// POST /api/bookings/:id/verify-otp
func VerifyBookingOTP(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "booking"})
		return
	}
	var req verifyOTPRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		RespondDomainError(c, domain.ValidationError{Field: "code", Msg: "code is required"})
		return
	}

	svc := services.BookingService{RequestID: middleware.GetRequestID(c)}
	if err := svc.VerifyOTP(c.Request.Context(), id, req.Code); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP verified"})
}

// POST /api/bookings/:id/resend-otp
func ResendBookingOTP(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "booking"})
		return
	}

	svc := services.BookingService{RequestID: middleware.GetRequestID(c)}
	code, err := svc.ResendOTP(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP regenerated", "otp": code})
}

// GET /api/bookings/:id/e-ticket
func GetBookingETicketPDF(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "booking"})
		return
	}

	svc := services.DocsService{RequestID: middleware.GetRequestID(c)}
	pdf, filename, err := svc.GenerateETicket(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
