package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ridemate/internal/domain"
	"ridemate/internal/domain/models"
	"ridemate/internal/http/middleware"
	"ridemate/internal/repositories"
	"ridemate/internal/services"
	"ridemate/internal/utils"
)

// GET /api/trips?from=&to=&date=&seats=
func SearchTrips(c *gin.Context) {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		RespondDomainError(c, domain.ValidationError{Field: "from/to", Msg: "both from and to cities are required"})
		return
	}

	filter := repositories.TripSearch{
		FromCity: from,
		ToCity:   to,
		Seats:    QueryInt(c, "seats", 1),
	}
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		d, err := utils.ParseDate(raw)
		if err != nil {
			RespondDomainError(c, domain.ValidationError{Field: "date", Msg: "invalid date (YYYY-MM-DD)"})
			return
		}
		filter.Date = &d
	}
	if filter.Seats <= 0 {
		filter.Seats = 1
	}

	trips, err := repositories.TripRepo{}.Search(c.Request.Context(), filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(trips),
		"data":    trips,
	})
}

type tripRequest struct {
	Driver        int64           `json:"driver"`
	From          models.Location `json:"from"`
	To            models.Location `json:"to"`
	DepartureDate string          `json:"departureDate"`
	DepartureTime string          `json:"departureTime"`
	ReturnDate    string          `json:"returnDate"`
	ReturnTime    string          `json:"returnTime"`
	TripType      string          `json:"tripType"`
	Vehicle       models.Vehicle  `json:"vehicle"`
	LicenseNumber string          `json:"licenseNumber"`
	AvailableSeats int            `json:"availableSeats"`
	PricePerSeat  int64           `json:"pricePerSeat"`
	Description   string          `json:"description"`
}

func (r *tripRequest) toTrip() (models.Trip, error) {
	var fields []domain.ValidationError
	add := func(field, msg string) {
		fields = append(fields, domain.ValidationError{Field: field, Msg: msg})
	}

	if r.Driver <= 0 {
		add("driver", "driver is required")
	}
	if strings.TrimSpace(r.From.City) == "" {
		add("from.city", "from city is required")
	}
	if strings.TrimSpace(r.From.State) == "" {
		add("from.state", "from state is required")
	}
	if strings.TrimSpace(r.To.City) == "" {
		add("to.city", "to city is required")
	}
	if strings.TrimSpace(r.To.State) == "" {
		add("to.state", "to state is required")
	}
	if strings.TrimSpace(r.Vehicle.Type) == "" {
		add("vehicle.type", "vehicle type is required")
	}
	if strings.TrimSpace(r.Vehicle.Model) == "" {
		add("vehicle.model", "vehicle model is required")
	}
	if strings.TrimSpace(r.Vehicle.Number) == "" {
		add("vehicle.number", "vehicle number is required")
	}
	if strings.TrimSpace(r.Vehicle.Color) == "" {
		add("vehicle.color", "vehicle color is required")
	}
	if r.AvailableSeats < 1 || r.AvailableSeats > 7 {
		add("availableSeats", "must be between 1 and 7")
	}
	if r.PricePerSeat < 1 {
		add("pricePerSeat", "price must be at least 1")
	}

	var depDate time.Time
	if strings.TrimSpace(r.DepartureDate) == "" {
		add("departureDate", "departure date is required")
	} else {
		d, err := utils.ParseDate(r.DepartureDate)
		if err != nil {
			add("departureDate", "invalid date (YYYY-MM-DD)")
		} else {
			depDate = d
		}
	}
	depTime, err := utils.NormalizeClock(r.DepartureTime)
	if err != nil {
		add("departureTime", "invalid time (HH:MM)")
	}

	tripType := strings.TrimSpace(r.TripType)
	if tripType == "" {
		tripType = "one-way"
	}
	if tripType != "one-way" && tripType != "round-trip" {
		add("tripType", "must be one-way or round-trip")
	}

	var returnDate *time.Time
	returnTime := ""
	if strings.TrimSpace(r.ReturnDate) != "" {
		d, err := utils.ParseDate(r.ReturnDate)
		if err != nil {
			add("returnDate", "invalid date (YYYY-MM-DD)")
		} else {
			returnDate = &d
		}
		if t, err := utils.NormalizeClock(r.ReturnTime); err == nil {
			returnTime = t
		} else {
			add("returnTime", "invalid time (HH:MM)")
		}
	}

	if len(fields) > 0 {
		return models.Trip{}, domain.ValidationErrors{Fields: fields}
	}

	return models.Trip{
		DriverID:       r.Driver,
		From:           r.From,
		To:             r.To,
		DepartureDate:  depDate,
		DepartureTime:  depTime,
		ReturnDate:     returnDate,
		ReturnTime:     returnTime,
		TripType:       tripType,
		Vehicle:        r.Vehicle,
		LicenseNumber:  strings.TrimSpace(r.LicenseNumber),
		AvailableSeats: r.AvailableSeats,
		PricePerSeat:   r.PricePerSeat,
		Description:    strings.TrimSpace(r.Description),
		IsActive:       true,
	}, nil
}

// POST /api/trips
func CreateTrip(c *gin.Context) {
	var req tripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	trip, err := req.toTrip()
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	if err := (repositories.TripRepo{}).Create(c.Request.Context(), &trip); err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "trip", "create", fmt.Sprintf("trip_id=%d driver_id=%d", trip.ID, trip.DriverID))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Trip created successfully",
		"data":    trip,
	})
}

// GET /api/trips/popular-routes
func GetPopularRoutes(c *gin.Context) {
	routes, err := repositories.TripRepo{}.PopularRoutes(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": routes})
}

// GET /api/trips/driver/:driverId
func GetDriverTrips(c *gin.Context) {
	driverID := ParamID(c, "driverId")
	if driverID == 0 {
		RespondDomainError(c, domain.ValidationError{Field: "driverId", Msg: "invalid id"})
		return
	}
	trips, err := repositories.TripRepo{}.ListByDriver(c.Request.Context(), driverID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(trips), "data": trips})
}

// GET /api/trips/:id
func GetTrip(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "trip"})
		return
	}
	trip, err := repositories.TripRepo{}.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": trip})
}

// PUT /api/trips/:id
func UpdateTrip(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "trip"})
		return
	}
	var req tripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	trip, err := req.toTrip()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	trip.ID = id

	repo := repositories.TripRepo{}
	if err := repo.Update(c.Request.Context(), trip); err != nil {
		RespondDomainError(c, err)
		return
	}
	updated, err := repo.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Trip updated successfully",
		"data":    updated,
	})
}

// DELETE /api/trips/:id
func DeleteTrip(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "trip"})
		return
	}
	if err := (repositories.TripRepo{}).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Trip deleted successfully"})
}

type inlineBookRequest struct {
	UserID         int64 `json:"userId"`
	SeatsRequested int   `json:"seatsRequested"`
}

// POST /api/trips/:id/book
func BookTripInline(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "trip"})
		return
	}
	var req inlineBookRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.UserID <= 0 || req.SeatsRequested <= 0 {
		RespondDomainError(c, domain.ValidationError{Field: "userId/seatsRequested", Msg: "user ID and seats requested are required"})
		return
	}

	svc := services.BookingService{RequestID: middleware.GetRequestID(c)}
	trip, err := svc.BookInline(c.Request.Context(), id, req.UserID, req.SeatsRequested)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Trip booked successfully",
		"data":    trip,
	})
}

type cancelBookingRequest struct {
	UserID int64  `json:"userId"`
	Reason string `json:"reason"`
}

// POST /api/trips/:id/cancel-booking
func CancelTripBooking(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "trip"})
		return
	}
	var req cancelBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.UserID <= 0 {
		RespondDomainError(c, domain.ValidationError{Field: "userId", Msg: "user ID is required"})
		return
	}

	svc := services.BookingService{RequestID: middleware.GetRequestID(c)}
	trip, err := svc.CancelBooking(c.Request.Context(), id, req.UserID, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking cancelled successfully",
		"data":    trip,
	})
}
