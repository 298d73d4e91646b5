package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	intconfig "ridemate/internal/config"
	"ridemate/internal/domain"
	"ridemate/internal/domain/models"
	"ridemate/internal/repositories"
)

// GET /api/admin/dashboard
func AdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	db := intconfig.DB

	stats := gin.H{}
	counts := []struct {
		key   string
		query string
		args  []any
	}{
		{"totalUsers", `SELECT COUNT(*) FROM users WHERE role='user'`, nil},
		{"totalTrips", `SELECT COUNT(*) FROM trips`, nil},
		{"totalBookings", `SELECT COUNT(*) FROM bookings`, nil},
		{"pendingTrips", `SELECT COUNT(*) FROM trips WHERE status=?`, []any{"pending"}},
		{"activeTrips", `SELECT COUNT(*) FROM trips WHERE status=?`, []any{"active"}},
		{"completedTrips", `SELECT COUNT(*) FROM trips WHERE status=?`, []any{"completed"}},
	}
	for _, q := range counts {
		var n int
		if err := db.QueryRowContext(ctx, q.query, q.args...).Scan(&n); err != nil {
			RespondDomainError(c, domain.InternalError{Err: err})
			return
		}
		stats[q.key] = n
	}

	var revenue int64
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM bookings WHERE payment_status='paid'`).Scan(&revenue); err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}
	stats["totalRevenue"] = revenue

	recent, _, err := repositories.UserRepo{}.List(ctx, repositories.UserFilter{PageSize: 5})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	stats["recentUsers"] = recent

	c.JSON(http.StatusOK, stats)
}

// GET /api/admin/users
func AdminListUsers(c *gin.Context) {
	filter := repositories.UserFilter{
		Search:   c.Query("search"),
		Page:     QueryInt(c, "page", 1),
		PageSize: QueryInt(c, "limit", 10),
	}
	if v := strings.TrimSpace(c.Query("verified")); v != "" {
		b, _ := strconv.ParseBool(v)
		filter.Verified = &b
	}
	if v := strings.TrimSpace(c.Query("active")); v != "" {
		b, _ := strconv.ParseBool(v)
		filter.Active = &b
	}

	users, total, err := repositories.UserRepo{}.List(c.Request.Context(), filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":       users,
		"total":       total,
		"currentPage": filter.Page,
		"totalPages":  (total + filter.PageSize - 1) / filter.PageSize,
	})
}

// GET /api/admin/users/:id
func AdminGetUser(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "user"})
		return
	}
	ctx := c.Request.Context()

	user, err := repositories.UserRepo{}.GetByID(ctx, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	trips, err := repositories.TripRepo{}.ListByDriver(ctx, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	bookings, err := repositories.BookingRepo{}.ListByPassenger(ctx, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"trips":    trips,
		"bookings": bookings,
	})
}

// PATCH /api/admin/users/:id/verify
func AdminVerifyUser(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "user"})
		return
	}
	if err := (repositories.UserRepo{}).SetVerified(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User verified successfully"})
}

// PATCH /api/admin/users/:id/deactivate
func AdminDeactivateUser(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "user"})
		return
	}
	ctx := c.Request.Context()
	if err := (repositories.UserRepo{}).SetActive(ctx, id, false); err != nil {
		RespondDomainError(c, err)
		return
	}
	// Trips posted by a deactivated driver must not stay bookable.
	if err := (repositories.TripRepo{}).CancelActiveByDriver(ctx, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated successfully"})
}

// GET /api/admin/trips
func AdminListTrips(c *gin.Context) {
	ctx := c.Request.Context()
	db := intconfig.DB

	page := QueryInt(c, "page", 1)
	limit := QueryInt(c, "limit", 10)
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	where := []string{"1=1"}
	args := []any{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		where = append(where, "status=?")
		args = append(args, status)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		where = append(where, "(from_city LIKE ? OR to_city LIKE ?)")
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips WHERE `+cond, args...).Scan(&total); err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := db.QueryContext(ctx, `
		SELECT id, driver_id, from_city, from_state, to_city, to_state,
		       departure_date, departure_time, available_seats, booked_seats,
		       price_per_seat, total_earnings, status, created_at
		FROM trips WHERE `+cond+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}
	defer rows.Close()

	var trips []gin.H
	for rows.Next() {
		var t models.Trip
		var status string
		if err := rows.Scan(&t.ID, &t.DriverID, &t.From.City, &t.From.State, &t.To.City, &t.To.State,
			&t.DepartureDate, &t.DepartureTime, &t.AvailableSeats, &t.BookedSeats,
			&t.PricePerSeat, &t.TotalEarnings, &status, &t.CreatedAt); err != nil {
			RespondDomainError(c, domain.InternalError{Err: err})
			return
		}
		trips = append(trips, gin.H{
			"id":             t.ID,
			"driverId":       t.DriverID,
			"from":           t.From,
			"to":             t.To,
			"departureDate":  t.DepartureDate,
			"departureTime":  t.DepartureTime,
			"availableSeats": t.AvailableSeats,
			"bookedSeats":    t.BookedSeats,
			"pricePerSeat":   t.PricePerSeat,
			"totalEarnings":  t.TotalEarnings,
			"status":         status,
			"createdAt":      t.CreatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trips":       trips,
		"total":       total,
		"currentPage": page,
		"totalPages":  (total + limit - 1) / limit,
	})
}

// GET /api/admin/trips/:id
func AdminGetTrip(c *gin.Context) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "trip"})
		return
	}
	ctx := c.Request.Context()

	trip, err := repositories.TripRepo{}.GetByID(ctx, nil, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	bookings, _, err := repositories.BookingRepo{}.List(ctx, repositories.BookingFilter{TripID: id, PageSize: 100})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip, "bookings": bookings})
}

type adminReviewRequest struct {
	AdminRemarks string `json:"adminRemarks"`
}

// PATCH /api/admin/trips/:id/approve
func AdminApproveTrip(c *gin.Context) {
	adminReviewTrip(c, models.TripStatusActive, false, "Trip approved successfully")
}

// PATCH /api/admin/trips/:id/reject
func AdminRejectTrip(c *gin.Context) {
	adminReviewTrip(c, models.TripStatusRejected, true, "Trip rejected successfully")
}

func adminReviewTrip(c *gin.Context, next models.TripStatus, remarksRequired bool, message string) {
	id := ParamID(c, "id")
	if id == 0 {
		RespondDomainError(c, domain.NotFoundError{Resource: "trip"})
		return
	}
	var req adminReviewRequest
	if c.Request.Body != nil {
		_ = c.ShouldBindJSON(&req)
	}
	req.AdminRemarks = strings.TrimSpace(req.AdminRemarks)
	if len(req.AdminRemarks) > 500 {
		RespondDomainError(c, domain.ValidationError{Field: "adminRemarks", Msg: "cannot exceed 500 characters"})
		return
	}
	if remarksRequired && req.AdminRemarks == "" {
		RespondDomainError(c, domain.ValidationError{Field: "adminRemarks", Msg: "admin remarks are required"})
		return
	}

	ctx := c.Request.Context()
	repo := repositories.TripRepo{}
	trip, err := repo.GetByID(ctx, nil, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if trip.Status != models.TripStatusPending {
		RespondDomainError(c, domain.ValidationError{Field: "status", Msg: "only pending trips can be reviewed"})
		return
	}
	if err := repo.SetStatus(ctx, id, next, req.AdminRemarks); err != nil {
		RespondDomainError(c, err)
		return
	}
	trip.Status = next
	trip.AdminRemarks = req.AdminRemarks
	c.JSON(http.StatusOK, gin.H{"message": message, "trip": trip})
}

// GET /api/admin/bookings
func AdminListBookings(c *gin.Context) {
	filter := repositories.BookingFilter{
		BookingStatus: strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("paymentStatus")),
		Page:          QueryInt(c, "page", 1),
		PageSize:      QueryInt(c, "limit", 10),
	}
	bookings, total, err := repositories.BookingRepo{}.List(c.Request.Context(), filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bookings":    bookings,
		"total":       total,
		"currentPage": filter.Page,
		"totalPages":  (total + filter.PageSize - 1) / filter.PageSize,
	})
}

// GET /api/admin/bookings/:id
func AdminGetBooking(c *gin.Context) {
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
	c.JSON(http.StatusOK, booking)
}
