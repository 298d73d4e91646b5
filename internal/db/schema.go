package db

import (
	"database/sql"
	"fmt"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(50) NOT NULL,
	email VARCHAR(255) NOT NULL,
	phone VARCHAR(20) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(20) NOT NULL DEFAULT 'user',
	gender VARCHAR(10) NULL,
	rating DECIMAL(3,2) NOT NULL DEFAULT 5.00,
	is_verified TINYINT(1) NOT NULL DEFAULT 0,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	last_login DATETIME NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_users_email (email),
	UNIQUE KEY uniq_users_phone (phone)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS trips (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	driver_id BIGINT NOT NULL,
	from_city VARCHAR(100) NOT NULL,
	from_state VARCHAR(100) NOT NULL,
	from_lat DOUBLE NULL,
	from_lng DOUBLE NULL,
	to_city VARCHAR(100) NOT NULL,
	to_state VARCHAR(100) NOT NULL,
	to_lat DOUBLE NULL,
	to_lng DOUBLE NULL,
	departure_date DATE NOT NULL,
	departure_time VARCHAR(5) NOT NULL,
	return_date DATE NULL,
	return_time VARCHAR(5) NULL,
	trip_type VARCHAR(20) NOT NULL DEFAULT 'one-way',
	vehicle_type VARCHAR(20) NOT NULL,
	vehicle_model VARCHAR(100) NOT NULL,
	vehicle_number VARCHAR(20) NOT NULL,
	vehicle_color VARCHAR(50) NOT NULL,
	license_number VARCHAR(50) NOT NULL DEFAULT '',
	available_seats INT NOT NULL,
	booked_seats INT NOT NULL DEFAULT 0,
	price_per_seat BIGINT NOT NULL,
	total_earnings BIGINT NOT NULL DEFAULT 0,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	admin_remarks VARCHAR(500) NOT NULL DEFAULT '',
	description VARCHAR(500) NOT NULL DEFAULT '',
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	KEY idx_trips_route (from_city, to_city),
	KEY idx_trips_departure (departure_date),
	KEY idx_trips_driver (driver_id),
	KEY idx_trips_status (status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS trip_passengers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	seats_booked INT NOT NULL,
	booking_date DATETIME NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'confirmed',
	KEY idx_trip_passengers_trip (trip_id),
	KEY idx_trip_passengers_user (user_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	reference CHAR(36) NOT NULL,
	trip_id BIGINT NOT NULL,
	passenger_id BIGINT NOT NULL,
	seats_booked INT NOT NULL,
	total_amount BIGINT NOT NULL,
	pickup_location VARCHAR(255) NOT NULL,
	pickup_time VARCHAR(5) NOT NULL,
	pickup_lat DOUBLE NULL,
	pickup_lng DOUBLE NULL,
	drop_location VARCHAR(255) NOT NULL,
	drop_time VARCHAR(5) NOT NULL,
	drop_lat DOUBLE NULL,
	drop_lng DOUBLE NULL,
	payment_method VARCHAR(20) NOT NULL DEFAULT 'online',
	payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	booking_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	special_requests VARCHAR(300) NOT NULL DEFAULT '',
	cancellation_reason VARCHAR(500) NOT NULL DEFAULT '',
	cancelled_at DATETIME NULL,
	refund_amount BIGINT NOT NULL DEFAULT 0,
	otp_code VARCHAR(4) NOT NULL DEFAULT '',
	otp_generated_at DATETIME NULL,
	otp_verified TINYINT(1) NOT NULL DEFAULT 0,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_bookings_reference (reference),
	KEY idx_bookings_trip_passenger (trip_id, passenger_id),
	KEY idx_bookings_passenger (passenger_id),
	KEY idx_bookings_status (booking_status),
	KEY idx_bookings_payment (payment_status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS booking_passengers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	name VARCHAR(255) NOT NULL,
	age INT NOT NULL,
	gender VARCHAR(10) NOT NULL,
	phone VARCHAR(20) NOT NULL DEFAULT '',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_booking_passengers_booking (booking_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
}

// EnsureSchema creates missing tables. Statements are idempotent so it
// is safe to run on every startup.
func EnsureSchema(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db not available")
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
