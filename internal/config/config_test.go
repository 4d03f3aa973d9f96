package config

import "testing"

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "booking", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "booking-platform"
	c.Auth.JWTAudience = "agent-runtime"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Booking.Timezone != "Asia/Kolkata" {
		t.Fatalf("expected default timezone, got %q", c.Booking.Timezone)
	}
	if c.Booking.SlotDurationMinutes != 30 {
		t.Fatalf("expected default slot duration 30, got %d", c.Booking.SlotDurationMinutes)
	}
	if c.Booking.WindowDays != 15 {
		t.Fatalf("expected default window 15, got %d", c.Booking.WindowDays)
	}
}

func TestValidate_RejectsBadBusinessHours(t *testing.T) {
	c := validLocal()
	c.Booking.OpenTime = "25:00"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for invalid BOOKING_OPEN_TIME")
	}

	c = validLocal()
	c.Booking.CloseTime = "18:99"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for invalid BOOKING_CLOSE_TIME")
	}
}

func TestValidate_CapTTLDefaultsWhenCapSet(t *testing.T) {
	c := validLocal()
	c.Sessions.RoomCap = 2
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Sessions.CapTTL <= 0 {
		t.Fatalf("expected cap TTL default when cap is set")
	}
}
