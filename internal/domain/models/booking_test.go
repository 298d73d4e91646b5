package models

import (
	"testing"
	"time"
)

func TestNewOTPFormat(t *testing.T) {
	now := time.Now()
	for i := 0; i < 100; i++ {
		otp := NewOTP(now)
		if len(otp.Code) != 4 {
			t.Fatalf("code %q is not 4 digits", otp.Code)
		}
		if otp.Code[0] == '0' {
			t.Fatalf("code %q has a leading zero, want range 1000-9999", otp.Code)
		}
		for _, r := range otp.Code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", otp.Code, r)
			}
		}
		if otp.Verified {
			t.Fatalf("fresh code must start unverified")
		}
	}
}

func TestOTPVerifySingleUse(t *testing.T) {
	otp := NewOTP(time.Now())

	if otp.Verify("0000") {
		t.Fatalf("wrong code accepted")
	}
	if otp.Verified {
		t.Fatalf("failed attempt must not mark the code used")
	}
	if !otp.Verify(otp.Code) {
		t.Fatalf("correct code rejected")
	}
	if otp.Verify(otp.Code) {
		t.Fatalf("code accepted twice")
	}
}

func TestPaymentStatusFor(t *testing.T) {
	if got := PaymentStatusFor("cash"); got != PaymentStatusPending {
		t.Fatalf("cash booking payment status = %s, want pending", got)
	}
	for _, m := range []string{"online", "upi", "card"} {
		if got := PaymentStatusFor(m); got != PaymentStatusPaid {
			t.Fatalf("%s booking payment status = %s, want paid", m, got)
		}
	}
}

func TestValidPaymentMethod(t *testing.T) {
	for _, m := range []string{"cash", "online", "upi", "card"} {
		if !ValidPaymentMethod(m) {
			t.Fatalf("%s should be accepted", m)
		}
	}
	for _, m := range []string{"", "crypto", "CASH"} {
		if ValidPaymentMethod(m) {
			t.Fatalf("%q should be rejected", m)
		}
	}
}
