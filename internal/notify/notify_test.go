package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"checkpay/internal/capture"
	"checkpay/internal/domain"
	"checkpay/internal/submission"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name    string
		op      Op
		err     error
		title   string
		message string
	}{
		{"blank credentials", OpLogin, &domain.ValidationError{Field: "credentials", Message: "Please enter both username and password"}, "Missing Information", "Please enter both username and password"},
		{"login rejected with detail", OpLogin, &domain.RejectionError{StatusCode: 401, Detail: "Invalid credentials"}, "Login Failed", "Invalid credentials"},
		{"login rejected without detail", OpLogin, &domain.RejectionError{StatusCode: 500}, "Login Failed", "Invalid credentials"},
		{"login network", OpLogin, &domain.NetworkError{Op: "login", Err: errors.New("dial")}, "Login Error", "Network error. Please check your connection."},
		{"login storage", OpLogin, fmt.Errorf("%w: disk full", domain.ErrStorage), "Login Error", "Could not save your session on this device."},
		{"blank business", OpSubmit, &domain.ValidationError{Field: submission.FieldBusinessName, Message: "Please enter the business name"}, "Missing Information", "Please enter the business name"},
		{"bad quantity", OpSubmit, &domain.ValidationError{Field: submission.FieldQuantitySold, Message: "m"}, "Invalid Quantity", "m"},
		{"missing image", OpSubmit, &domain.ValidationError{Field: submission.FieldCheckImage, Message: "m"}, "Missing Check Image", "m"},
		{"submit auth", OpSubmit, &domain.AuthenticationError{Reason: "no stored token"}, "Authentication Error", "Please log in again"},
		{"submit 401", OpSubmit, &domain.AuthenticationError{Reason: "token rejected", Cause: &domain.RejectionError{StatusCode: 401}}, "Authentication Error", "Please log in again"},
		{"submit rejected", OpSubmit, &domain.RejectionError{StatusCode: 422, Detail: "Quantity must be positive"}, "Submission Error", "Quantity must be positive"},
		{"submit network", OpSubmit, &domain.NetworkError{Op: "submit payment", Err: errors.New("timeout")}, "Submission Error", "Failed to submit payment. Please check your connection and try again."},
		{"camera failure", OpCamera, errors.New("boom"), "Camera Error", "Failed to take photo. Please try again."},
		{"gallery not image", OpGallery, fmt.Errorf("%w: detected text/plain", capture.ErrNotImage), "Image Error", "The selected file is not an image."},
		{"history network", OpHistory, &domain.NetworkError{Op: "list payments", Err: errors.New("x")}, "Network Error", "Network error. Please check your connection."},
		{"history auth", OpHistory, &domain.AuthenticationError{}, "Authentication Error", "Please log in again"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := FromError(tc.op, tc.err)
			if n.Level != LevelError || n.Title != tc.title || n.Message != tc.message {
				t.Fatalf("unexpected notice: %+v", n)
			}
		})
	}
}

func TestFromError_Nil(t *testing.T) {
	if n := FromError(OpSubmit, nil); n != (Notice{}) {
		t.Fatalf("expected empty notice, got %+v", n)
	}
}

func TestPaymentLogged(t *testing.T) {
	n := PaymentLogged(domain.PaymentReceipt{ID: "abc", BusinessName: "Acme", QuantitySold: 5})
	want := "Entry ID: abc\nBusiness: Acme\nQuantity: 5"
	if n.Level != LevelSuccess || n.Title != "Payment Logged Successfully" || n.Message != want {
		t.Fatalf("unexpected notice: %+v", n)
	}
}

func TestChannel_DeliversAndHonoursContext(t *testing.T) {
	c := NewChannel(1)
	if err := c.Notify(context.Background(), Notice{Title: "one"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	got := <-c.C()
	if got.Title != "one" {
		t.Fatalf("unexpected notice: %+v", got)
	}

	_ = c.Notify(context.Background(), Notice{Title: "fills buffer"})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Notify(ctx, Notice{Title: "blocked"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestFunc(t *testing.T) {
	var seen Notice
	var n Notifier = Func(func(_ context.Context, in Notice) error {
		seen = in
		return nil
	})
	_ = n.Notify(context.Background(), Welcome(domain.Profile{Username: "Rob"}))
	if seen.Message != "Welcome, Rob" {
		t.Fatalf("unexpected notice: %+v", seen)
	}
}
