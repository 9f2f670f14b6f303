package http

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{lms.ErrNotFound, 404},
		{fmt.Errorf("get course: %w", lms.ErrNotFound), 404},
		{lms.ErrForbidden, 403},
		{lms.ErrValidation, 422},
		{fmt.Errorf("%w: bad points", lms.ErrValidation), 422},
		{lms.ErrConflict, 409},
		{errors.New("driver exploded"), 500},
		{lms.Externalf("grade answer", errors.New("upstream 503")), 500},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("writeError(%v) status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestWriteErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("mongo: connection refused to 10.0.0.5"))
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Errorf("internal detail leaked to client: %s", rec.Body.String())
	}
}

func TestDecodeValidates(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"not-an-email","name":"x","password":"12345678"}`))
	var body registerRequest
	if err := decode(req, &body); err == nil {
		t.Fatal("invalid email passed validation")
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com","name":"x","password":"12345678"}`))
	if err := decode(req, &body); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
}
