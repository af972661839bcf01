package application

import "testing"

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.Add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected Add to populate map, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.Merge(other)
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected Merge to copy field, got %q", got)
	}

	base.Merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected Merge with nil to leave fields unchanged")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", ErrUnauthorized, "unauthorized"},
		{"not_found", ErrNotFound, "not_found"},
		{"superseded before conflict", ErrSuperseded, "superseded"},
		{"conflict", ErrConflict, "conflict"},
		{"slot_blocked", ErrSlotBlocked, "slot_blocked"},
		{"schedule_full", ErrScheduleFull, "schedule_full"},
		{"validation", &ValidationError{FieldErrors: map[string]string{"f": "bad"}}, "validation"},
		{"nil", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
