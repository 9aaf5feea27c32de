package common

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond}

	calls := 0
	err := Retry(context.Background(), policy, nil, "put", func(context.Context) error {
		calls++
		if calls < 3 {
			return External(errors.New("throttled"), "put record")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_BoundedAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := Retry(context.Background(), policy, nil, "get", func(context.Context) error {
		calls++
		return External(errors.New("unavailable"), "fetch object")
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("err = %v, want ErrExternalService", err)
	}
}

func TestRetry_TerminalErrorStopsImmediately(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	calls := 0
	err := Retry(context.Background(), policy, nil, "fetch", func(context.Context) error {
		calls++
		return WrapError(ErrMetadataMissing, "sidecar lookup")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (terminal errors are never retried)", calls)
	}
	if !errors.Is(err, ErrMetadataMissing) {
		t.Errorf("err = %v, want ErrMetadataMissing", err)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want bool
	}{
		{ErrMalformedKey, true},
		{ErrUnsupportedDocument, true},
		{ErrMetadataMissing, true},
		{ErrMetadataInvalid, true},
		{ErrNoIndicatorMatch, true},
		{ErrOCRJobFailed, true},
		{ErrExternalService, false},
		{errors.New("anything else"), false},
	} {
		if got := IsTerminal(tc.err); got != tc.want {
			t.Errorf("IsTerminal(%v) = %t, want %t", tc.err, got, tc.want)
		}
	}
}
