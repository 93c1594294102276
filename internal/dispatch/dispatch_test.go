package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
)

type stubDispatcher struct {
	kind domain.StepKind
}

func (s *stubDispatcher) Kind() domain.StepKind { return s.kind }

func (s *stubDispatcher) Dispatch(_ context.Context, _ map[string]any) (any, error) {
	return "ok", nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&stubDispatcher{kind: domain.KindSearch}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	d, err := r.Get(domain.KindSearch)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.Kind() != domain.KindSearch {
		t.Errorf("Kind() = %q", d.Kind())
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get(domain.KindSearch)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Get() error = %v, want ErrUnknownKind", err)
	}
	if KindOf(err) != KindValidation {
		t.Errorf("KindOf() = %q, want validation", KindOf(err))
	}
}

func TestRegistryRejectsNil(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); !errors.Is(err, ErrNilDispatcher) {
		t.Errorf("Register(nil) error = %v, want ErrNilDispatcher", err)
	}
}

func TestRegistryKinds(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&stubDispatcher{kind: domain.KindSearch})
	_ = r.Register(&stubDispatcher{kind: domain.KindFileOperation})

	if kinds := r.Kinds(); len(kinds) != 2 {
		t.Errorf("Kinds() = %v, want 2 entries", kinds)
	}
}

func TestKindOf(t *testing.T) {
	base := errors.New("boom")

	cases := []struct {
		err  error
		want ErrorKind
	}{
		{Transient("op", base), KindTransient},
		{Validation("op", base), KindValidation},
		{ResourceExhausted("op", base), KindResourceExhausted},
		{Internal("op", base), KindInternal},
		{base, KindInternal},
		{fmt.Errorf("wrapped: %w", Transient("op", base)), KindTransient},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	base := errors.New("boom")

	if !IsRetryable(Transient("op", base)) || !IsRetryable(ResourceExhausted("op", base)) {
		t.Error("transient and resource_exhausted must be retryable")
	}
	if IsRetryable(Validation("op", base)) || IsRetryable(Internal("op", base)) || IsRetryable(base) {
		t.Error("validation, internal and untagged errors must not be retryable")
	}
}

func TestOpErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := Transient("search", base)

	if !errors.Is(err, base) {
		t.Error("errors.Is must reach the base error")
	}
	if got := err.Error(); got != "search: boom" {
		t.Errorf("Error() = %q", got)
	}
}
