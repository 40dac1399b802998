package coreerr

import (
	"errors"
	"testing"
)

func TestResourceErrorAggregatesAndKeepsPrimaryFirst(t *testing.T) {
	first := errors.New("boom 1")
	second := errors.New("boom 2")

	err := NewResourceError([]error{first, second})

	var re *ResourceError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ResourceError, got %T", err)
	}
	if !errors.Is(re.Primary, first) {
		t.Errorf("Primary should wrap the first failure")
	}
	if len(re.Others) != 1 || re.Others[0] != second {
		t.Errorf("Others = %v, want [%v]", re.Others, second)
	}
}

func TestResourceErrorEmptyIsNil(t *testing.T) {
	if err := NewResourceError(nil); err != nil {
		t.Errorf("NewResourceError(nil) = %v, want nil", err)
	}
}

func TestErrorKindsHaveMessages(t *testing.T) {
	cases := []error{
		NewShapeError("bad reshape"),
		NewAliasError("dest aliases src"),
		NewSelectError("non-monotonic index"),
		NewDomainError("value out of range"),
		NewCrossDriverError("streams on different drivers"),
		NewNoContextError("driver"),
		NewUnknownDriverError("cuda"),
	}
	for _, err := range cases {
		if err.Error() == "" {
			t.Errorf("%T produced empty message", err)
		}
	}
}

func TestDeviceErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("out of memory")
	err := NewDeviceError("cpu", cause)

	if !errors.Is(err, cause) {
		t.Errorf("DeviceError should unwrap to its cause")
	}
}
