package dtype

import (
	"errors"
	"testing"

	"github.com/born-ml/core/coreerr"
)

func TestByteWidth(t *testing.T) {
	cases := map[Kind]int{
		I8: 1, U8: 1,
		I16: 2, U16: 2,
		I32: 4, U32: 4, F32: 4,
		I64: 8, U64: 8, F64: 8,
	}
	for k, want := range cases {
		if got := k.ByteWidth(); got != want {
			t.Errorf("%v.ByteWidth() = %d, want %d", k, got, want)
		}
	}
}

func TestCopySameKindIsByteCopy(t *testing.T) {
	src := make([]byte, 8)
	PutFloat64(F64, src, 0, 3.5, true)
	dst := make([]byte, 8)
	if err := Copy(F64, src, 0, F64, dst, 0, 1, true); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if got := Float64(F64, dst, 0); got != 3.5 {
		t.Errorf("got %v, want 3.5", got)
	}
}

func TestCopyIntNarrowingWraps(t *testing.T) {
	src := make([]byte, 8)
	PutInt64(I32, src, 0, 300, true)
	dst := make([]byte, 1)
	if err := Copy(I32, src, 0, U8, dst, 0, 1, true); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if got := Int64(U8, dst, 0); got != 300%256 {
		t.Errorf("got %d, want %d (wrapped)", got, 300%256)
	}
}

func TestCopyIntNarrowingChecked(t *testing.T) {
	src := make([]byte, 8)
	PutInt64(I32, src, 0, 300, true)
	dst := make([]byte, 1)

	err := Copy(I32, src, 0, U8, dst, 0, 1, false)
	var domainErr *coreerr.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
}

func TestCopyFloatToIntRoundsTowardZero(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want int64
	}{
		{2.9, 2},
		{-2.9, -2},
	} {
		src := make([]byte, 8)
		PutFloat64(F64, src, 0, tc.in, true)
		dst := make([]byte, 8)
		if err := Copy(F64, src, 0, I64, dst, 0, 1, true); err != nil {
			t.Fatalf("Copy: %v", err)
		}
		if got := Int64(I64, dst, 0); got != tc.want {
			t.Errorf("Copy(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestIsIntegerIsFloat(t *testing.T) {
	for _, k := range []Kind{I8, I16, I32, I64, U8, U16, U32, U64} {
		if !k.IsInteger() || k.IsFloat() {
			t.Errorf("%v should be integer, not float", k)
		}
	}
	for _, k := range []Kind{F32, F64} {
		if k.IsInteger() || !k.IsFloat() {
			t.Errorf("%v should be float, not integer", k)
		}
	}
}
