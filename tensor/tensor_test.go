package tensor

import (
	"errors"
	"reflect"
	"testing"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/dims"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
)

// fakeBuffer is a minimal driver.HostBuffer implementation backing tests
// without depending on any concrete backend package.
type fakeBuffer struct {
	backing *[]byte
	off     int
	length  int
	dt      dtype.Kind
}

func newFakeBuffer(n int, dt dtype.Kind) *fakeBuffer {
	data := make([]byte, n*dt.ByteWidth())
	return &fakeBuffer{backing: &data, length: n, dt: dt}
}

func (b *fakeBuffer) Datatype() dtype.Kind { return b.dt }
func (b *fakeBuffer) Length() int          { return b.length }
func (b *fakeBuffer) Device() driver.Device { return nil }

func (b *fakeBuffer) SubBuffer(off, length int) (driver.Buffer, error) {
	if off < 0 || off+length > b.length {
		return nil, coreerr.NewShapeError("sub_buffer out of range")
	}
	return &fakeBuffer{backing: b.backing, off: b.off + off, length: length, dt: b.dt}, nil
}

func (b *fakeBuffer) BackingID() uintptr { return uintptr(reflect.ValueOf(*b.backing).Pointer()) }
func (b *fakeBuffer) BackingOffset() int { return b.off }

func (b *fakeBuffer) Bytes() []byte {
	width := b.dt.ByteWidth()
	return (*b.backing)[b.off*width:]
}

func TestNewTensorValidatesDatatypeAndBounds(t *testing.T) {
	buf := newFakeBuffer(6, dtype.F32)
	d := dims.New([]int{2, 3})

	if _, err := Bind(buf, d, dtype.F64); err == nil {
		t.Fatal("expected ShapeError on datatype mismatch")
	} else {
		var shapeErr *coreerr.ShapeError
		if !errors.As(err, &shapeErr) {
			t.Fatalf("expected ShapeError, got %v", err)
		}
	}

	tensor, err := Bind(buf, d, dtype.F32)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !reflect.DeepEqual(tensor.Shape(), []int{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", tensor.Shape())
	}
}

func TestNewTensorRejectsUndersizedBuffer(t *testing.T) {
	buf := newFakeBuffer(4, dtype.F32)
	d := dims.New([]int{2, 3})
	if _, err := Bind(buf, d, dtype.F32); err == nil {
		t.Fatal("expected ShapeError: dims exceed buffer length")
	}
}

func TestViewsShareBuffer(t *testing.T) {
	buf := newFakeBuffer(12, dtype.F32)
	base, err := Bind(buf, dims.New([]int{3, 4}), dtype.F32)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	rows, err := base.Rows(1, 3)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if rows.Buffer() != base.Buffer() {
		t.Error("Rows view does not share the base tensor's buffer")
	}
	if !reflect.DeepEqual(rows.Shape(), []int{2, 4}) {
		t.Errorf("Rows shape = %v, want [2 4]", rows.Shape())
	}
}

func TestAliasDetectsOverlap(t *testing.T) {
	buf := newFakeBuffer(12, dtype.F32)
	base, err := Bind(buf, dims.New([]int{3, 4}), dtype.F32)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	left, err := base.Columns(0, 2)
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	right, err := base.Columns(2, 4)
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if Alias(left, right) {
		t.Error("disjoint column ranges should not alias")
	}

	overlapping, err := base.Columns(1, 3)
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if !Alias(left, overlapping) {
		t.Error("overlapping column ranges should alias")
	}
}
