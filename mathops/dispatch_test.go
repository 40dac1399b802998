package mathops

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/dims"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
	"github.com/born-ml/core/tensor"
)

// fakeBuffer and fakeStream let dispatch tests exercise shape/alias
// validation and table routing without any concrete backend package.
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
	return &fakeBuffer{backing: b.backing, off: b.off + off, length: length, dt: b.dt}, nil
}
func (b *fakeBuffer) BackingID() uintptr { return uintptr(reflect.ValueOf(*b.backing).Pointer()) }
func (b *fakeBuffer) BackingOffset() int { return b.off }
func (b *fakeBuffer) Bytes() []byte {
	width := b.dt.ByteWidth()
	return (*b.backing)[b.off*width:]
}

type fakeStream struct{}

func (*fakeStream) Device() driver.Device { return nil }
func (*fakeStream) CopyHostToDevice(host driver.HostBuffer, hostOff int, dev driver.Buffer, devOff, n int) error {
	return nil
}
func (*fakeStream) CopyDeviceToHost(dev driver.Buffer, devOff int, host driver.HostBuffer, hostOff, n int) error {
	return nil
}
func (*fakeStream) CopyDeviceToDevice(src driver.Buffer, srcOff int, dst driver.Buffer, dstOff, n int) error {
	return nil
}
func (*fakeStream) SyncWithHost() error            { return nil }
func (*fakeStream) SyncWithStream(driver.Stream) error { return nil }

func newTensor(t *testing.T, shape []int) *tensor.Tensor {
	t.Helper()
	d := dims.New(shape)
	buf := newFakeBuffer(d.NumElements(), dtype.F32)
	tn, err := tensor.Bind(buf, d, dtype.F32)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return tn
}

func TestUnaryRejectsIncommensurateShapes(t *testing.T) {
	stream := &fakeStream{}
	RegisterStream(stream, &Table{
		Unary: func(driver.Stream, UnaryOp, *tensor.Tensor, *tensor.Tensor, float64) error { return nil },
	})
	defer UnregisterStream(stream)

	dest := newTensor(t, []int{4})
	x := newTensor(t, []int{5})

	err := Unary(stream, Negate, dest, x, 1)
	var shapeErr *coreerr.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
}

func TestUnaryRoutesToRegisteredTable(t *testing.T) {
	stream := &fakeStream{}
	called := false
	RegisterStream(stream, &Table{
		Unary: func(driver.Stream, UnaryOp, *tensor.Tensor, *tensor.Tensor, float64) error {
			called = true
			return nil
		},
	})
	defer UnregisterStream(stream)

	dest := newTensor(t, []int{3, 3})
	x := newTensor(t, []int{3, 3})

	if err := Unary(stream, Tanh, dest, x, 1); err != nil {
		t.Fatalf("Unary: %v", err)
	}
	if !called {
		t.Fatal("dispatch did not reach the registered table")
	}
}

func TestDispatchFailsCrossDriverWithoutRegisteredTable(t *testing.T) {
	stream := &fakeStream{}
	dest := newTensor(t, []int{3})
	x := newTensor(t, []int{3})

	err := Unary(stream, Noop, dest, x, 1)
	var cdErr *coreerr.CrossDriverError
	if !errors.As(err, &cdErr) {
		t.Fatalf("expected CrossDriverError, got %v", err)
	}
}

func TestBinaryCommensurateBroadcast(t *testing.T) {
	stream := &fakeStream{}
	RegisterStream(stream, &Table{
		Binary: func(driver.Stream, BinaryOp, *tensor.Tensor, *tensor.Tensor, *tensor.Tensor, float64, float64) error {
			return nil
		},
	})
	defer UnregisterStream(stream)

	dest := newTensor(t, []int{6})
	x := newTensor(t, []int{6})
	y := newTensor(t, []int{3}) // commensurate: 6 % 3 == 0

	if err := Binary(stream, Add, dest, x, y, 1, 1); err != nil {
		t.Fatalf("Binary: %v", err)
	}
}

func TestReduceRequiresLastAxisDropped(t *testing.T) {
	stream := &fakeStream{}
	RegisterStream(stream, &Table{
		Reduce: func(driver.Stream, ReduceOp, *tensor.Tensor, *tensor.Tensor, float64) error { return nil },
	})
	defer UnregisterStream(stream)

	input := newTensor(t, []int{2, 3})
	badDest := newTensor(t, []int{3})
	if err := Reduce(stream, ReduceSum, badDest, input, 1); err == nil {
		t.Fatal("expected ShapeError for mismatched reduce destination shape")
	}

	goodDest := newTensor(t, []int{2})
	if err := Reduce(stream, ReduceSum, goodDest, input, 1); err != nil {
		t.Fatalf("Reduce: %v", err)
	}
}

func TestGemmRejectsDestinationAliasingOperand(t *testing.T) {
	stream := &fakeStream{}
	RegisterStream(stream, &Table{
		Gemm: func(driver.Stream, *tensor.Tensor, bool, bool, float64, *tensor.Tensor, *tensor.Tensor, float64) error {
			return nil
		},
	})
	defer UnregisterStream(stream)

	c := newTensor(t, []int{3, 3})
	b := newTensor(t, []int{3, 3})

	err := Gemm(stream, c, false, false, 1, c, b, 0)
	var aliasErr *coreerr.AliasError
	if !errors.As(err, &aliasErr) {
		t.Fatalf("expected AliasError, got %v", err)
	}
}

func TestSelectDispatchesWithThreeScaleFactors(t *testing.T) {
	stream := &fakeStream{}
	var gotAlpha, gotBeta, gotGamma float64
	RegisterStream(stream, &Table{
		Select: func(_ driver.Stream, _, _, _, _ *tensor.Tensor, alpha, beta, gamma float64) error {
			gotAlpha, gotBeta, gotGamma = alpha, beta, gamma
			return nil
		},
	})
	defer UnregisterStream(stream)

	dest := newTensor(t, []int{3})
	cond := newTensor(t, []int{3})
	onTrue := newTensor(t, []int{3})
	onFalse := newTensor(t, []int{3})

	require.NoError(t, Select(stream, dest, cond, onTrue, onFalse, 2, 3, 4))
	require.Equal(t, 2.0, gotAlpha)
	require.Equal(t, 3.0, gotBeta)
	require.Equal(t, 4.0, gotGamma)
}

func TestSelectRejectsIncommensurateShapes(t *testing.T) {
	stream := &fakeStream{}
	RegisterStream(stream, &Table{
		Select: func(driver.Stream, *tensor.Tensor, *tensor.Tensor, *tensor.Tensor, *tensor.Tensor, float64, float64, float64) error {
			return nil
		},
	})
	defer UnregisterStream(stream)

	dest := newTensor(t, []int{4})
	cond := newTensor(t, []int{5})
	onTrue := newTensor(t, []int{4})
	onFalse := newTensor(t, []int{4})

	err := Select(stream, dest, cond, onTrue, onFalse, 1, 1, 1)
	var shapeErr *coreerr.ShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestRandRejectsNonF32Destination(t *testing.T) {
	stream := &fakeStream{}
	RegisterStream(stream, &Table{
		Rand: func(driver.Stream, *tensor.Tensor, Dist, float64, float64) error { return nil },
	})
	defer UnregisterStream(stream)

	d := dims.New([]int{4})
	buf := newFakeBuffer(d.NumElements(), dtype.F64)
	dest, err := tensor.Bind(buf, d, dtype.F64)
	require.NoError(t, err)

	err = Rand(stream, dest, Flat, 0, 1)
	var domainErr *coreerr.DomainError
	require.ErrorAs(t, err, &domainErr)
}

func TestGemmCanonicalizesTransposedOperand(t *testing.T) {
	stream := &fakeStream{}
	var gotTransA bool
	RegisterStream(stream, &Table{
		Gemm: func(_ driver.Stream, _ *tensor.Tensor, transA, _ bool, _ float64, _, _ *tensor.Tensor, _ float64) error {
			gotTransA = transA
			return nil
		},
	})
	defer UnregisterStream(stream)

	a := newTensor(t, []int{2, 3})
	aT, err := a.Transpose([]int{1, 0})
	if err != nil {
		t.Fatalf("Transpose: %v", err)
	}
	b := newTensor(t, []int{2, 4})
	c := newTensor(t, []int{3, 4})

	if err := Gemm(stream, c, false, false, 1, aT, b, 0); err != nil {
		t.Fatalf("Gemm: %v", err)
	}
	if !gotTransA {
		t.Error("expected transA to be flipped true for a non-access-increasing operand")
	}
}
