package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/dims"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
	"github.com/born-ml/core/mathops"
	"github.com/born-ml/core/tensor"
)

// These exercise the reference backend end to end: driver.Open("cpu") through
// mathops dispatch and back out through ToArray, the integration surface the
// lower-level package tests (dims, tensor, mathops) stub out with fakes.

func openTestDevice(t *testing.T) (driver.Device, driver.Stream) {
	t.Helper()
	drv, err := driver.Open("cpu")
	require.NoError(t, err)
	dev := drv.EnumerateDevices()[0]
	return dev, dev.DefaultStream()
}

func hostTensor(t *testing.T, drv driver.Driver, shape []int, values []float64) *tensor.Tensor {
	t.Helper()
	host, err := drv.AllocateHostBuffer(len(values), dtype.F64, driver.OneTime)
	require.NoError(t, err)
	for i, v := range values {
		require.NoError(t, dtype.PutFloat64(dtype.F64, host.Bytes(), i, v, false))
	}
	tn, err := tensor.Bind(host, dims.New(shape), dtype.F64)
	require.NoError(t, err)
	return tn
}

func requireArray(t *testing.T, tn *tensor.Tensor, want []float64) {
	t.Helper()
	got, err := tensor.ToArray(tn)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// TestCloneRoundTrip is spec scenario 1.
func TestCloneRoundTrip(t *testing.T) {
	dev, stream := openTestDevice(t)
	drv := dev.Driver()

	original := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8}
	host := hostTensor(t, drv, []int{3, 3}, original)

	onDevice, err := tensor.CloneToDevice(host, tensor.CloneOptions{Device: dev, Stream: stream, Sync: true})
	require.NoError(t, err)
	backOnHost, err := tensor.CloneToHost(onDevice, tensor.CloneOptions{Device: dev, Stream: stream, Sync: true})
	require.NoError(t, err)
	requireArray(t, backOnHost, original)
}

// TestSelectSubView is spec scenario 2.
func TestSelectSubView(t *testing.T) {
	dev, stream := openTestDevice(t)
	drv := dev.Driver()

	host := hostTensor(t, drv, []int{3, 3}, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8})
	onDevice, err := tensor.CloneToDevice(host, tensor.CloneOptions{Device: dev, Stream: stream, Sync: true})
	require.NoError(t, err)

	view, err := onDevice.Select(dims.Range(0, 2), dims.Range(0, 2))
	require.NoError(t, err)
	backOnHost, err := tensor.CloneToHost(view, tensor.CloneOptions{Device: dev, Stream: stream, Sync: true})
	require.NoError(t, err)
	requireArray(t, backOnHost, []float64{0, 1, 3, 4})
}

// TestGemmScenarios is spec scenario 3.
func TestGemmScenarios(t *testing.T) {
	dev, stream := openTestDevice(t)
	drv := dev.Driver()

	a := hostTensor(t, drv, []int{2, 2}, []float64{1, 2, 3, 4})
	b := hostTensor(t, drv, []int{2, 2}, []float64{5, 6, 7, 8})

	c1, err := tensor.New([]int{2, 2}, tensor.NewOptions{Datatype: dtype.F64, HasDtype: true, Device: dev, Stream: stream})
	require.NoError(t, err)
	require.NoError(t, mathops.Gemm(stream, c1, false, false, 1, a, b, 0))
	requireArray(t, c1, []float64{19, 22, 43, 50})

	c2, err := tensor.New([]int{2, 2}, tensor.NewOptions{Datatype: dtype.F64, HasDtype: true, Device: dev, Stream: stream})
	require.NoError(t, err)
	require.NoError(t, mathops.Gemm(stream, c2, true, false, 1, a, b, 0))
	requireArray(t, c2, []float64{26, 30, 38, 44})
}

// TestBroadcastAdd is spec scenario 4.
func TestBroadcastAdd(t *testing.T) {
	dev, stream := openTestDevice(t)
	drv := dev.Driver()

	x := hostTensor(t, drv, []int{6}, []float64{1, 2, 3, 4, 5, 6})
	y := hostTensor(t, drv, []int{3}, []float64{10, 20, 30})
	dest, err := tensor.New([]int{6}, tensor.NewOptions{Datatype: dtype.F64, HasDtype: true, Device: dev, Stream: stream})
	require.NoError(t, err)

	require.NoError(t, mathops.Binary(stream, mathops.Add, dest, x, y, 1, 1))
	requireArray(t, dest, []float64{11, 22, 33, 14, 25, 36})
}

// TestGemmAliasRejection is spec scenario 5.
func TestGemmAliasRejection(t *testing.T) {
	_, stream := openTestDevice(t)
	drv := stream.Device().Driver()

	c := hostTensor(t, drv, []int{2, 2}, []float64{1, 2, 3, 4})
	b := hostTensor(t, drv, []int{2, 2}, []float64{5, 6, 7, 8})

	err := mathops.Gemm(stream, c, false, false, 1, c, b, 0)
	var aliasErr *coreerr.AliasError
	require.ErrorAs(t, err, &aliasErr)
}

// TestReductionMagnitude is spec scenario 6.
func TestReductionMagnitude(t *testing.T) {
	dev, stream := openTestDevice(t)
	drv := dev.Driver()

	input := hostTensor(t, drv, []int{2, 2}, []float64{3, 4, 0, 5})
	dest, err := tensor.New([]int{2}, tensor.NewOptions{Datatype: dtype.F64, HasDtype: true, Device: dev, Stream: stream})
	require.NoError(t, err)
	require.NoError(t, mathops.Reduce(stream, mathops.ReduceMagnitude, dest, input, 1))
	requireArray(t, dest, []float64{5, 5})
}

func TestUnaryLogisticF32(t *testing.T) {
	dev, stream := openTestDevice(t)

	x, err := tensor.ToTensor([]float32{0, 1, -1}, tensor.ToTensorOptions{Datatype: dtype.F32, HasDtype: true, Device: dev, Stream: stream, Sync: true})
	require.NoError(t, err)
	dest, err := tensor.New([]int{3}, tensor.NewOptions{Datatype: dtype.F32, HasDtype: true, Device: dev, Stream: stream})
	require.NoError(t, err)
	require.NoError(t, mathops.Unary(stream, mathops.Logistic, dest, x, 1))

	got, err := tensor.ToArray(dest)
	require.NoError(t, err)
	require.InDelta(t, 0.5, got[0], 0.01)
}

func TestCreateStreamUnsupported(t *testing.T) {
	dev, _ := openTestDevice(t)
	require.False(t, dev.SupportsCreateStream())

	_, err := dev.CreateStream()
	var devErr *coreerr.DeviceError
	require.ErrorAs(t, err, &devErr)
}

func TestSyncWithStreamRejectsCrossDriverStreams(t *testing.T) {
	_, streamA := openTestDevice(t)
	_, streamB := openTestDevice(t)

	err := streamA.SyncWithStream(streamB)
	var cdErr *coreerr.CrossDriverError
	require.ErrorAs(t, err, &cdErr)
}

func TestNewHonorsWorkerOptions(t *testing.T) {
	drv, err := New(WithWorkers(1), WithGemmBlockSize(2))
	require.NoError(t, err)
	dev := drv.EnumerateDevices()[0]
	stream := dev.DefaultStream()

	x := hostTensor(t, drv, []int{4}, []float64{1, 2, 3, 4})
	dest, err := tensor.New([]int{4}, tensor.NewOptions{Datatype: dtype.F64, HasDtype: true, Device: dev, Stream: stream})
	require.NoError(t, err)
	require.NoError(t, mathops.Unary(stream, mathops.Negate, dest, x, 1))
	requireArray(t, dest, []float64{-1, -2, -3, -4})
}

func TestRandFlatFillsRange(t *testing.T) {
	dev, stream := openTestDevice(t)

	dest, err := tensor.New([]int{100}, tensor.NewOptions{Datatype: dtype.F32, HasDtype: true, Device: dev, Stream: stream})
	require.NoError(t, err)
	require.NoError(t, mathops.Rand(stream, dest, mathops.Flat, 5, 10))

	got, err := tensor.ToArray(dest)
	require.NoError(t, err)
	for i, v := range got {
		require.GreaterOrEqualf(t, v, 5.0, "element %d", i)
		require.Lessf(t, v, 10.0, "element %d", i)
	}
}
