package dims

import (
	"errors"
	"reflect"
	"testing"

	"github.com/born-ml/core/coreerr"
)

func TestNewIsSimple(t *testing.T) {
	d := New([]int{3, 4})
	if !d.Simple() {
		t.Errorf("freshly constructed Dims should be simple")
	}
	if !reflect.DeepEqual(d.Strides(), []int{4, 1}) {
		t.Errorf("Strides() = %v, want [4 1]", d.Strides())
	}
}

func TestReshapeRequiresDenseAccessIncreasing(t *testing.T) {
	d := New([]int{2, 3})
	transposed, err := d.Transpose([]int{1, 0})
	if err != nil {
		t.Fatalf("Transpose: %v", err)
	}

	_, err = transposed.Reshape([]int{6})
	var shapeErr *coreerr.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError on reshape of a transposed view, got %v", err)
	}
}

func TestReshapeElementCountMismatch(t *testing.T) {
	d := New([]int{2, 3})
	_, err := d.Reshape([]int{4})
	if err == nil {
		t.Fatal("expected error reshaping to a different element count")
	}
}

func TestTransposeInvolution(t *testing.T) {
	d := New([]int{2, 3, 4})
	perm := []int{2, 0, 1}
	inv := []int{1, 2, 0}

	transposed, err := d.Transpose(perm)
	if err != nil {
		t.Fatalf("Transpose: %v", err)
	}
	back, err := transposed.Transpose(inv)
	if err != nil {
		t.Fatalf("Transpose inverse: %v", err)
	}

	if !reflect.DeepEqual(back.Shape(), d.Shape()) || !reflect.DeepEqual(back.Strides(), d.Strides()) {
		t.Errorf("transpose(transpose(d, p), p^-1) != d: got shape %v strides %v", back.Shape(), back.Strides())
	}
}

func TestSelectSubView(t *testing.T) {
	// 3x3 row-major tensor; select rows [0,2) and cols [0,2).
	d := New([]int{3, 3})
	view, err := d.Select(Range(0, 2), Range(0, 2))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !reflect.DeepEqual(view.Shape(), []int{2, 2}) {
		t.Errorf("Shape() = %v, want [2 2]", view.Shape())
	}
	if view.Offset() != 0 {
		t.Errorf("Offset() = %d, want 0", view.Offset())
	}
}

func TestSelectComposition(t *testing.T) {
	d := New([]int{4, 4})

	step1, err := d.Select(Range(1, 4), All())
	if err != nil {
		t.Fatalf("Select step1: %v", err)
	}
	step2, err := step1.Select(Index(1), Range(0, 2))
	if err != nil {
		t.Fatalf("Select step2: %v", err)
	}

	// Composed selection should be equivalent to selecting row 2 (1+1),
	// columns [0,2) directly from d.
	direct, err := d.Select(Index(2), Range(0, 2))
	if err != nil {
		t.Fatalf("Select direct: %v", err)
	}

	if !reflect.DeepEqual(step2.Shape(), direct.Shape()) || step2.Offset() != direct.Offset() {
		t.Errorf("select composition mismatch: got shape=%v offset=%d, want shape=%v offset=%d",
			step2.Shape(), step2.Offset(), direct.Shape(), direct.Offset())
	}
}

func TestSelectNonIncreasingRangeFails(t *testing.T) {
	d := New([]int{3, 3})
	_, err := d.Select(Range(2, 1), All())
	var selErr *coreerr.SelectError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected SelectError, got %v", err)
	}
}

func TestCommensurateBroadcast(t *testing.T) {
	result, ok := Commensurate([]int{6}, []int{3})
	if !ok {
		t.Fatal("expected [6] and [3] to be commensurate")
	}
	if !reflect.DeepEqual(result, []int{6}) {
		t.Errorf("result = %v, want [6]", result)
	}

	if _, ok := Commensurate([]int{6}, []int{4}); ok {
		t.Error("[6] and [4] should not be commensurate")
	}
}

func TestColumnAndElementStride(t *testing.T) {
	d := New([]int{3, 4})
	col, err := d.ColumnStride()
	if err != nil || col != 4 {
		t.Errorf("ColumnStride() = (%d, %v), want (4, nil)", col, err)
	}
	elem, err := d.ElementStride()
	if err != nil || elem != 1 {
		t.Errorf("ElementStride() = (%d, %v), want (1, nil)", elem, err)
	}
}
