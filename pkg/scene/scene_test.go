package scene_test

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/a-essam23/syncboard/pkg/scene"
	"github.com/a-essam23/syncboard/pkg/shape"
)

func TestAppendAndReplace(t *testing.T) {
	s := scene.New()
	assert.Equal(t, s.Len(), 0)

	r := &shape.Rect{X: 10, Y: 10, Width: 50, Height: 30}
	s.Append(r)
	assert.Equal(t, s.Len(), 1)
	assert.Equal(t, s.Contains(&shape.Rect{X: 10, Y: 10, Width: 50, Height: 30}), true)

	s.Replace(nil)
	assert.Equal(t, s.Len(), 0)
	assert.Equal(t, s.Contains(r), false)
}

func TestShapesReturnsCopy(t *testing.T) {
	s := scene.New(&shape.Rect{}, &shape.Circle{})
	got := s.Shapes()
	got[0] = &shape.Arrow{}
	assert.Equal(t, s.Shapes()[0].Kind(), shape.KindRect)
}

func TestReplaceCopiesInput(t *testing.T) {
	in := []shape.Shape{&shape.Rect{}, &shape.Circle{}}
	s := scene.New()
	s.Replace(in)
	in[0] = &shape.Arrow{}
	assert.Equal(t, s.Shapes()[0].Kind(), shape.KindRect)
}

func TestEraseAt(t *testing.T) {
	c := &shape.Circle{CenterX: 100, CenterY: 100, Radius: 20}
	r := &shape.Rect{X: 0, Y: 0, Width: 10, Height: 10}
	s := scene.New(r, c)

	n := s.EraseAt(shape.Point{X: 105, Y: 100}, 10)
	assert.Equal(t, n, 1)
	assert.Equal(t, s.Len(), 1)
	assert.Equal(t, s.Contains(c), false)
	assert.Equal(t, s.Contains(r), true)

	// Nothing left under the same point.
	assert.Equal(t, s.EraseAt(shape.Point{X: 105, Y: 100}, 10), 0)
	assert.Equal(t, s.Len(), 1)
}

func TestEqual(t *testing.T) {
	a := scene.New(&shape.Rect{X: 1}, &shape.Circle{Radius: 2})
	b := scene.New(&shape.Rect{X: 1}, &shape.Circle{Radius: 2})
	c := scene.New(&shape.Circle{Radius: 2}, &shape.Rect{X: 1})
	assert.Equal(t, scene.Equal(a, b), true)
	assert.Equal(t, scene.Equal(a, c), false)
	assert.Equal(t, scene.Equal(a, scene.New()), false)
}
