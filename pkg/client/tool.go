package client

import (
	"fmt"
	"math"

	"github.com/a-essam23/syncboard/pkg/shape"
)

type Tool string

const (
	ToolRect   Tool = "rect"
	ToolCircle Tool = "circle"
	ToolArrow  Tool = "arrow"
	ToolPencil Tool = "pencil"
	ToolEraser Tool = "eraser"

	DefaultTool = ToolCircle
)

func ParseTool(s string) (Tool, error) {
	switch t := Tool(s); t {
	case ToolRect, ToolCircle, ToolArrow, ToolPencil, ToolEraser:
		return t, nil
	}
	return "", fmt.Errorf("unknown tool '%s'", s)
}

// Effect is what one pointer event asks of the scene controller.
type Effect struct {
	// Commit is a finished shape to apply locally and send.
	Commit shape.Shape
	// Erase asks for a hit test at EraseAt.
	Erase   bool
	EraseAt shape.Point
	// Redraw means the live preview changed.
	Redraw bool
}

// Interaction turns pointer events into shapes under the selected tool.
// It is Idle until PointerDown and Dragging until PointerUp.
type Interaction struct {
	tool     Tool
	dragging bool
	anchor   shape.Point
	cursor   shape.Point
	path     []shape.Point
}

func NewInteraction() *Interaction {
	return &Interaction{tool: DefaultTool}
}

func (in *Interaction) Tool() Tool     { return in.tool }
func (in *Interaction) Dragging() bool { return in.dragging }

// SetTool selects t and abandons any gesture in progress.
func (in *Interaction) SetTool(t Tool) {
	in.tool = t
	in.reset()
}

func (in *Interaction) reset() {
	in.dragging = false
	in.path = nil
}

func (in *Interaction) PointerDown(p shape.Point) Effect {
	in.dragging = true
	in.anchor, in.cursor = p, p
	in.path = nil
	switch in.tool {
	case ToolPencil:
		in.path = []shape.Point{p}
	case ToolEraser:
		return Effect{Erase: true, EraseAt: p}
	}
	return Effect{}
}

func (in *Interaction) PointerMove(p shape.Point) Effect {
	if !in.dragging {
		return Effect{}
	}
	in.cursor = p
	switch in.tool {
	case ToolEraser:
		return Effect{Erase: true, EraseAt: p}
	case ToolPencil:
		in.path = append(in.path, p)
	}
	return Effect{Redraw: true}
}

// PointerUp ends the gesture. A pencil stroke shorter than two points
// commits nothing; the eraser never commits.
func (in *Interaction) PointerUp(p shape.Point) Effect {
	if !in.dragging {
		return Effect{}
	}
	defer in.reset()
	if in.tool == ToolEraser {
		return Effect{}
	}
	in.cursor = p
	s := in.build()
	return Effect{Commit: s, Redraw: s == nil}
}

// Preview is the shape the current drag would commit, or nil.
func (in *Interaction) Preview() shape.Shape {
	if !in.dragging {
		return nil
	}
	return in.build()
}

func (in *Interaction) build() shape.Shape {
	a, c := in.anchor, in.cursor
	w, h := c.X-a.X, c.Y-a.Y
	switch in.tool {
	case ToolRect:
		return &shape.Rect{X: a.X, Y: a.Y, Width: w, Height: h}
	case ToolCircle:
		return &shape.Circle{
			CenterX: a.X + w/2,
			CenterY: a.Y + h/2,
			Radius:  math.Max(math.Abs(w), math.Abs(h)) / 2,
		}
	case ToolArrow:
		return &shape.Arrow{StartX: a.X, StartY: a.Y, EndX: c.X, EndY: c.Y}
	case ToolPencil:
		if len(in.path) < 2 {
			return nil
		}
		return &shape.Pencil{Points: append([]shape.Point(nil), in.path...)}
	}
	return nil
}
