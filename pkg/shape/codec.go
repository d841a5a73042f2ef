package shape

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrInvalidShape is returned when a payload is not a well-formed Shape.
var ErrInvalidShape = errors.New("invalid shape")

var requiredFields = map[Kind][]string{
	KindRect:   {"x", "y", "width", "height"},
	KindCircle: {"centerX", "centerY", "radius"},
	KindArrow:  {"startX", "startY", "endX", "endY"},
}

// tagged is the wire form of every variant: the variant fields plus "type".
func tagged(kind Kind, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	// body is always a non-empty JSON object for our variants.
	out := make([]byte, 0, len(body)+len(kind)+10)
	out = append(out, `{"type":"`...)
	out = append(out, kind...)
	out = append(out, '"')
	if len(body) > 2 {
		out = append(out, ',')
	}
	out = append(out, body[1:]...)
	return out, nil
}

func (s *Rect) MarshalJSON() ([]byte, error) {
	type plain Rect
	return tagged(KindRect, (*plain)(s))
}

func (s *Circle) MarshalJSON() ([]byte, error) {
	type plain Circle
	return tagged(KindCircle, (*plain)(s))
}

func (s *Pencil) MarshalJSON() ([]byte, error) {
	type plain Pencil
	p := plain{Points: s.Points}
	if p.Points == nil {
		p.Points = []Point{}
	}
	return tagged(KindPencil, &p)
}

func (s *Arrow) MarshalJSON() ([]byte, error) {
	type plain Arrow
	return tagged(KindArrow, (*plain)(s))
}

// Decode parses one tagged Shape. Unknown types, missing fields and
// non-numeric coordinates all fail with ErrInvalidShape.
func Decode(raw []byte) (Shape, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: not valid json", ErrInvalidShape)
	}
	return fromResult(gjson.ParseBytes(raw))
}

func fromResult(r gjson.Result) (Shape, error) {
	if !r.IsObject() {
		return nil, fmt.Errorf("%w: expected object", ErrInvalidShape)
	}
	kind := Kind(r.Get("type").String())
	switch kind {
	case KindRect, KindCircle, KindArrow:
		for _, f := range requiredFields[kind] {
			if v := r.Get(f); v.Type != gjson.Number {
				return nil, fmt.Errorf("%w: %s.%s must be a number", ErrInvalidShape, kind, f)
			}
		}
	case KindPencil:
		pts := r.Get("points")
		if !pts.IsArray() {
			return nil, fmt.Errorf("%w: pencil.points must be an array", ErrInvalidShape)
		}
		for i, p := range pts.Array() {
			if p.Get("x").Type != gjson.Number || p.Get("y").Type != gjson.Number {
				return nil, fmt.Errorf("%w: pencil.points[%d] needs numeric x and y", ErrInvalidShape, i)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown type '%s'", ErrInvalidShape, kind)
	}

	var s Shape
	switch kind {
	case KindRect:
		s = &Rect{
			X: r.Get("x").Float(), Y: r.Get("y").Float(),
			Width: r.Get("width").Float(), Height: r.Get("height").Float(),
		}
	case KindCircle:
		s = &Circle{
			CenterX: r.Get("centerX").Float(), CenterY: r.Get("centerY").Float(),
			Radius: r.Get("radius").Float(),
		}
	case KindArrow:
		s = &Arrow{
			StartX: r.Get("startX").Float(), StartY: r.Get("startY").Float(),
			EndX: r.Get("endX").Float(), EndY: r.Get("endY").Float(),
		}
	case KindPencil:
		arr := r.Get("points").Array()
		pts := make([]Point, len(arr))
		for i, p := range arr {
			pts[i] = Point{X: p.Get("x").Float(), Y: p.Get("y").Float()}
		}
		s = &Pencil{Points: pts}
	}
	return s, nil
}

// Key is the canonical encoding of s, stable for equal shapes.
func Key(s Shape) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// List is an ordered sequence of shapes with a JSON array encoding.
// A nil List encodes as [] so an empty Scene is never sent as null.
type List []Shape

func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Shape(l))
}

func (l *List) UnmarshalJSON(raw []byte) error {
	shapes, err := DecodeList(raw)
	if err != nil {
		return err
	}
	*l = shapes
	return nil
}

// DecodeList parses a JSON array of tagged shapes. Any invalid element
// rejects the whole list.
func DecodeList(raw []byte) (List, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: not valid json", ErrInvalidShape)
	}
	return listFromResult(gjson.ParseBytes(raw))
}

// ListFrom decodes a gjson array already extracted from a larger document.
func ListFrom(r gjson.Result) (List, error) {
	return listFromResult(r)
}

func listFromResult(r gjson.Result) (List, error) {
	if !r.IsArray() {
		return nil, fmt.Errorf("%w: expected array", ErrInvalidShape)
	}
	elems := r.Array()
	out := make(List, 0, len(elems))
	for i, e := range elems {
		s, err := fromResult(e)
		if err != nil {
			return nil, fmt.Errorf("shapes[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

type envelope struct {
	Shape Shape `json:"shape"`
}

// EncodeEnvelope wraps s as the {"shape": ...} document carried as a string
// inside chat frames and stored per record.
func EncodeEnvelope(s Shape) (string, error) {
	b, err := json.Marshal(envelope{Shape: s})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeEnvelope is the inverse of EncodeEnvelope.
func DecodeEnvelope(doc string) (Shape, error) {
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("%w: envelope is not valid json", ErrInvalidShape)
	}
	inner := gjson.Get(doc, "shape")
	if !inner.Exists() {
		return nil, fmt.Errorf("%w: envelope missing 'shape'", ErrInvalidShape)
	}
	return fromResult(inner)
}
