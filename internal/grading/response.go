package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Shape is the structural form of a submitted answer.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeScalar
	ShapeList
	ShapeNested
	ShapeInvalid
)

func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeScalar:
		return "scalar"
	case ShapeList:
		return "list"
	case ShapeNested:
		return "nested"
	default:
		return "invalid"
	}
}

// Response is one learner answer for one question. The zero value means
// "not answered".
type Response struct {
	shape      Shape
	value      string
	values     []string
	parts      map[int]Response
	positional bool // parts came from a JSON list
	err        error
}

func NoResponse() Response       { return Response{} }
func Scalar(v string) Response   { return Response{shape: ShapeScalar, value: v} }
func List(vs ...string) Response { return Response{shape: ShapeList, values: vs} }
func Invalid(err error) Response { return Response{shape: ShapeInvalid, err: err} }

func Nested(parts map[int]Response) Response {
	return Response{shape: ShapeNested, parts: parts}
}

func (r Response) Shape() Shape     { return r.shape }
func (r Response) Answered() bool   { return r.shape != ShapeNone }
func (r Response) Value() string    { return r.value }
func (r Response) Values() []string { return r.values }
func (r Response) Err() error       { return r.err }

// Part returns the answer for sub-question i of a composite response.
// Positional lists are accepted as well as index-keyed objects.
func (r Response) Part(i int) Response {
	switch r.shape {
	case ShapeNested:
		return r.parts[i]
	case ShapeList:
		if i >= 0 && i < len(r.values) {
			return Scalar(r.values[i])
		}
	}
	return NoResponse()
}

var errUnsupportedValue = errors.New("unsupported answer value")

// ParseResponse converts a decoded JSON value into a Response. It never
// fails: values that cannot be interpreted become Invalid responses, which
// grade as zero.
func ParseResponse(v interface{}) Response {
	switch t := v.(type) {
	case nil:
		return NoResponse()
	case Response:
		return t
	case []string:
		return List(t...)
	case []interface{}:
		return parseSlice(t)
	case map[string]interface{}:
		parts := make(map[int]Response, len(t))
		for k, e := range t {
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 {
				return Invalid(fmt.Errorf("sub-answer key %q is not an index", k))
			}
			parts[i] = ParseResponse(e)
		}
		return Nested(parts)
	default:
		s, ok := stringify(t)
		if !ok {
			return Invalid(fmt.Errorf("%w: %T", errUnsupportedValue, t))
		}
		return Scalar(s)
	}
}

// a list of scalars is a multi-select answer. A null or nested element
// turns the list into a positional composite answer so that every element
// keeps its sub-question index.
func parseSlice(t []interface{}) Response {
	values := make([]string, 0, len(t))
	for _, e := range t {
		s, ok := stringify(e)
		if !ok {
			parts := make(map[int]Response, len(t))
			for i, e := range t {
				parts[i] = ParseResponse(e)
			}
			return Response{shape: ShapeNested, parts: parts, positional: true}
		}
		values = append(values, s)
	}
	return List(values...)
}

// selections returns the chosen values of a multi-select answer. A
// positional answer qualifies when all of its elements are scalars or
// null; nulls are skipped.
func (r Response) selections() ([]string, bool) {
	switch {
	case r.shape == ShapeList:
		return r.values, true
	case r.shape == ShapeScalar:
		return []string{r.value}, true
	case r.shape != ShapeNested || !r.positional:
		return nil, false
	}
	out := make([]string, 0, len(r.parts))
	for i := 0; i < len(r.parts); i++ {
		switch p := r.parts[i]; p.shape {
		case ShapeNone:
		case ShapeScalar:
			out = append(out, p.value)
		default:
			return nil, false
		}
	}
	return out, true
}

// ParseAnswers converts a raw answers object keyed by question index.
func ParseAnswers(raw map[string]interface{}) (map[int]Response, error) {
	out := make(map[int]Response, len(raw))
	for k, v := range raw {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("answer key %q is not a question index", k)
		}
		out[i] = ParseResponse(v)
	}
	return out, nil
}

func (r *Response) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = ParseResponse(v)
	return nil
}

// MarshalJSON renders the response back into the shape it was parsed from.
func (r Response) MarshalJSON() ([]byte, error) {
	switch r.shape {
	case ShapeScalar:
		return json.Marshal(r.value)
	case ShapeList:
		if r.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(r.values)
	case ShapeNested:
		if r.positional {
			list := make([]Response, len(r.parts))
			for i := range list {
				list[i] = r.parts[i]
			}
			return json.Marshal(list)
		}
		keys := make([]int, 0, len(r.parts))
		for k := range r.parts {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		m := make(map[string]Response, len(keys))
		for _, k := range keys {
			m[strconv.Itoa(k)] = r.parts[k]
		}
		return json.Marshal(m)
	default:
		return []byte("null"), nil
	}
}
