package store

import (
	"encoding/json"
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// Encode converts a record's fields to their storage representation:
// list fields become JSON text, booleans become 0/1, integers are
// normalised to int64. Keys that are not columns of the kind are
// dropped. The returned slices are parallel (column names and values).
func Encode(kind models.Kind, rec Record) ([]string, []any, error) {
	sch := schemaFor(kind)
	names := make([]string, 0, len(sch.cols))
	vals := make([]any, 0, len(sch.cols))
	for _, c := range sch.cols {
		v, ok := rec[c.name]
		if !ok {
			continue
		}
		ev, err := encodeValue(c, v)
		if err != nil {
			return nil, nil, err
		}
		names = append(names, c.name)
		vals = append(vals, ev)
	}
	return names, vals, nil
}

// Decode converts a scanned row back to a record. NULL columns are
// omitted so that Decode(Encode(r)) reproduces r for valid records.
func Decode(kind models.Kind, cols []string, raw []any) (Record, error) {
	sch := schemaFor(kind)
	rec := make(Record, len(cols))
	for i, name := range cols {
		if raw[i] == nil {
			continue
		}
		c, ok := sch.col(name)
		if !ok {
			continue
		}
		v, err := decodeValue(c, raw[i])
		if err != nil {
			return nil, err
		}
		rec[name] = v
	}
	return rec, nil
}

func encodeValue(c column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch c.typ {
	case colText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("store: column %s: expected string, got %T", c.name, v)
		}
		return s, nil

	case colInt:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case float64:
			// JSON numbers arrive as float64.
			return int64(n), nil
		default:
			return nil, fmt.Errorf("store: column %s: expected number, got %T", c.name, v)
		}

	case colBool:
		switch b := v.(type) {
		case bool:
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		case float64:
			// Clients that already coerced to 0/1.
			if b != 0 {
				return int64(1), nil
			}
			return int64(0), nil
		default:
			return nil, fmt.Errorf("store: column %s: expected bool, got %T", c.name, v)
		}

	case colList:
		list, err := toStringList(v)
		if err != nil {
			return nil, fmt.Errorf("store: column %s: %w", c.name, err)
		}
		data, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("store: column %s: marshal: %w", c.name, err)
		}
		return string(data), nil
	}
	return nil, fmt.Errorf("store: column %s: unknown column type", c.name)
}

func decodeValue(c column, v any) (any, error) {
	switch c.typ {
	case colText:
		return asString(v), nil

	case colInt:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("store: column %s: expected int64, got %T", c.name, v)
		}
		return n, nil

	case colBool:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("store: column %s: expected int64, got %T", c.name, v)
		}
		return n != 0, nil

	case colList:
		var list []string
		if err := json.Unmarshal([]byte(asString(v)), &list); err != nil {
			return nil, fmt.Errorf("%w: column %s: %v", apperr.ErrCorruptRecord, c.name, err)
		}
		return list, nil
	}
	return nil, fmt.Errorf("store: column %s: unknown column type", c.name)
}

// toStringList accepts []string directly or []any as produced by
// json.Unmarshal of a wire body.
func toStringList(v any) ([]string, error) {
	switch l := v.(type) {
	case []string:
		return l, nil
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}
