package lemmy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lemmylite/lemmy-lite/engine/domain"
)

// object is one upstream JSON object with lazily decoded members. Every
// accessor takes a fallback list of names so renamed fields across schema
// revisions resolve to the same value; the first present, non-null name wins.
type object struct {
	entity string
	fields map[string]json.RawMessage
}

var (
	errMissing    = errors.New("required field missing")
	errNotInteger = errors.New("not an integer")
)

func parseObject(entity string, raw []byte) (object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return object{}, domain.NewDecodeError(entity, "", err)
	}
	if fields == nil {
		return object{}, domain.NewDecodeError(entity, "", errors.New("expected object, got null"))
	}
	return object{entity: entity, fields: fields}, nil
}

func (o object) lookup(names []string) (json.RawMessage, string, bool) {
	for _, n := range names {
		raw, ok := o.fields[n]
		if ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return raw, n, true
		}
	}
	return nil, "", false
}

func (o object) fail(names []string, err error) error {
	field := ""
	if len(names) > 0 {
		field = names[0]
	}
	return domain.NewDecodeError(o.entity, field, err)
}

func (o object) optInt(names ...string) (*int64, error) {
	raw, name, ok := o.lookup(names)
	if !ok {
		return nil, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, domain.NewDecodeError(o.entity, name, err)
	}
	if v, err := n.Int64(); err == nil {
		return &v, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, domain.NewDecodeError(o.entity, name, err)
	}
	// 2^63 is exactly representable; anything at or above it overflows.
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, domain.NewDecodeError(o.entity, name, fmt.Errorf("%w: %s", errNotInteger, n))
	}
	v := int64(f)
	return &v, nil
}

func (o object) int(names ...string) (int64, error) {
	v, err := o.optInt(names...)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, o.fail(names, errMissing)
	}
	return *v, nil
}

// count is an optional counter that defaults to zero.
func (o object) count(names ...string) (int64, error) {
	v, err := o.optInt(names...)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

// rank is an optional score that some revisions send as a float. It is
// truncated towards zero; non-finite or out of range values are rejected.
func (o object) rank(names ...string) (int64, error) {
	raw, name, ok := o.lookup(names)
	if !ok {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, domain.NewDecodeError(o.entity, name, err)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, domain.NewDecodeError(o.entity, name, fmt.Errorf("%w: %g out of range", errNotInteger, f))
	}
	return int64(f), nil
}

func (o object) optString(names ...string) (*string, error) {
	raw, name, ok := o.lookup(names)
	if !ok {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, domain.NewDecodeError(o.entity, name, err)
	}
	return &s, nil
}

func (o object) string(names ...string) (string, error) {
	s, err := o.optString(names...)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", o.fail(names, errMissing)
	}
	return *s, nil
}

func (o object) bool(names ...string) (bool, error) {
	raw, name, ok := o.lookup(names)
	if !ok {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, domain.NewDecodeError(o.entity, name, err)
	}
	return b, nil
}

func (o object) time(names ...string) (time.Time, error) {
	s, err := o.string(names...)
	if err != nil {
		return time.Time{}, err
	}
	t, err := parseTimestamp(s)
	if err != nil {
		return time.Time{}, o.fail(names, err)
	}
	return t, nil
}

func (o object) object(entity string, names ...string) (object, error) {
	raw, _, ok := o.lookup(names)
	if !ok {
		return object{}, o.fail(names, errMissing)
	}
	return parseObject(entity, raw)
}

func (o object) optObject(entity string, names ...string) (*object, error) {
	raw, _, ok := o.lookup(names)
	if !ok {
		return nil, nil
	}
	obj, err := parseObject(entity, raw)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// list returns the raw elements of an array field; an absent field is an
// empty list.
func (o object) list(names ...string) ([]json.RawMessage, error) {
	raw, name, ok := o.lookup(names)
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, domain.NewDecodeError(o.entity, name, err)
	}
	return items, nil
}

// decodeList converts every element of an array field, failing on the first
// malformed element.
func decodeList[T any](o object, decode func([]byte) (T, error), names ...string) ([]T, error) {
	items, err := o.list(names...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i, raw := range items {
		v, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", names[0], i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts RFC 3339 and the naive timestamps older revisions
// emit. Naive values are UTC.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
