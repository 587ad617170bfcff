package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
)

// Converter maps an Item onto a domain object of the target.
type Converter interface {
	Convert(item Item, def TargetDefinition) (any, error)
}

// DecodeError reports a field value that could not be converted.
type DecodeError struct {
	Field  string
	Value  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %q for field %q: %s", e.Value, e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrDecode) match without marking each instance.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// FieldConverter converts fields by the kind declared in the target's FieldSpecs.
type FieldConverter struct {
	// Location is used for timestamps without a zone. Defaults to UTC.
	Location *time.Location
	// Now supplies the time for "yes" in discontinued fields. Defaults to time.Now.
	Now func() time.Time
}

// NewFieldConverter returns a converter reading timestamps in loc.
func NewFieldConverter(loc *time.Location) *FieldConverter {
	return &FieldConverter{Location: loc}
}

// Convert implements Converter. Named fields are matched by FieldSpec name;
// positional values follow the FieldSpec order.
func (c *FieldConverter) Convert(item Item, def TargetDefinition) (any, error) {
	fields := item.Fields
	if fields == nil {
		if len(item.Values) != len(def.FieldSpecs) {
			return nil, &DecodeError{
				Field:  "*",
				Value:  fmt.Sprint(item.Values),
				Reason: fmt.Sprintf("expected %d values, got %d", len(def.FieldSpecs), len(item.Values)),
			}
		}
		fields = make(map[string]string, len(item.Values))
		for i, spec := range def.FieldSpecs {
			fields[spec.Name] = item.Values[i]
		}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := def.Field(name); !ok {
			return nil, &DecodeError{Field: name, Value: fields[name], Reason: "unknown field"}
		}
	}

	values := make(map[string]any, len(fields))
	for _, spec := range def.FieldSpecs {
		raw, ok := fields[spec.Name]
		if !ok {
			continue
		}
		v, err := c.convertField(spec, raw)
		if err != nil {
			return nil, &DecodeError{Field: spec.Name, Value: raw, Reason: err.Error()}
		}
		values[spec.Name] = v
	}

	obj, err := def.New(values)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "build %s", def.Info.Key), ErrDecode)
	}
	return obj, nil
}

func (c *FieldConverter) convertField(spec FieldSpec, raw string) (any, error) {
	switch spec.Kind {
	case KindText:
		return ParseText(raw), nil
	case KindInteger:
		return ParseInteger(raw)
	case KindDecimal:
		return ParseDecimal(raw)
	case KindTimestamp:
		return ParseTimestamp(raw, c.Location)
	case KindDiscontinued:
		return ParseDiscontinued(raw, c.Location, c.now)
	default:
		return nil, errors.Newf("unsupported field kind %s", spec.Kind)
	}
}

func (c *FieldConverter) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
