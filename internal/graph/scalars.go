package graph

import (
	"fmt"
	"math"
	"strconv"
)

var (
	StringScalar  = &Scalar{Name: "String", Serialize: serializeString}
	IntScalar     = &Scalar{Name: "Int", Serialize: serializeInt}
	FloatScalar   = &Scalar{Name: "Float", Serialize: serializeFloat}
	BooleanScalar = &Scalar{Name: "Boolean", Serialize: serializeBoolean}
	IDScalar      = &Scalar{Name: "ID", Serialize: serializeString}
)

var (
	String  = Ref(StringScalar)
	Int     = Ref(IntScalar)
	Float   = Ref(FloatScalar)
	Boolean = Ref(BooleanScalar)
	ID      = Ref(IDScalar)
)

var builtinScalars = []*Scalar{StringScalar, IntScalar, FloatScalar, BooleanScalar, IDScalar}

// serializeString also accepts numbers so that numeric identifiers read as
// their decimal form.
func serializeString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return nil, fmt.Errorf("String cannot represent %T", v)
}

func serializeInt(v any) (any, error) {
	var f float64
	switch x := v.(type) {
	case int:
		f = float64(x)
	case int32:
		return int(x), nil
	case int64:
		f = float64(x)
	case float32:
		f = float64(x)
	case float64:
		f = x
	case interface{ Int64() (int64, error) }:
		n, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent %v", v)
		}
		f = float64(n)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent %q", x)
		}
		f = float64(n)
	default:
		return nil, fmt.Errorf("Int cannot represent %T", v)
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent %v", v)
	}
	return int(f), nil
}

func serializeFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case interface{ Float64() (float64, error) }:
		return x.Float64()
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, fmt.Errorf("Float cannot represent %q", x)
		}
		return f, nil
	}
	return nil, fmt.Errorf("Float cannot represent %T", v)
}

func serializeBoolean(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent %T", v)
}

func serializeEnum(e *Enum, v any) (any, error) {
	var name string
	switch x := v.(type) {
	case string:
		name = x
	case fmt.Stringer:
		name = x.String()
	default:
		return nil, fmt.Errorf("%s cannot represent %T", e.Name, v)
	}
	for _, ev := range e.Values {
		if ev.Name == name {
			return name, nil
		}
	}
	return nil, fmt.Errorf("%s has no value %q", e.Name, name)
}
