package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DateTimeLayout is the column layout of DateTime fields.
const DateTimeLayout = "2006-01-02 15:04:05"

// Codec converts between column values and Go values for one field type.
type Codec interface {
	Name() string
	Decode(raw any) (any, error)
	Encode(value any) (any, error)
}

var (
	String   Codec = stringCodec{}
	Int      Codec = intCodec{}
	Float    Codec = floatCodec{}
	Bool     Codec = boolCodec{}
	DateTime Codec = dateTimeCodec{}
	// List stores a string-keyed map as a JSON object.
	List Codec = listCodec{}
)

func invalid(codec Codec, v any) error {
	return fmt.Errorf("%w: %s cannot hold %T", ErrInvalidValue, codec.Name(), v)
}

type stringCodec struct{}

func (stringCodec) Name() string { return "string" }

func (c stringCodec) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (c stringCodec) Encode(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return nil, invalid(c, value)
	}
}

type intCodec struct{}

func (intCodec) Name() string { return "int" }

func (c intCodec) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return int64(0), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, invalid(c, raw)
		}
		return n, nil
	case []byte:
		return c.Decode(string(v))
	default:
		return nil, invalid(c, raw)
	}
}

func (c intCodec) Encode(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint32:
		return int64(v), nil
	default:
		return nil, invalid(c, value)
	}
}

type floatCodec struct{}

func (floatCodec) Name() string { return "float" }

func (c floatCodec) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return 0.0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, invalid(c, raw)
		}
		return f, nil
	case []byte:
		return c.Decode(string(v))
	default:
		return nil, invalid(c, raw)
	}
}

func (c floatCodec) Encode(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return nil, invalid(c, value)
	}
}

type boolCodec struct{}

func (boolCodec) Name() string { return "bool" }

func (c boolCodec) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, invalid(c, raw)
		}
		return b, nil
	case []byte:
		return c.Decode(string(v))
	default:
		return nil, invalid(c, raw)
	}
}

func (c boolCodec) Encode(value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, invalid(c, value)
	}
	return b, nil
}

type dateTimeCodec struct{}

func (dateTimeCodec) Name() string { return "datetime" }

func (c dateTimeCodec) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v.UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		if t, err := time.Parse(DateTimeLayout, s); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC(), nil
		}
		return nil, invalid(c, raw)
	case []byte:
		return c.Decode(string(v))
	default:
		return nil, invalid(c, raw)
	}
}

func (c dateTimeCodec) Encode(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(DateTimeLayout), nil
	case *time.Time:
		if v != nil {
			return v.UTC().Format(DateTimeLayout), nil
		}
	}
	return nil, invalid(c, value)
}

type listCodec struct{}

func (listCodec) Name() string { return "list" }

func (c listCodec) Decode(raw any) (any, error) {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return nil, invalid(c, raw)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrInvalidValue, err)
	}
	return out, nil
}

func (c listCodec) Encode(value any) (any, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, invalid(c, value)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrInvalidValue, err)
	}
	return string(data), nil
}
