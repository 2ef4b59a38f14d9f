// Package scalar implements the text codecs of primitive values.
package scalar

import (
	"encoding"
	"encoding/base64"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	xmltime "github.com/configstore/xmlb/time"
)

// Codec converts between a scalar value and its text form.
type Codec struct {
	Format func(v reflect.Value) (string, error)
	Parse  func(s string) (reflect.Value, error)
}

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	bigIntType          = reflect.TypeOf(big.Int{})
	bigFloatType        = reflect.TypeOf(big.Float{})
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Lookup returns the codec for t, or false if t is not a scalar.
func Lookup(t reflect.Type) (Codec, bool) {
	switch t {
	case timeType:
		return timeCodec, true
	case durationType:
		return durationCodec, true
	case bigIntType:
		return bigIntCodec, true
	case bigFloatType:
		return bigFloatCodec, true
	}

	if isTextual(t) {
		return textCodec(t), true
	}

	switch t.Kind() {
	case reflect.Bool:
		return boolCodec(t), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intCodec(t), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintCodec(t), true
	case reflect.Float32, reflect.Float64:
		return floatCodec(t), true
	case reflect.String:
		return stringCodec(t), true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return bytesCodec(t), true
		}
	}
	return Codec{}, false
}

// Format writes v using the codec for its dynamic type.
func Format(v any) (string, error) {
	rv := reflect.ValueOf(v)
	c, ok := Lookup(rv.Type())
	if !ok {
		return "", errors.Newf("%s is not a scalar type", rv.Type())
	}
	return c.Format(rv)
}

// Parse reads s as a value of type t.
func Parse(t reflect.Type, s string) (any, error) {
	c, ok := Lookup(t)
	if !ok {
		return nil, errors.Newf("%s is not a scalar type", t)
	}
	v, err := c.Parse(s)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func isTextual(t reflect.Type) bool {
	if !reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return false
	}
	return t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType)
}

func textCodec(t reflect.Type) Codec {
	return Codec{
		Format: func(v reflect.Value) (string, error) {
			m, ok := v.Interface().(encoding.TextMarshaler)
			if !ok {
				p := reflect.New(t)
				p.Elem().Set(v)
				m = p.Interface().(encoding.TextMarshaler)
			}
			b, err := m.MarshalText()
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
		Parse: func(s string) (reflect.Value, error) {
			p := reflect.New(t)
			if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return reflect.Value{}, err
			}
			return p.Elem(), nil
		},
	}
}

var timeCodec = Codec{
	Format: func(v reflect.Value) (string, error) {
		return xmltime.FormatDateTime(v.Interface().(time.Time)), nil
	},
	Parse: func(s string) (reflect.Value, error) {
		t, err := xmltime.ParseDateTime(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(t), nil
	},
}

var durationCodec = Codec{
	Format: func(v reflect.Value) (string, error) {
		return xmltime.FormatDuration(time.Duration(v.Int())), nil
	},
	Parse: func(s string) (reflect.Value, error) {
		d, err := xmltime.ParseDuration(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	},
}

var bigIntCodec = Codec{
	Format: func(v reflect.Value) (string, error) {
		n := v.Interface().(big.Int)
		return n.Text(10), nil
	},
	Parse: func(s string) (reflect.Value, error) {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return reflect.Value{}, errors.Newf("invalid integer %q", s)
		}
		return reflect.ValueOf(*n), nil
	},
}

var bigFloatCodec = Codec{
	Format: func(v reflect.Value) (string, error) {
		f := v.Interface().(big.Float)
		if i, accuracy := f.Int64(); accuracy == big.Exact {
			return strconv.FormatInt(i, 10), nil
		}
		return f.Text('e', -1), nil
	},
	Parse: func(s string) (reflect.Value, error) {
		f, _, err := big.ParseFloat(s, 10, 0, big.ToNearestEven)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(*f), nil
	},
}

func boolCodec(t reflect.Type) Codec {
	return Codec{
		Format: func(v reflect.Value) (string, error) {
			return strconv.FormatBool(v.Bool()), nil
		},
		Parse: func(s string) (reflect.Value, error) {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return reflect.Value{}, err
			}
			out := reflect.New(t).Elem()
			out.SetBool(b)
			return out, nil
		},
	}
}

func intCodec(t reflect.Type) Codec {
	return Codec{
		Format: func(v reflect.Value) (string, error) {
			return strconv.FormatInt(v.Int(), 10), nil
		},
		Parse: func(s string) (reflect.Value, error) {
			n, err := strconv.ParseInt(s, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			out := reflect.New(t).Elem()
			out.SetInt(n)
			return out, nil
		},
	}
}

func uintCodec(t reflect.Type) Codec {
	return Codec{
		Format: func(v reflect.Value) (string, error) {
			return strconv.FormatUint(v.Uint(), 10), nil
		},
		Parse: func(s string) (reflect.Value, error) {
			n, err := strconv.ParseUint(s, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			out := reflect.New(t).Elem()
			out.SetUint(n)
			return out, nil
		},
	}
}

func floatCodec(t reflect.Type) Codec {
	return Codec{
		Format: func(v reflect.Value) (string, error) {
			return string(encodeFloat(nil, v.Float(), t.Bits())), nil
		},
		Parse: func(s string) (reflect.Value, error) {
			f, err := strconv.ParseFloat(s, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			out := reflect.New(t).Elem()
			out.SetFloat(f)
			return out, nil
		},
	}
}

func stringCodec(t reflect.Type) Codec {
	return Codec{
		Format: func(v reflect.Value) (string, error) {
			return v.String(), nil
		},
		Parse: func(s string) (reflect.Value, error) {
			out := reflect.New(t).Elem()
			out.SetString(s)
			return out, nil
		},
	}
}

func bytesCodec(t reflect.Type) Codec {
	return Codec{
		Format: func(v reflect.Value) (string, error) {
			return base64.StdEncoding.EncodeToString(v.Bytes()), nil
		},
		Parse: func(s string) (reflect.Value, error) {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(b).Convert(t), nil
		},
	}
}

// encodeFloat formats v the way encoding/xml does: plain notation for
// ordinary magnitudes, exponent notation with a trimmed exponent otherwise.
func encodeFloat(dst []byte, v float64, bits int) []byte {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.AppendFloat(dst, v, 'g', -1, bits)
	}

	abs := math.Abs(v)
	fmt := byte('f')

	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			fmt = 'e'
		}
	}

	dst = strconv.AppendFloat(dst, v, fmt, -1, bits)

	if fmt == 'e' {
		// clean up e-09 to e-9
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}

	return dst
}
