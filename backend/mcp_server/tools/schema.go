package tools

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches parsed tags.
var validate = validator.New()

// ParamType is the type of a tool parameter.
type ParamType string

// Supported parameter types.
const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	// TypeEnum is a string restricted to Param.Enum.
	TypeEnum ParamType = "enum"
)

// Param describes one accepted argument. A parameter is either Required
// or optional; optional parameters without Default are simply absent when
// omitted.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any
	Min         *float64
	Max         *float64
	Enum        []string
}

// Bound is a helper for Param.Min and Param.Max.
func Bound(v float64) *float64 {
	return &v
}

// Schema is the ordered parameter list of a tool.
type Schema []Param

// Validate checks args against the schema and returns them with defaults
// applied. Unknown arguments are dropped.
func (s Schema) Validate(args map[string]any) (Args, error) {
	out := make(Args, len(s))
	for _, p := range s {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, invalid(p.Name, "is required")
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}
		cv, err := p.coerce(v)
		if err != nil {
			return nil, err
		}
		out[p.Name] = cv
	}
	return out, nil
}

// coerce converts v to the Go type of p and checks it against p's
// constraints.
func (p Param) coerce(v any) (any, error) {
	var (
		out   any
		check any
	)
	switch p.Type {
	case TypeString, TypeEnum:
		s, ok := v.(string)
		if !ok {
			return nil, invalid(p.Name, "must be a string")
		}
		out, check = s, s
		if p.Type == TypeString {
			check = strings.TrimSpace(s)
		}
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, invalid(p.Name, "must be a boolean")
		}
		out, check = b, b
	case TypeNumber:
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, invalid(p.Name, "must be a number")
		}
		out, check = f, f
	default:
		return nil, errors.AssertionFailedf("parameter %q has unknown type %q", p.Name, p.Type)
	}

	if tag := p.tag(); tag != "" {
		if err := validate.Var(check, tag); err != nil {
			return nil, p.validationError(err)
		}
	}
	return out, nil
}

// tag returns the validator tag enforcing p's constraints on a present value.
func (p Param) tag() string {
	var rules []string
	switch p.Type {
	case TypeString:
		if p.Required {
			rules = append(rules, "required")
		}
	case TypeEnum:
		rules = append(rules, "oneof="+strings.Join(p.Enum, " "))
	case TypeNumber:
		if p.Min != nil {
			rules = append(rules, "gte="+formatFloat(*p.Min))
		}
		if p.Max != nil {
			rules = append(rules, "lte="+formatFloat(*p.Max))
		}
	}
	return strings.Join(rules, ",")
}

func (p Param) validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrapf(err, "failed to validate parameter %q", p.Name)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return invalid(p.Name, "must not be empty")
	case "oneof":
		return invalid(p.Name, "must be one of %s", strings.Join(p.Enum, ", "))
	case "gte":
		return invalid(p.Name, "must be >= %s", fe.Param())
	case "lte":
		return invalid(p.Name, "must be <= %s", fe.Param())
	}
	return invalid(p.Name, "failed %q validation", fe.Tag())
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Args are validated arguments, keyed by parameter name.
type Args map[string]any

// String returns the string argument name, or "" when absent.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Float returns the numeric argument name, or 0 when absent.
func (a Args) Float(name string) float64 {
	f, _ := toFloat(a[name])
	return f
}

// Has reports whether name is present after defaults were applied.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// FormatNumber renders a numeric argument for a query string, without
// exponent and without trailing zeros.
func (a Args) FormatNumber(name string) string {
	if !a.Has(name) {
		return ""
	}
	return formatFloat(a.Float(name))
}
