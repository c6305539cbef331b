package preset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FilterKind names one base-filter operation.
type FilterKind string

// Supported recipe operations, written as in a CSS filter list.
const (
	Brightness FilterKind = "brightness"
	Contrast   FilterKind = "contrast"
	Saturate   FilterKind = "saturate"
	Sepia      FilterKind = "sepia"
	HueRotate  FilterKind = "hue-rotate"
	Grayscale  FilterKind = "grayscale"
	Blur       FilterKind = "blur"
)

// FilterOp is one recipe step. Amount is a factor for brightness, contrast and
// saturate, a 0-1 strength for sepia and grayscale, degrees for hue-rotate and
// pixels for blur.
type FilterOp struct {
	Kind   FilterKind `json:"kind" yaml:"kind"`
	Amount float64    `json:"amount" yaml:"amount"`
}

// IsIdentity reports whether the op leaves every pixel unchanged.
func (op FilterOp) IsIdentity() bool {
	switch op.Kind {
	case Brightness, Contrast, Saturate:
		return op.Amount == 1
	case HueRotate:
		return math.Mod(op.Amount, 360) == 0
	default:
		return op.Amount == 0
	}
}

// String renders the op in CSS filter syntax.
func (op FilterOp) String() string {
	amount := strconv.FormatFloat(op.Amount, 'f', -1, 64)
	switch op.Kind {
	case HueRotate:
		return fmt.Sprintf("%s(%sdeg)", op.Kind, amount)
	case Blur:
		return fmt.Sprintf("%s(%spx)", op.Kind, amount)
	default:
		return fmt.Sprintf("%s(%s)", op.Kind, amount)
	}
}

// Recipe is an ordered list of base-filter operations.
type Recipe []FilterOp

// String renders the recipe as a space separated CSS filter list.
func (r Recipe) String() string {
	parts := make([]string, len(r))
	for i, op := range r {
		parts[i] = op.String()
	}
	return strings.Join(parts, " ")
}

// ParseRecipe parses a CSS-style filter list such as
// "brightness(1.1) contrast(120%) hue-rotate(-10deg) blur(2px)".
//
// An empty string or "none" yields an empty recipe. Percentages are divided by
// 100 for every kind except hue-rotate, which accepts deg, rad, grad and turn.
// Unknown operations and malformed arguments are errors.
func ParseRecipe(s string) (Recipe, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return Recipe{}, nil
	}

	var recipe Recipe
	rest := s
	for {
		rest = strings.TrimLeft(rest, " \t\n,")
		if rest == "" {
			break
		}
		open := strings.IndexByte(rest, '(')
		if open <= 0 {
			return nil, fmt.Errorf("malformed filter near %q", rest)
		}
		closing := strings.IndexByte(rest[open:], ')')
		if closing < 0 {
			return nil, fmt.Errorf("unterminated filter %q", rest)
		}
		name := strings.ToLower(strings.TrimSpace(rest[:open]))
		arg := strings.TrimSpace(rest[open+1 : open+closing])
		rest = rest[open+closing+1:]

		op, err := parseOp(FilterKind(name), arg)
		if err != nil {
			return nil, err
		}
		recipe = append(recipe, op)
	}
	return recipe, nil
}

func parseOp(kind FilterKind, arg string) (FilterOp, error) {
	switch kind {
	case Brightness, Contrast, Saturate, Sepia, Grayscale:
		v, err := parseAmount(arg)
		if err != nil {
			return FilterOp{}, fmt.Errorf("%s: %w", kind, err)
		}
		if v < 0 {
			v = 0
		}
		if (kind == Sepia || kind == Grayscale) && v > 1 {
			v = 1
		}
		return FilterOp{Kind: kind, Amount: v}, nil
	case HueRotate:
		v, err := parseAngle(arg)
		if err != nil {
			return FilterOp{}, fmt.Errorf("%s: %w", kind, err)
		}
		return FilterOp{Kind: kind, Amount: v}, nil
	case Blur:
		v, err := parseLength(arg)
		if err != nil {
			return FilterOp{}, fmt.Errorf("%s: %w", kind, err)
		}
		if v < 0 {
			v = 0
		}
		return FilterOp{Kind: kind, Amount: v}, nil
	default:
		return FilterOp{}, fmt.Errorf("unknown filter %q", kind)
	}
}

// parseAmount reads a factor or percentage. An empty argument means 1, as in CSS.
func parseAmount(arg string) (float64, error) {
	if arg == "" {
		return 1, nil
	}
	if strings.HasSuffix(arg, "%") {
		v, err := parseFloat(strings.TrimSuffix(arg, "%"))
		if err != nil {
			return 0, err
		}
		return v / 100, nil
	}
	return parseFloat(arg)
}

func parseAngle(arg string) (float64, error) {
	if arg == "" {
		return 0, nil
	}
	units := []struct {
		suffix string
		scale  float64
	}{
		{"grad", 0.9},
		{"turn", 360},
		{"deg", 1},
		{"rad", 180 / math.Pi},
	}
	for _, u := range units {
		if strings.HasSuffix(arg, u.suffix) {
			v, err := parseFloat(strings.TrimSuffix(arg, u.suffix))
			if err != nil {
				return 0, err
			}
			return v * u.scale, nil
		}
	}
	return parseFloat(arg)
}

func parseLength(arg string) (float64, error) {
	if arg == "" {
		return 0, nil
	}
	return parseFloat(strings.TrimSuffix(arg, "px"))
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
