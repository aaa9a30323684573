// Package numbering renders ordered list labels for the numbering styles
// supported by the block editor.
package numbering

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrOrdinalOutOfRange is returned when an ordinal cannot be expressed in
// the requested numbering style.
var ErrOrdinalOutOfRange = errors.New("ordinal out of range")

const (
	MinRoman = 1
	MaxRoman = 3999
)

type Style int

const (
	Decimal Style = iota
	UpperAlpha
	LowerAlpha
	UpperRoman
	LowerRoman
)

var styleNames = map[Style]string{
	Decimal:    "decimal",
	UpperAlpha: "upper-alpha",
	LowerAlpha: "lower-alpha",
	UpperRoman: "upper-roman",
	LowerRoman: "lower-roman",
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return styleNames[Decimal]
}

// ParseStyle maps a host style name to a Style. Unknown names fall back to
// Decimal.
func ParseStyle(name string) Style {
	name = strings.ToLower(strings.TrimSpace(name))
	for style, n := range styleNames {
		if n == name {
			return style
		}
	}
	return Decimal
}

// Label returns the bullet label for the ordinal-th item of a list
// numbered with style.
func Label(style Style, ordinal int) (string, error) {
	switch style {
	case UpperAlpha:
		s, err := alpha(ordinal, 'A')
		if err != nil {
			return "", err
		}
		return s + ".", nil
	case LowerAlpha:
		s, err := alpha(ordinal, 'a')
		if err != nil {
			return "", err
		}
		return s + ".", nil
	case UpperRoman:
		s, err := Roman(ordinal)
		if err != nil {
			return "", err
		}
		return s + ".", nil
	case LowerRoman:
		// Lower-case Roman labels carry no trailing dot.
		s, err := Roman(ordinal)
		if err != nil {
			return "", err
		}
		return strings.ToLower(s), nil
	default:
		return strconv.Itoa(ordinal) + ".", nil
	}
}

// alpha converts ordinal to a bijective base-26 numeral, so 26 is "Z" and
// 27 is "AA".
func alpha(ordinal int, first byte) (string, error) {
	if ordinal < 1 {
		return "", errors.Wrapf(ErrOrdinalOutOfRange, "alphabetic label for %d", ordinal)
	}

	var buf []byte
	for n := ordinal; n > 0; n = (n - 1) / 26 {
		buf = append(buf, first+byte((n-1)%26))
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf), nil
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"},
	{900, "CM"},
	{500, "D"},
	{400, "CD"},
	{100, "C"},
	{90, "XC"},
	{50, "L"},
	{40, "XL"},
	{10, "X"},
	{9, "IX"},
	{5, "V"},
	{4, "IV"},
	{1, "I"},
}

// Roman returns the upper-case subtractive Roman numeral for n.
func Roman(n int) (string, error) {
	if n < MinRoman || n > MaxRoman {
		return "", errors.Wrapf(ErrOrdinalOutOfRange, "roman numeral for %d (valid %d..%d)", n, MinRoman, MaxRoman)
	}

	var b strings.Builder
	for _, entry := range romanTable {
		for n >= entry.value {
			_, _ = b.WriteString(entry.symbol)
			n -= entry.value
		}
	}
	return b.String(), nil
}
