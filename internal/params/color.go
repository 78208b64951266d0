package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Color is an opaque albedo colour. Scene documents write it as "#RGB",
// "#RRGGBB" or a 0xRRGGBB integer.
type Color struct {
	rl.Color
}

// Hex returns the colour for a 0xRRGGBB value.
func Hex(v uint32) Color {
	return Color{rl.NewColor(uint8(v>>16), uint8(v>>8), uint8(v), 255)}
}

// UnmarshalJSON accepts a hex string or an integer.
func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: color: %v", ErrInvalid, err)
		}
		col, ok := ParseHexColor(s)
		if !ok {
			return fmt.Errorf("%w: color %q", ErrInvalid, s)
		}
		*c = Color{col}
		return nil
	}
	var n uint32
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: color: %v", ErrInvalid, err)
	}
	*c = Hex(n)
	return nil
}

// ParseHexColor parses #RGB or #RRGGBB into an opaque rl.Color.
func ParseHexColor(s string) (rl.Color, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 4 || s[0] != '#' {
		return rl.Black, false
	}
	hex := s[1:]
	var r, g, b uint8
	var ok bool
	switch len(hex) {
	case 3:
		var v [3]uint8
		for i := range v {
			if v[i], ok = hexNibble(hex[i]); !ok {
				return rl.Black, false
			}
		}
		r, g, b = v[0]*17, v[1]*17, v[2]*17
	case 6:
		var v [6]uint8
		for i := range v {
			if v[i], ok = hexNibble(hex[i]); !ok {
				return rl.Black, false
			}
		}
		r, g, b = v[0]<<4+v[1], v[2]<<4+v[3], v[4]<<4+v[5]
	default:
		return rl.Black, false
	}
	return rl.NewColor(r, g, b, 255), true
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
