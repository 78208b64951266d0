// Package params decodes object parameters from scene documents and applies the
// common transform (position, rotation, scale, name) to constructed entities.
package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"cell-editor/internal/entity"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ErrInvalid is wrapped by every boundary validation failure.
var ErrInvalid = errors.New("invalid parameters")

// Vec3 is a position, rotation or scale override. A sequence form carries
// per-axis values where nil means "leave this axis alone"; the vector form
// replaces the whole value.
type Vec3 struct {
	Axes  [3]*float32
	Whole *rl.Vector3
}

// Axes builds a sequence override. Pass nil for unspecified axes.
func Axes(x, y, z *float32) *Vec3 {
	return &Vec3{Axes: [3]*float32{x, y, z}}
}

// Whole builds an override that replaces the entire vector.
func Whole(v rl.Vector3) *Vec3 {
	return &Vec3{Whole: &v}
}

// F returns a pointer to v, for building sequence overrides.
func F(v float32) *float32 { return &v }

// UnmarshalJSON accepts [x, y, z] (elements may be null or missing) or {"x":..,"y":..,"z":..}.
func (v *Vec3) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '[':
		var seq []*float32
		if err := json.Unmarshal(data, &seq); err != nil {
			return fmt.Errorf("%w: vector sequence: %v", ErrInvalid, err)
		}
		if len(seq) > 3 {
			return fmt.Errorf("%w: vector sequence has %d elements", ErrInvalid, len(seq))
		}
		*v = Vec3{}
		copy(v.Axes[:], seq)
		return nil
	case '{':
		var obj struct {
			X float32 `json:"x"`
			Y float32 `json:"y"`
			Z float32 `json:"z"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("%w: vector object: %v", ErrInvalid, err)
		}
		*v = Vec3{Whole: &rl.Vector3{X: obj.X, Y: obj.Y, Z: obj.Z}}
		return nil
	}
	return fmt.Errorf("%w: vector must be a sequence or an object", ErrInvalid)
}

// applyTo coalesces v onto dst.
func (v *Vec3) applyTo(dst *rl.Vector3) {
	if v == nil {
		return
	}
	if v.Whole != nil {
		*dst = *v.Whole
		return
	}
	if a := v.Axes[0]; a != nil {
		dst.X = *a
	}
	if a := v.Axes[1]; a != nil {
		dst.Y = *a
	}
	if a := v.Axes[2]; a != nil {
		dst.Z = *a
	}
}

// Transform is the closed set of parameters every factory honours.
type Transform struct {
	Position *Vec3
	Rotation *Vec3
	Scale    *Vec3
	Name     *string
}

// Parameters is what a factory receives: the common transform plus the raw
// parameter object for decoding type-specific fields.
type Parameters struct {
	Transform
	Raw json.RawMessage
}

// Decode validates the common transform in raw. A non-string name is ignored
// rather than rejected. Empty input yields empty parameters.
func Decode(raw json.RawMessage) (Parameters, error) {
	p := Parameters{Raw: raw}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		p.Raw = nil
		return p, nil
	}
	var common struct {
		Position *Vec3          `json:"position"`
		Rotation *Vec3          `json:"rotation"`
		Scale    *Vec3          `json:"scale"`
		Name     json.RawMessage `json:"name"`
	}
	if err := json.Unmarshal(raw, &common); err != nil {
		if errors.Is(err, ErrInvalid) {
			return Parameters{}, err
		}
		return Parameters{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	p.Position, p.Rotation, p.Scale = common.Position, common.Rotation, common.Scale
	var name string
	if len(common.Name) > 0 && json.Unmarshal(common.Name, &name) == nil {
		p.Name = &name
	}
	return p, nil
}

// Into decodes the type-specific fields of p into dst. Fields absent from the
// document keep whatever dst already holds, so callers pre-fill defaults.
func (p Parameters) Into(dst any) error {
	if len(p.Raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(p.Raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// WithName returns a copy of p whose name is name.
func (p Parameters) WithName(name string) Parameters {
	p.Name = &name
	return p
}

// Apply writes t onto e. Position, rotation and scale are coalesced per axis;
// the name replaces e.Name when set.
func Apply(e *entity.Entity, t *Transform) {
	if e == nil || t == nil {
		return
	}
	if t.Name != nil {
		e.Name = *t.Name
	}
	t.Position.applyTo(&e.Position)
	t.Rotation.applyTo(&e.Rotation)
	t.Scale.applyTo(&e.Scale)
}
