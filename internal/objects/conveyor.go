package objects

import (
	"context"
	"fmt"

	"cell-editor/internal/entity"
	"cell-editor/internal/factory"
	"cell-editor/internal/params"
	"cell-editor/internal/primitives"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ConveyorName is used when neither the document nor the parameters name a conveyor.
const ConveyorName = "Conveyor Belt"

var conveyorPosition = rl.NewVector3(1.1, 0.075, 0)

// ConveyorConfig is the conveyor's type-specific parameters. Lengths are in
// metres along the conveyor's local X (length) and Z (width) axes.
type ConveyorConfig struct {
	Length           float32      `json:"length"`
	Width            float32      `json:"width"`
	RollerRadius     float32      `json:"rollerRadius"`
	RollerSideMargin float32      `json:"rollerSideMargin"`
	RollerSpacing    float32      `json:"rollerSpacing"`
	RollerColor      params.Color `json:"rollerColor"`
	RollerPositionY  float32      `json:"rollerPositionY"`

	ShowGuardRails bool         `json:"showGuardRails"`
	RailHeight     float32      `json:"railHeight"`
	RailThickness  float32      `json:"railThickness"`
	RailColor      params.Color `json:"railColor"`
	RailPositionY  float32      `json:"railPositionY"`

	ShowBase      bool         `json:"showBase"`
	BaseHeight    float32      `json:"baseHeight"`
	BaseColor     params.Color `json:"baseColor"`
	BasePositionY float32      `json:"basePositionY"`
}

// DefaultConveyor returns the conveyor used when parameters are absent.
func DefaultConveyor() ConveyorConfig {
	return ConveyorConfig{
		Length:           1.2,
		Width:            0.4,
		RollerRadius:     0.02,
		RollerSideMargin: 0.04,
		RollerSpacing:    0.06,
		RollerColor:      params.Hex(0xcccccc),
		RollerPositionY:  0.04,

		ShowGuardRails: true,
		RailHeight:     0.04,
		RailThickness:  0.03,
		RailColor:      params.Hex(0x888888),
		RailPositionY:  0.09,

		ShowBase:      true,
		BaseHeight:    0.04,
		BaseColor:     params.Hex(0x555555),
		BasePositionY: 0,
	}
}

// RollerLength is the length of each roller across the conveyor.
func (c ConveyorConfig) RollerLength() float32 {
	return c.Width - c.RollerSideMargin
}

// Validate rejects dimensions that cannot produce geometry.
func (c ConveyorConfig) Validate() error {
	switch {
	case c.Length <= 0, c.Width <= 0:
		return fmt.Errorf("%w: conveyor size %gx%g", params.ErrInvalid, c.Length, c.Width)
	case c.RollerRadius <= 0, c.RollerSpacing <= 0:
		return fmt.Errorf("%w: roller radius %g, spacing %g", params.ErrInvalid, c.RollerRadius, c.RollerSpacing)
	case c.RollerLength() <= 0:
		return fmt.Errorf("%w: side margin %g leaves no roller", params.ErrInvalid, c.RollerSideMargin)
	case c.ShowGuardRails && (c.RailHeight <= 0 || c.RailThickness <= 0):
		return fmt.Errorf("%w: rail %gx%g", params.ErrInvalid, c.RailHeight, c.RailThickness)
	case c.ShowBase && c.BaseHeight <= 0:
		return fmt.Errorf("%w: base height %g", params.ErrInvalid, c.BaseHeight)
	}
	return nil
}

// RollerLayout returns the local X of each roller. A conveyor too short for
// two rollers gets one at the centre; otherwise floor(length/spacing)+1
// rollers are spread evenly so the outer ones touch the ends.
func RollerLayout(length, radius, spacing float32) []float32 {
	if length <= 2*radius || length <= spacing {
		return []float32{0}
	}
	n := int(math32.Floor(length/spacing)) + 1
	step := (length - 2*radius) / float32(n-1)
	xs := make([]float32, n)
	for i := range xs {
		xs[i] = -length/2 + radius + float32(i)*step
	}
	return xs
}

// Conveyor builds a roller conveyor as a group of rollers, guard rails and a
// base plate.
type Conveyor struct {
	Alloc primitives.Allocator
}

// Create implements factory.Factory. Parts allocated before a failure are
// released before the error is returned.
func (f Conveyor) Create(ctx context.Context, p params.Parameters) (factory.Result, error) {
	cfg := DefaultConveyor()
	if err := p.Into(&cfg); err != nil {
		return factory.Result{}, err
	}
	if err := cfg.Validate(); err != nil {
		return factory.Result{}, err
	}

	group := entity.New("")
	if err := f.build(ctx, group, cfg); err != nil {
		group.Dispose()
		return factory.Result{}, fmt.Errorf("conveyor: %w", err)
	}
	group.Position = conveyorPosition
	params.Apply(group, &p.Transform)
	if group.Name == "" {
		group.Name = ConveyorName
	}
	return factory.Result{Entity: group}, nil
}

func (f Conveyor) build(ctx context.Context, group *entity.Entity, cfg ConveyorConfig) error {
	for i, x := range RollerLayout(cfg.Length, cfg.RollerRadius, cfg.RollerSpacing) {
		if err := ctx.Err(); err != nil {
			return err
		}
		mesh, err := f.Alloc.Cylinder(cfg.RollerRadius, cfg.RollerLength(), cfg.RollerColor.Color)
		if err != nil {
			return err
		}
		roller := entity.New(fmt.Sprintf("roller %d", i))
		roller.Mesh = mesh
		roller.Position = rl.NewVector3(x, cfg.RollerPositionY, 0)
		roller.Rotation.X = math32.Pi / 2
		group.Add(roller)
	}

	if cfg.ShowGuardRails {
		z := cfg.Width/2 - cfg.RailThickness/2
		for _, side := range []struct {
			name string
			z    float32
		}{{"left rail", z}, {"right rail", -z}} {
			mesh, err := f.Alloc.Box(rl.NewVector3(cfg.Length, cfg.RailHeight, cfg.RailThickness), cfg.RailColor.Color)
			if err != nil {
				return err
			}
			rail := entity.New(side.name)
			rail.Mesh = mesh
			rail.Position = rl.NewVector3(0, cfg.RailPositionY, side.z)
			group.Add(rail)
		}
	}

	if cfg.ShowBase {
		mesh, err := f.Alloc.Box(rl.NewVector3(cfg.Length, cfg.BaseHeight, cfg.Width), cfg.BaseColor.Color)
		if err != nil {
			return err
		}
		base := entity.New("base")
		base.Mesh = mesh
		base.Position = rl.NewVector3(0, cfg.BasePositionY, 0)
		group.Add(base)
	}
	return nil
}
