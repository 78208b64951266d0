// Package objects holds the factories for the work-cell object types.
package objects

import (
	"context"
	"fmt"

	"cell-editor/internal/entity"
	"cell-editor/internal/factory"
	"cell-editor/internal/params"
	"cell-editor/internal/primitives"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// PalletName is used when neither the document nor the parameters name a pallet.
const PalletName = "Pallet"

var palletPosition = rl.NewVector3(-0.8, 0.05, 0)

// PalletConfig is the pallet's type-specific parameters.
type PalletConfig struct {
	Width  float32      `json:"width"`
	Height float32      `json:"height"`
	Depth  float32      `json:"depth"`
	Color  params.Color `json:"color"`
}

// DefaultPallet returns the pallet used when parameters are absent.
func DefaultPallet() PalletConfig {
	return PalletConfig{Width: 0.4, Height: 0.1, Depth: 0.4, Color: params.Hex(0x996633)}
}

// Validate rejects sizes a box cannot have.
func (c PalletConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 || c.Depth <= 0 {
		return fmt.Errorf("%w: pallet size %gx%gx%g", params.ErrInvalid, c.Width, c.Height, c.Depth)
	}
	return nil
}

// Pallet builds a single box.
type Pallet struct {
	Alloc primitives.Allocator
}

// Create implements factory.Factory.
func (f Pallet) Create(ctx context.Context, p params.Parameters) (factory.Result, error) {
	cfg := DefaultPallet()
	if err := p.Into(&cfg); err != nil {
		return factory.Result{}, err
	}
	if err := cfg.Validate(); err != nil {
		return factory.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return factory.Result{}, err
	}
	mesh, err := f.Alloc.Box(rl.NewVector3(cfg.Width, cfg.Height, cfg.Depth), cfg.Color.Color)
	if err != nil {
		return factory.Result{}, fmt.Errorf("pallet: %w", err)
	}
	e := entity.New("")
	e.Mesh = mesh
	e.Position = palletPosition
	params.Apply(e, &p.Transform)
	if e.Name == "" {
		e.Name = PalletName
	}
	return factory.Result{Entity: e}, nil
}
