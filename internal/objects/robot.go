package objects

import (
	"context"
	"fmt"

	"cell-editor/internal/entity"
	"cell-editor/internal/factory"
	"cell-editor/internal/fetch"
	"cell-editor/internal/params"
	"cell-editor/internal/primitives"
)

const (
	// RobotName is used when neither the document nor the parameters name a robot.
	RobotName = "UR5e Robot"
	// RobotModelPath is the model loaded when modelPath is absent or empty.
	RobotModelPath = "/UR5e.gltf"
)

// RobotConfig is the robot's type-specific parameters.
type RobotConfig struct {
	ModelPath string `json:"modelPath"`
}

// Robot loads a UR5e arm from a model file. Construction blocks on fetching
// the model and on the GPU upload.
type Robot struct {
	Alloc  primitives.Allocator
	Assets fetch.Source
}

// Create implements factory.Factory. When the model has animation clips the
// result carries an updater playing all of them.
func (f Robot) Create(ctx context.Context, p params.Parameters) (factory.Result, error) {
	var cfg RobotConfig
	if err := p.Into(&cfg); err != nil {
		return factory.Result{}, err
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = RobotModelPath
	}

	path, err := f.Assets.Resolve(ctx, cfg.ModelPath)
	if err != nil {
		return factory.Result{}, fmt.Errorf("robot model %s: %w", cfg.ModelPath, err)
	}
	if err := ctx.Err(); err != nil {
		return factory.Result{}, err
	}
	model, anim, err := f.Alloc.LoadModel(path)
	if err != nil {
		return factory.Result{}, fmt.Errorf("robot model %s: %w", cfg.ModelPath, err)
	}
	if err := ctx.Err(); err != nil {
		if anim != nil {
			anim.Stop()
		}
		model.Release()
		return factory.Result{}, err
	}

	e := entity.New("")
	e.Mesh = model
	params.Apply(e, &p.Transform)
	if e.Name == "" {
		e.Name = RobotName
	}
	return factory.Result{Entity: e, Updater: anim}, nil
}
