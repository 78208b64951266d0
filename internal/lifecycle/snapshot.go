package lifecycle

import (
	"cell-editor/internal/entity"
	"cell-editor/internal/loader"
)

// Snapshot is one published state of the scene. Its instance list is never
// modified after publication.
type Snapshot struct {
	// Generation counts completed reloads. The snapshot published while a
	// reload is clearing keeps the previous number.
	Generation uint64
	Instances  []*loader.Instance
	Camera     Camera
	Failures   []loader.Failure
	Err        error // set when the scene definition itself failed
}

// Entities returns the root entity of every instance, in document order.
func (s *Snapshot) Entities() []*entity.Entity {
	out := make([]*entity.Entity, len(s.Instances))
	for i, inst := range s.Instances {
		out[i] = inst.Entity
	}
	return out
}

// Update advances every instance's per-frame updater. Render thread only.
func (s *Snapshot) Update(dt float32) {
	for _, inst := range s.Instances {
		if inst.Updater != nil {
			inst.Updater.Update(dt)
		}
	}
}

// Find returns the first instance with the given id.
func (s *Snapshot) Find(id string) *loader.Instance {
	for _, inst := range s.Instances {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

func (s *Snapshot) instanceOf(e *entity.Entity) *loader.Instance {
	for _, inst := range s.Instances {
		if inst.Entity == e {
			return inst
		}
	}
	return nil
}
