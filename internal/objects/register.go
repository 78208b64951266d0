package objects

import (
	"cell-editor/internal/factory"
	"cell-editor/internal/fetch"
	"cell-editor/internal/primitives"

	"go.uber.org/zap"
)

// Type names as written in scene documents.
const (
	TypePallet   = "Pallet"
	TypeConveyor = "Conveyor"
	TypeRobot    = "UR5eRobot"
)

// Register binds every known object type in reg.
func Register(reg *factory.Registry, alloc primitives.Allocator, assets fetch.Source, log *zap.Logger) {
	for typ, f := range map[string]factory.Factory{
		TypePallet:   Pallet{Alloc: alloc},
		TypeConveyor: Conveyor{Alloc: alloc},
		TypeRobot:    Robot{Alloc: alloc, Assets: assets},
	} {
		if reg.Register(typ, f) {
			log.Warn("factory replaced", zap.String("type", typ))
		}
	}
}
