package loader

import (
	"encoding/json"
	"errors"
	"fmt"

	"cell-editor/internal/entity"
	"cell-editor/internal/factory"
)

// ErrDefinition marks a load that failed before any instance was attempted:
// the document could not be fetched or parsed.
var ErrDefinition = errors.New("scene definition unavailable")

// Instance is a constructed scene object.
type Instance struct {
	ID         string
	Type       string
	Name       string
	Parameters json.RawMessage // as written in the document
	Entity     *entity.Entity
	Updater    factory.Updater // nil when nothing needs advancing per frame
}

// FailureKind classifies why an entry produced no instance.
type FailureKind int

const (
	FailureUnresolvedType FailureKind = iota + 1
	FailureInvalidParameters
	FailureConstruction
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnresolvedType:
		return "unresolved type"
	case FailureInvalidParameters:
		return "invalid parameters"
	case FailureConstruction:
		return "construction"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Failure records an entry that was skipped.
type Failure struct {
	ID   string
	Type string
	Kind FailureKind
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s (%s): %s: %v", f.ID, f.Type, f.Kind, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Result is the outcome of processing a definition. Instances are in document
// order and contain exactly the entries that resolved and constructed.
type Result struct {
	Instances []*Instance
	Default   *Instance // the instance named by settings.defaultSelectedId, if any
	Settings  *Settings
	Failures  []Failure
}

// Dispose stops every updater and disposes every entity in r.
func (r *Result) Dispose() {
	for _, inst := range r.Instances {
		if inst.Updater != nil {
			inst.Updater.Stop()
		}
		inst.Entity.Dispose()
	}
}
