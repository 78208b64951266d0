// Package loader turns scene documents into constructed instances. A bad
// entry is recorded and skipped; it never stops the rest of the scene.
package loader

import (
	"context"
	"errors"
	"fmt"

	"cell-editor/internal/factory"
	"cell-editor/internal/fetch"
	"cell-editor/internal/params"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "cell-editor/loader"

// Loader fetches scene documents from a source and builds them with the
// factories in a registry.
type Loader struct {
	reg    *factory.Registry
	src    fetch.Source
	log    *zap.Logger
	tracer trace.Tracer
}

// Option configures a Loader.
type Option func(*Loader)

// WithTracerProvider makes the loader trace through tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Loader) { l.tracer = tp.Tracer(tracerName) }
}

// New returns a loader.
func New(reg *factory.Registry, src fetch.Source, log *zap.Logger, opts ...Option) *Loader {
	l := &Loader{reg: reg, src: src, log: log, tracer: otel.Tracer(tracerName)}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load fetches and processes the document called name. When the document
// cannot be fetched or parsed the result is empty and the error wraps
// ErrDefinition. When ctx ends mid-way the result holds what was built so far,
// which the caller owns and must dispose, and the error is ctx's.
func (l *Loader) Load(ctx context.Context, name string) (*Result, error) {
	ctx, span := l.tracer.Start(ctx, "loader.Load", trace.WithAttributes(attribute.String("scene", name)))
	defer span.End()

	data, err := l.src.Fetch(ctx, name)
	if err == nil {
		var def *Definition
		if def, err = ParseDefinition(name, data); err == nil {
			res, err := l.Process(ctx, def)
			span.SetAttributes(
				attribute.Int("instances", len(res.Instances)),
				attribute.Int("failures", len(res.Failures)),
			)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
			}
			return res, err
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		span.SetStatus(codes.Error, ctxErr.Error())
		return &Result{}, ctxErr
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	l.log.Error("scene definition failed", zap.String("scene", name), zap.Error(err))
	return &Result{}, fmt.Errorf("%w: %w", ErrDefinition, err)
}

// Process builds every entry of def in order. The only error is ctx's, in
// which case the returned result holds the instances built before it ended.
// The result shares no memory with def.
func (l *Loader) Process(ctx context.Context, def *Definition) (*Result, error) {
	res := &Result{Settings: l.snapshotSettings(def.Settings)}
	var wantDefault string
	if res.Settings != nil {
		wantDefault = res.Settings.DefaultSelectedID
	}
	seen := make(map[string]bool, len(def.Objects))

	for _, cfg := range def.Objects {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if seen[cfg.ID] {
			l.log.Warn("duplicate instance id", zap.String("id", cfg.ID), zap.String("type", cfg.Type))
		}
		seen[cfg.ID] = true

		inst, fail := l.build(ctx, cfg)
		if fail != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(fail.Err, ctxErr) {
				return res, ctxErr
			}
			res.Failures = append(res.Failures, *fail)
			continue
		}
		res.Instances = append(res.Instances, inst)
		if res.Default == nil && wantDefault != "" && inst.ID == wantDefault {
			res.Default = inst
		}
	}
	if wantDefault != "" && res.Default == nil {
		l.log.Info("default selection not found", zap.String("id", wantDefault))
	}
	return res, nil
}

// snapshotSettings deep-copies s so camera hints published with a result
// cannot change under it.
func (l *Loader) snapshotSettings(s *Settings) *Settings {
	if s == nil {
		return nil
	}
	out := &Settings{}
	if err := copier.CopyWithOption(out, s, copier.Option{DeepCopy: true}); err != nil {
		l.log.Warn("settings ignored", zap.Error(err))
		return nil
	}
	return out
}

func (l *Loader) build(ctx context.Context, cfg InstanceConfig) (*Instance, *Failure) {
	ctx, span := l.tracer.Start(ctx, "loader.instance", trace.WithAttributes(
		attribute.String("id", cfg.ID),
		attribute.String("type", cfg.Type),
	))
	defer span.End()

	fail := func(kind FailureKind, err error) (*Instance, *Failure) {
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())
		f := &Failure{ID: cfg.ID, Type: cfg.Type, Kind: kind, Err: err}
		fields := []zap.Field{zap.String("id", cfg.ID), zap.String("type", cfg.Type), zap.Error(err)}
		if kind == FailureUnresolvedType {
			l.log.Warn("no factory for type", fields...)
		} else {
			l.log.Error("instance skipped", append(fields, zap.Stringer("kind", kind))...)
		}
		return nil, f
	}

	f, ok := l.reg.Lookup(cfg.Type)
	if !ok {
		return fail(FailureUnresolvedType, fmt.Errorf("no factory registered for %q", cfg.Type))
	}
	p, err := params.Decode(cfg.Parameters)
	if err != nil {
		return fail(FailureInvalidParameters, err)
	}
	name := cfg.DisplayName()
	if name != "" {
		p = p.WithName(name)
	}

	built, err := f.Create(ctx, p)
	switch {
	case errors.Is(err, params.ErrInvalid):
		return fail(FailureInvalidParameters, err)
	case err != nil:
		return fail(FailureConstruction, err)
	case built.Entity == nil:
		if built.Updater != nil {
			built.Updater.Stop()
		}
		return fail(FailureConstruction, errors.New("factory returned no entity"))
	}
	if name != "" {
		built.Entity.Name = name
	}

	inst := &Instance{}
	if err := copier.CopyWithOption(inst, &cfg, copier.Option{DeepCopy: true}); err != nil {
		if built.Updater != nil {
			built.Updater.Stop()
		}
		built.Entity.Dispose()
		return fail(FailureConstruction, err)
	}
	inst.Name = built.Entity.Name
	inst.Entity = built.Entity
	inst.Updater = built.Updater
	return inst, nil
}
