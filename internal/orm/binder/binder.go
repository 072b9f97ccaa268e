package binder

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/orm/contrib"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
	"github.com/conduit-lang/ormbind/internal/orm/metamodel"
)

// Binder runs the binding pipeline once. It is not reentrant: a second
// bootstrap needs a new Binder over a new registry and collector.
type Binder struct {
	ctx         *BuildingContext
	logger      *zap.Logger
	bound       bool
	hierarchies []*metamodel.EntityHierarchy
}

// New creates a binder over the given context
func New(ctx *BuildingContext) *Binder {
	ctx.applyDefaults()
	return &Binder{
		ctx:    ctx,
		logger: ctx.Logger.Named("binder"),
	}
}

// BindBootModel binds resources into ctx's collector. On error the collector
// is partially populated and must be discarded.
func BindBootModel(resources ManagedResources, ctx *BuildingContext) error {
	return New(ctx).Bind(resources)
}

// Context returns the binder's building context
func (b *Binder) Context() *BuildingContext {
	return b.ctx
}

// Hierarchies returns the hierarchies discovered by Bind
func (b *Binder) Hierarchies() []*metamodel.EntityHierarchy {
	return b.hierarchies
}

// Bind prepares the managed classes, processes global contributions,
// discovers hierarchies and binds each one. It may be called only once.
func (b *Binder) Bind(resources ManagedResources) error {
	if b.bound {
		return binderrors.NewAlreadyBound()
	}
	b.bound = true

	if len(resources.XMLBindings) > 0 {
		return binderrors.NewUnsupported("", fmt.Sprintf("XML mapping documents (%d supplied)", len(resources.XMLBindings)))
	}

	if err := b.prepare(resources); err != nil {
		return err
	}

	processor := contrib.NewProcessor(b.ctx.Registry, b.ctx.Collector, b.ctx.Types, b.logger)
	if err := processor.Process(); err != nil {
		return fmt.Errorf("global contributions: %w", err)
	}

	builder := metamodel.NewBuilder(b.ctx.Registry, b.ctx.Options, b.ctx.Diagnostics, b.logger)
	hierarchies, err := builder.Discover()
	if err != nil {
		return err
	}
	b.hierarchies = hierarchies

	for _, h := range hierarchies {
		if err := b.bindHierarchy(h); err != nil {
			return err
		}
	}

	b.logger.Info("bound boot model",
		zap.Int("hierarchies", len(hierarchies)),
		zap.Int("entities", len(b.ctx.Collector.EntityBindings())),
		zap.Int("tables", len(b.ctx.Collector.Tables())),
		zap.Int("diagnostics", b.ctx.Diagnostics.Len()),
	)
	return nil
}

// prepare checks that every managed name resolves and registers class refs
// the registry does not know yet
func (b *Binder) prepare(resources ManagedResources) error {
	if v, ok := b.ctx.Registry.(validatingRegistry); ok {
		if err := v.Validate(); err != nil {
			return binderrors.NewInvalidHierarchy("", "class hierarchy is not a tree").WithCause(err)
		}
	}
	for _, name := range resources.ClassNames {
		if _, err := b.ctx.Registry.ResolveClass(name); err != nil {
			return binderrors.NewUnresolvedClass(name).WithCause(err)
		}
	}

	for _, ref := range resources.ClassRefs {
		if _, err := b.ctx.Registry.ResolveClass(ref.Name); err == nil {
			continue
		}
		registrar, ok := b.ctx.Registry.(managedRegistrar)
		if !ok {
			return binderrors.NewUnresolvedClass(ref.Name)
		}
		if err := registrar.AddManaged(ref); err != nil {
			return binderrors.NewUnresolvedClass(ref.Name).WithCause(err)
		}
	}
	return nil
}

// bindHierarchy binds every entity record, then every attribute
func (b *Binder) bindHierarchy(h *metamodel.EntityHierarchy) error {
	for _, node := range h.Entities() {
		var err error
		if node.IsRoot() {
			_, err = b.bindRoot(h, node)
		} else {
			_, err = b.bindSubclass(h, node)
		}
		if err != nil {
			return err
		}
	}
	return b.bindHierarchyAttributes(h)
}
