// Package binder turns the entity-hierarchy metamodel into the mapping model.
// It is the single writer of a mapping.Collector for one bootstrap run.
package binder

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/orm/decl"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
	"github.com/conduit-lang/ormbind/internal/orm/mapping"
	"github.com/conduit-lang/ormbind/internal/orm/metamodel"
	"github.com/conduit-lang/ormbind/internal/orm/naming"
	"github.com/conduit-lang/ormbind/internal/orm/types"
)

// BuildingContext carries the collaborators of one bootstrap run. Nil
// collaborators are replaced with defaults by NewBuildingContext.
type BuildingContext struct {
	Registry    decl.Registry
	Collector   *mapping.Collector
	Naming      *naming.Naming
	Types       *types.Resolver
	Options     metamodel.Options
	Logger      *zap.Logger
	Diagnostics *binderrors.Diagnostics
}

// NewBuildingContext creates a context over registry with a fresh collector
// and default naming, types and logging
func NewBuildingContext(registry decl.Registry, options metamodel.Options) *BuildingContext {
	ctx := &BuildingContext{Registry: registry, Options: options}
	ctx.applyDefaults()
	return ctx
}

func (c *BuildingContext) applyDefaults() {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Collector == nil {
		c.Collector = mapping.NewCollector()
	}
	if c.Naming == nil {
		c.Naming = naming.Default()
	}
	if c.Types == nil {
		c.Types = types.NewResolver()
	}
	if c.Diagnostics == nil {
		c.Diagnostics = binderrors.NewDiagnostics(c.Logger)
	}
}

// ManagedResources lists what one bootstrap run binds
type ManagedResources struct {
	// ClassNames are managed classes resolved through the registry
	ClassNames []string
	// ClassRefs are managed class declarations supplied directly
	ClassRefs []*decl.ClassDeclaration
	// XMLBindings are XML mapping documents; they are not supported
	XMLBindings []string
}

// managedRegistrar is implemented by registries that accept new managed classes
type managedRegistrar interface {
	AddManaged(classes ...*decl.ClassDeclaration) error
}

type validatingRegistry interface {
	Validate() error
}
