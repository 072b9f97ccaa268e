package metamodel

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/orm/decl"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
)

// CallbackEvent is one of the recognized lifecycle events
type CallbackEvent int

const (
	PrePersist CallbackEvent = iota
	PreRemove
	PreUpdate
	PostLoad
	PostPersist
	PostRemove
	PostUpdate
)

// callbackDirectives lists the events in their canonical order
var callbackDirectives = []struct {
	event CallbackEvent
	kind  decl.AnnotationKind
}{
	{PrePersist, decl.PrePersist},
	{PreRemove, decl.PreRemove},
	{PreUpdate, decl.PreUpdate},
	{PostLoad, decl.PostLoad},
	{PostPersist, decl.PostPersist},
	{PostRemove, decl.PostRemove},
	{PostUpdate, decl.PostUpdate},
}

// String returns the directive name of the event
func (e CallbackEvent) String() string {
	for _, d := range callbackDirectives {
		if d.event == e {
			return string(d.kind)
		}
	}
	return "unknown"
}

// CallbackSource tells where a callback group came from
type CallbackSource int

const (
	SourceDefaultListener CallbackSource = iota
	SourceEntityListener
	SourceEntityMethod
)

// String returns the string representation of the source
func (s CallbackSource) String() string {
	switch s {
	case SourceDefaultListener:
		return "default_listener"
	case SourceEntityListener:
		return "entity_listener"
	case SourceEntityMethod:
		return "entity_method"
	default:
		return "unknown"
	}
}

// Callback binds one event to the method handling it
type Callback struct {
	Event  CallbackEvent
	Method string
}

// CallbackGroup is the set of callbacks defined by one listener class or
// by an entity class itself
type CallbackGroup struct {
	ClassName string
	Source    CallbackSource
	// Callbacks are ordered by member declaration order
	Callbacks []Callback
}

// Method returns the method handling the event, if any
func (g *CallbackGroup) Method(event CallbackEvent) (string, bool) {
	for _, cb := range g.Callbacks {
		if cb.Event == event {
			return cb.Method, true
		}
	}
	return "", false
}

// callbackCollector resolves the ordered callback groups of a node
type callbackCollector struct {
	registry         decl.Registry
	defaultListeners []string
	diagnostics      *binderrors.Diagnostics
	logger           *zap.Logger
}

// collect returns default listeners, then entity listeners, then entity
// methods; the last two walk superclasses before the node itself
func (c *callbackCollector) collect(node *TypeMetadata) ([]*CallbackGroup, error) {
	var groups []*CallbackGroup
	d := node.decl

	if _, _, excluded := d.FindAnnotationInherited(decl.ExcludeDefaultListeners); !excluded {
		for _, name := range c.defaultListeners {
			group, err := c.listenerGroup(name, SourceDefaultListener)
			if err != nil {
				return nil, err
			}
			if group != nil {
				groups = append(groups, group)
			}
		}
	}

	chain := callbackChain(d)

	for _, cls := range chain {
		for _, ann := range cls.AnnotationsOf(decl.EntityListeners) {
			for _, name := range ann.Strings("value") {
				group, err := c.listenerGroup(name, SourceEntityListener)
				if err != nil {
					return nil, err
				}
				if group != nil {
					groups = append(groups, group)
				}
			}
		}
	}

	for _, cls := range chain {
		group, err := callbackGroupOf(cls, SourceEntityMethod)
		if err != nil {
			return nil, err
		}
		if len(group.Callbacks) == 0 {
			c.logger.Debug("class declares no lifecycle callbacks", zap.String("class", cls.Name))
			continue
		}
		groups = append(groups, group)
	}

	return groups, nil
}

func (c *callbackCollector) listenerGroup(name string, source CallbackSource) (*CallbackGroup, error) {
	cls, err := c.registry.ResolveClass(name)
	if err != nil {
		return nil, binderrors.NewUnresolvedClass(name).WithCause(err)
	}
	group, err := callbackGroupOf(cls, source)
	if err != nil {
		return nil, err
	}
	if len(group.Callbacks) == 0 {
		c.diagnostics.Report(binderrors.NewEmptyCallbackListener(cls.Name, name))
		return nil, nil
	}
	return group, nil
}

// callbackChain returns the entity and mapped-superclass declarations whose
// listeners and methods apply to d, superclass first. The upward walk stops
// after the first class that excludes superclass listeners.
func callbackChain(d *decl.ClassDeclaration) []*decl.ClassDeclaration {
	var chain []*decl.ClassDeclaration
	for current := d; current != nil; current = current.Supertype() {
		if !current.IsEntity() && !current.IsMappedSuperclass() {
			continue
		}
		chain = append(chain, current)
		if current.HasAnnotation(decl.ExcludeSuperclassListeners) {
			break
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// callbackGroupOf collects the callback methods a class declares itself
func callbackGroupOf(cls *decl.ClassDeclaration, source CallbackSource) (*CallbackGroup, error) {
	group := &CallbackGroup{ClassName: cls.Name, Source: source}
	for _, m := range cls.Methods() {
		for _, d := range callbackDirectives {
			if !m.HasAnnotation(d.kind) {
				continue
			}
			if existing, ok := group.Method(d.event); ok {
				return nil, binderrors.NewDuplicateCallback(cls.Name, d.event.String(), existing, m.Name)
			}
			group.Callbacks = append(group.Callbacks, Callback{Event: d.event, Method: m.Name})
		}
	}
	return group, nil
}
