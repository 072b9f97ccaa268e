package metamodel

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/orm/decl"
	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
)

// Options are the process-wide settings that shape hierarchy discovery
type Options struct {
	SharedCacheMode    SharedCacheMode
	DefaultConcurrency CacheConcurrency
	// DefaultListeners are listener class names applied to every entity
	DefaultListeners []string
}

// walkAction tells the tree walk what a visited class contributes
type walkAction int

const (
	// walkNode means the class became a node
	walkNode walkAction = iota
	// walkSkip means the class is transparent and the walk continues past it
	walkSkip
)

type walkResult struct {
	action walkAction
	node   *TypeMetadata
}

var skip = walkResult{action: walkSkip}

// Builder discovers entity hierarchies in a declaration registry
type Builder struct {
	registry    decl.Registry
	options     Options
	diagnostics *binderrors.Diagnostics
	logger      *zap.Logger
}

// NewBuilder creates a hierarchy builder
func NewBuilder(registry decl.Registry, options Options, diagnostics *binderrors.Diagnostics, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if diagnostics == nil {
		diagnostics = binderrors.NewDiagnostics(logger)
	}
	return &Builder{
		registry:    registry,
		options:     options,
		diagnostics: diagnostics,
		logger:      logger,
	}
}

// IsRoot reports whether c is an entity none of whose proper ancestors is an entity
func IsRoot(c *decl.ClassDeclaration) bool {
	if !c.IsEntity() {
		return false
	}
	for current := c.Supertype(); current != nil; current = current.Supertype() {
		if current.IsEntity() {
			return false
		}
	}
	return true
}

// Discover builds one hierarchy per root entity, in managed-class order.
// Mapped superclasses that end up in no hierarchy are reported as diagnostics.
func (b *Builder) Discover() ([]*EntityHierarchy, error) {
	var roots []*decl.ClassDeclaration
	var mappedSuperclasses []*decl.ClassDeclaration

	err := b.registry.ForEachManagedClass(func(c *decl.ClassDeclaration) error {
		switch {
		case c.IsMappedSuperclass():
			mappedSuperclasses = append(mappedSuperclasses, c)
		case IsRoot(c):
			roots = append(roots, c)
		}
		return nil
	})
	if errors.Is(err, decl.ErrSupertypeCycle) {
		return nil, binderrors.NewInvalidHierarchy("", "class hierarchy is not a tree").WithCause(err)
	}
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool)
	hierarchies := make([]*EntityHierarchy, 0, len(roots))
	for _, root := range roots {
		h, err := b.buildHierarchy(root)
		if err != nil {
			return nil, err
		}
		for _, n := range h.nodes {
			used[n.ClassName()] = true
		}
		hierarchies = append(hierarchies, h)

		b.logger.Debug("discovered entity hierarchy",
			zap.String("root", root.Name),
			zap.String("access", h.access.String()),
			zap.String("inheritance", h.inheritance.String()),
			zap.Int("nodes", len(h.nodes)),
		)
	}

	for _, ms := range mappedSuperclasses {
		if !used[ms.Name] {
			b.diagnostics.Report(binderrors.NewUnusedMappedSuperclass(ms.Name))
		}
	}

	return hierarchies, nil
}

func (b *Builder) buildHierarchy(root *decl.ClassDeclaration) (*EntityHierarchy, error) {
	access, err := determineAccess(root)
	if err != nil {
		return nil, err
	}

	h := &EntityHierarchy{
		access: access,
		callbacks: &callbackCollector{
			registry:         b.registry,
			defaultListeners: b.options.DefaultListeners,
			diagnostics:      b.diagnostics,
			logger:           b.logger,
		},
	}

	rootNode, err := b.newNode(h, root, KindEntity)
	if err != nil {
		return nil, err
	}
	h.root = rootNode

	// up: mapped superclasses become nodes, plain classes are transparent
	below := rootNode
	for current := root.Supertype(); current != nil; current = current.Supertype() {
		res, err := b.visitSuper(h, current)
		if err != nil {
			return nil, err
		}
		if res.action == walkSkip {
			continue
		}
		res.node.addSubtype(below)
		below = res.node
	}
	h.top = below

	if err := b.walkDown(h, rootNode, root); err != nil {
		return nil, err
	}

	h.nodes = flatten(h.top)
	for _, n := range h.nodes {
		n.inheritOverrides()
	}

	if h.inheritance, err = b.resolveInheritance(h); err != nil {
		return nil, err
	}
	if h.caching, h.naturalIDCaching, err = b.resolveCaching(root); err != nil {
		return nil, err
	}

	return h, nil
}

func (b *Builder) visitSuper(h *EntityHierarchy, c *decl.ClassDeclaration) (walkResult, error) {
	switch {
	case c.IsEntity():
		return skip, binderrors.NewInvalidHierarchy(c.Name,
			fmt.Sprintf("Entity '%s' is an ancestor of hierarchy root '%s'", c.Name, h.root.ClassName()))
	case c.IsMappedSuperclass():
		node, err := b.newNode(h, c, KindMappedSuperclass)
		if err != nil {
			return skip, err
		}
		return walkResult{action: walkNode, node: node}, nil
	default:
		return skip, nil
	}
}

func (b *Builder) visitSub(h *EntityHierarchy, c *decl.ClassDeclaration) (walkResult, error) {
	var kind NodeKind
	switch {
	case c.IsEntity():
		kind = KindEntity
	case c.IsMappedSuperclass():
		kind = KindMappedSuperclass
	default:
		return skip, nil
	}
	node, err := b.newNode(h, c, kind)
	if err != nil {
		return skip, err
	}
	return walkResult{action: walkNode, node: node}, nil
}

// walkDown attaches the nodes found below c to parent. Nodes found below a
// transparent class attach to the same parent.
func (b *Builder) walkDown(h *EntityHierarchy, parent *TypeMetadata, c *decl.ClassDeclaration) error {
	return b.registry.ForEachDirectSubtype(c.Name, func(sub *decl.ClassDeclaration) error {
		res, err := b.visitSub(h, sub)
		if err != nil {
			return err
		}
		if res.action == walkSkip {
			return b.walkDown(h, parent, sub)
		}
		parent.addSubtype(res.node)
		return b.walkDown(h, res.node, sub)
	})
}

func (b *Builder) newNode(h *EntityHierarchy, c *decl.ClassDeclaration, kind NodeKind) (*TypeMetadata, error) {
	node := &TypeMetadata{
		kind:      kind,
		decl:      c,
		hierarchy: h,
		access:    h.access,
	}

	if ann, ok := c.Annotation(decl.Access); ok {
		access, err := ParseAccessType(ann.StringOr("value", ""))
		if err != nil {
			return nil, binderrors.NewInvalidDirective(c.Name, string(decl.Access), err.Error())
		}
		node.access = access
	}

	ids, members, accesses, err := collectMembers(c, node.access)
	if err != nil {
		return nil, err
	}
	node.identifierMembers = ids

	seen := make(map[string]bool)
	for _, m := range members {
		name := m.AttributeName()
		if seen[name] {
			continue
		}
		seen[name] = true

		nature, err := classifyNature(b.registry, m)
		if err != nil {
			return nil, err
		}
		node.attributes = append(node.attributes, &AttributeMetadata{
			Name:   name,
			Nature: nature,
			Member: m,
			Access: accesses[m],
		})
	}

	return node, nil
}

// determineAccess walks from the root upward. An explicit @Access wins,
// otherwise the kind of the first identifier member found decides.
func determineAccess(root *decl.ClassDeclaration) (AccessType, error) {
	for current := root; current != nil; current = current.Supertype() {
		if ann, ok := current.Annotation(decl.Access); ok {
			access, err := ParseAccessType(ann.StringOr("value", ""))
			if err != nil {
				return 0, binderrors.NewInvalidDirective(current.Name, string(decl.Access), err.Error())
			}
			return access, nil
		}
		for _, m := range current.Members {
			if !isIdentifier(m) {
				continue
			}
			if m.Kind == decl.MemberField {
				return AccessField, nil
			}
			return AccessProperty, nil
		}
	}
	return 0, binderrors.NewAccessTypeDetermination(root.Name)
}

// resolveInheritance takes the first @Inheritance from the root upward.
// @Inheritance below the root is reported and ignored.
func (b *Builder) resolveInheritance(h *EntityHierarchy) (InheritanceType, error) {
	root := h.root.decl
	strategy := SingleTable
	for current := root; current != nil; current = current.Supertype() {
		ann, ok := current.Annotation(decl.Inheritance)
		if !ok {
			continue
		}
		parsed, err := ParseInheritanceType(ann.StringOr("strategy", ""))
		if err != nil {
			return 0, binderrors.NewInvalidDirective(current.Name, string(decl.Inheritance), err.Error())
		}
		strategy = parsed
		break
	}

	var check func(n *TypeMetadata)
	check = func(n *TypeMetadata) {
		for _, sub := range n.subtypes {
			if sub.decl.HasAnnotation(decl.Inheritance) {
				b.diagnostics.Report(binderrors.NewInheritanceOnSubclass(sub.ClassName(), root.Name))
			}
			check(sub)
		}
	}
	check(h.root)

	return strategy, nil
}

// resolveCaching combines the shared cache mode with the root's @Cacheable and @Cache
func (b *Builder) resolveCaching(root *decl.ClassDeclaration) (CachingPolicy, NaturalIDCachingPolicy, error) {
	var explicit *bool
	if ann, _, ok := root.FindAnnotationInherited(decl.Cacheable); ok {
		value, err := ann.Bool("value")
		if err != nil {
			return CachingPolicy{}, NaturalIDCachingPolicy{}, binderrors.NewInvalidDirective(root.Name, string(decl.Cacheable), err.Error())
		}
		if value == nil {
			enabled := true
			value = &enabled
		}
		explicit = value
	}

	policy := CachingPolicy{
		Region:              root.Name,
		Concurrency:         b.options.DefaultConcurrency,
		CacheLazyProperties: true,
	}

	switch b.options.SharedCacheMode {
	case CacheModeNone:
		policy.Enabled = false
	case CacheModeAll:
		policy.Enabled = true
	case CacheModeDisableSelective:
		policy.Enabled = explicit == nil || *explicit
	default:
		policy.Enabled = explicit != nil && *explicit
	}

	if ann, _, ok := root.FindAnnotationInherited(decl.Cache); ok {
		if usage, ok := ann.String("usage"); ok {
			concurrency, err := ParseCacheConcurrency(usage)
			if err != nil {
				return CachingPolicy{}, NaturalIDCachingPolicy{}, binderrors.NewInvalidDirective(root.Name, string(decl.Cache), err.Error())
			}
			policy.Concurrency = concurrency
		}
		policy.Region = ann.StringOr("region", policy.Region)
		policy.CacheLazyProperties = ann.StringOr("include", "all") != "non-lazy"
	}

	var naturalID NaturalIDCachingPolicy
	if policy.Enabled {
		naturalID.Enabled = true
		naturalID.Region = policy.Region + "##NaturalId"
		if ann, ok := root.Annotation(decl.NaturalIDCache); ok {
			naturalID.Region = ann.StringOr("region", naturalID.Region)
		}
	}

	return policy, naturalID, nil
}

// flatten lists the tree below top in pre-order
func flatten(top *TypeMetadata) []*TypeMetadata {
	out := []*TypeMetadata{top}
	for _, sub := range top.subtypes {
		out = append(out, flatten(sub)...)
	}
	return out
}
