package metamodel

// EntityHierarchy is one inheritance tree rooted at a root entity. Its
// strategies and policies are fixed at construction.
type EntityHierarchy struct {
	root *TypeMetadata
	// top is the highest node of the tree; the root or a mapped superclass above it
	top *TypeMetadata

	access           AccessType
	inheritance      InheritanceType
	caching          CachingPolicy
	naturalIDCaching NaturalIDCachingPolicy

	nodes     []*TypeMetadata
	callbacks *callbackCollector
}

// Root returns the root entity node
func (h *EntityHierarchy) Root() *TypeMetadata { return h.root }

// AccessType returns the hierarchy's default access type
func (h *EntityHierarchy) AccessType() AccessType { return h.access }

// InheritanceType returns the hierarchy's inheritance strategy
func (h *EntityHierarchy) InheritanceType() InheritanceType { return h.inheritance }

// Caching returns the entity caching policy
func (h *EntityHierarchy) Caching() CachingPolicy { return h.caching }

// NaturalIDCaching returns the natural-id caching policy
func (h *EntityHierarchy) NaturalIDCaching() NaturalIDCachingPolicy { return h.naturalIDCaching }

// Nodes returns every node of the hierarchy, top-down in discovery order
func (h *EntityHierarchy) Nodes() []*TypeMetadata { return h.nodes }

// Node returns the node of the given class
func (h *EntityHierarchy) Node(className string) (*TypeMetadata, bool) {
	for _, n := range h.nodes {
		if n.ClassName() == className {
			return n, true
		}
	}
	return nil, false
}

// SuperNodes returns the mapped-superclass nodes above the root, nearest first
func (h *EntityHierarchy) SuperNodes() []*TypeMetadata {
	var out []*TypeMetadata
	for current := h.root.super; current != nil; current = current.super {
		out = append(out, current)
	}
	return out
}

// Entities returns the entity nodes, root first, in discovery order
func (h *EntityHierarchy) Entities() []*TypeMetadata {
	var out []*TypeMetadata
	for _, n := range h.nodes {
		if n.IsEntity() {
			out = append(out, n)
		}
	}
	return out
}
