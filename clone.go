package furnish

// DeepClone returns a structural copy of the node graph rooted at n. Geometry
// pointers are shared (read-only); every mesh node gets its own copy of its
// material, so opacity or color changes on the clone never reach n or any
// sibling clone. The clone has no parent and fresh node IDs.
func DeepClone(n *Node) *Node {
	c := &Node{
		ID:          nextNodeID(),
		Name:        n.Name,
		Type:        n.Type,
		Position:    n.Position,
		Rotation:    n.Rotation,
		Scale:       n.Scale,
		Visible:     n.Visible,
		Geometry:    n.Geometry,
		Item:        n.Item,
		PlacementID: n.PlacementID,
		PlacedScale: n.PlacedScale,
		UserData:    n.UserData,
	}
	if n.Material != nil {
		c.Material = n.Material.Clone()
	}
	if len(n.children) > 0 {
		c.children = make([]*Node, 0, len(n.children))
		for _, child := range n.children {
			cc := DeepClone(child)
			cc.Parent = c
			c.children = append(c.children, cc)
		}
	}
	return c
}

// setPlacementID stamps id onto every node of the subtree.
func setPlacementID(n *Node, id uint32) {
	n.Walk(func(c *Node) bool {
		c.PlacementID = id
		return true
	})
}
