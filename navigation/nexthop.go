package navigation

import "github.com/lixenwraith/vi-traffic/vmath"

// RandomNextNode picks one outgoing lane of from uniformly
// This is the live routing policy: cars look one hop ahead instead of planning whole routes
func RandomNextNode(n *RoadNetwork, from NodeID, seed vmath.Seed) (NodeID, vmath.Seed, bool) {
	return vmath.Choose(seed, n.Outgoing(from))
}
