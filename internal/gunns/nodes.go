package gunns

import (
	"fmt"
	"math"
)

// NodeList is the node potential vector owned by the solver. The last
// node is ground and is held at zero potential.
type NodeList struct {
	potentials []float64
	names      []string
}

// NewNodeList creates n named nodes plus the ground node.
func NewNodeList(names ...string) *NodeList {
	n := &NodeList{
		potentials: make([]float64, len(names)+1),
		names:      make([]string, 0, len(names)+1),
	}
	n.names = append(n.names, names...)
	n.names = append(n.names, "ground")
	return n
}

// Len returns the number of nodes including ground.
func (n *NodeList) Len() int { return len(n.potentials) }

// Ground returns the index of the ground node.
func (n *NodeList) Ground() int { return len(n.potentials) - 1 }

// IsGround reports whether index refers to the ground node.
func (n *NodeList) IsGround(index int) bool { return index == n.Ground() }

// Name returns the node's name.
func (n *NodeList) Name(index int) string {
	if index < 0 || index >= len(n.names) {
		return fmt.Sprintf("node%d", index)
	}
	return n.names[index]
}

// Index returns the index of the named node, or -1.
func (n *NodeList) Index(name string) int {
	for i, nm := range n.names {
		if nm == name {
			return i
		}
	}
	return -1
}

// Potential returns the node's potential; out-of-range indices read as ground.
func (n *NodeList) Potential(index int) float64 {
	if index < 0 || index >= len(n.potentials)-1 {
		return 0
	}
	return n.potentials[index]
}

// SetPotential writes a non-ground node potential. NaN and Inf are ignored.
func (n *NodeList) SetPotential(index int, v float64) {
	if index < 0 || index >= len(n.potentials)-1 {
		return
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	n.potentials[index] = v
}

// Potentials returns a copy of the non-ground potentials.
func (n *NodeList) Potentials() []float64 {
	out := make([]float64, len(n.potentials)-1)
	copy(out, n.potentials)
	return out
}

// ValidatePorts checks a link's port map against the node list.
func (n *NodeList) ValidatePorts(link string, ports []int, want int) error {
	if n == nil {
		return InitError(link, "initialize", "missing node list")
	}
	if len(ports) != want {
		return InitError(link, "initialize", "expected %d ports, got %d", want, len(ports))
	}
	for i, p := range ports {
		if p < 0 || p >= n.Len() {
			return InitError(link, "initialize", "port %d maps to invalid node %d", i, p)
		}
	}
	return nil
}
