package network

import (
	"fmt"

	"github.com/edp1096/sparse"

	"github.com/san-kum/powerlink/internal/gunns"
)

func matrixConfig() *sparse.Configuration {
	return &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}
}

// solve assembles every link's contribution into the global admittance
// system over the non-ground nodes and returns the solved potentials.
// Each diagonal carries the conductance floor so isolated nodes solve to zero.
func solve(nodes *gunns.NodeList, links []gunns.Link) ([]float64, error) {
	size := nodes.Len() - 1
	if size <= 0 {
		return nil, nil
	}

	m, err := sparse.Create(int64(size), matrixConfig())
	if err != nil {
		return nil, fmt.Errorf("create admittance matrix: %w", err)
	}
	defer m.Destroy()

	rhs := make([]float64, size+1) // 1-based
	for i := 1; i <= size; i++ {
		m.GetElement(int64(i), int64(i)).Real += gunns.ConductanceFloor
	}

	for _, l := range links {
		adm := l.Admittance()
		ports := l.Ports()
		for i, pi := range ports {
			if nodes.IsGround(pi) {
				continue
			}
			rhs[pi+1] += adm.Source[i]
			for j, pj := range ports {
				if nodes.IsGround(pj) {
					continue
				}
				if v := adm.At(i, j); v != 0 {
					m.GetElement(int64(pi+1), int64(pj+1)).Real += v
				}
			}
		}
	}

	if err := m.Factor(); err != nil {
		return nil, fmt.Errorf("%w: factor admittance matrix: %v", gunns.ErrNumerical, err)
	}
	x, err := m.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("%w: solve admittance matrix: %v", gunns.ErrNumerical, err)
	}

	out := make([]float64, size)
	copy(out, x[1:size+1])
	return out, nil
}
