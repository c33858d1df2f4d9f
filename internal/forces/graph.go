package forces

import "fmt"

// Link is an unordered pair of particle indices, stored with I < J.
type Link struct {
	I, J int
}

// Graph is the immutable spring connectivity of an articulated body.
type Graph struct {
	n     int
	links []Link
}

// NewGraph validates and normalizes links for n particles. Duplicates in
// either orientation collapse to one link; insertion order is kept.
func NewGraph(n int, links []Link) (*Graph, error) {
	seen := make(map[Link]struct{}, len(links))
	out := make([]Link, 0, len(links))

	for _, l := range links {
		if l.I == l.J {
			return nil, fmt.Errorf("%w: (%d, %d)", ErrSelfLink, l.I, l.J)
		}
		if l.I < 0 || l.J < 0 || l.I >= n || l.J >= n {
			return nil, fmt.Errorf("%w: (%d, %d) with %d particles", ErrLinkRange, l.I, l.J, n)
		}
		if l.I > l.J {
			l.I, l.J = l.J, l.I
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}

	return &Graph{n: n, links: out}, nil
}

func (g *Graph) Particles() int { return g.n }
func (g *Graph) Len() int       { return len(g.links) }

// Links returns a copy of the normalized link list.
func (g *Graph) Links() []Link {
	out := make([]Link, len(g.links))
	copy(out, g.links)
	return out
}
