package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/brinksim/internal/dynamo"
)

// CloudRadius is the RMS distance of the particles from their centre of mass
// at the latest sample.
type CloudRadius struct {
	name   string
	radius float64
}

func NewCloudRadius() *CloudRadius {
	return &CloudRadius{name: "cloud_radius"}
}

func (c *CloudRadius) Name() string { return c.name }

func (c *CloudRadius) Observe(x dynamo.State, t float64) {
	c.radius = RMSRadius(x)
}

func (c *CloudRadius) Value() float64 { return c.radius }

func (c *CloudRadius) Reset() { c.radius = 0 }

func RMSRadius(x dynamo.State) float64 {
	pts := x.Points()
	if len(pts) == 0 {
		return 0
	}
	com := CentreOfMass(x)
	sum := 0.0
	for _, p := range pts {
		d := r3.Sub(p, com)
		sum += r3.Dot(d, d)
	}
	return math.Sqrt(sum / float64(len(pts)))
}
