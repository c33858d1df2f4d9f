package physics_test

import (
	"context"
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/brinksim/internal/dynamo"
	"github.com/san-kum/brinksim/internal/forces"
	"github.com/san-kum/brinksim/internal/hydro"
	"github.com/san-kum/brinksim/internal/integrators"
	"github.com/san-kum/brinksim/internal/layout"
	"github.com/san-kum/brinksim/internal/physics"
	"github.com/san-kum/brinksim/internal/progress"
)

var _ = Describe("Suspension", func() {
	It("rejects an empty suspension", func() {
		_, err := physics.NewSuspension(0, hydro.Stokeslet{}, forces.NewGravity())
		Expect(err).To(MatchError(physics.ErrNoParticles))
	})

	It("rejects a graph sized for a different body", func() {
		g, err := forces.NewGraph(3, []forces.Link{{I: 0, J: 1}})
		Expect(err).NotTo(HaveOccurred())
		_, err = physics.NewSuspension(4, hydro.Stokeslet{}, forces.NewElastic(g, 1, 1))
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})
})

var _ = Describe("Run", func() {
	Context("two Stokes particles under gravity", func() {
		var (
			susp *physics.Suspension
			x0   dynamo.State
		)

		BeforeEach(func() {
			var err error
			susp, err = physics.NewSuspension(2, hydro.Stokeslet{}, forces.NewGravity())
			Expect(err).NotTo(HaveOccurred())
			x0 = dynamo.State{0, 0, 0, 0, 0, 1}
		})

		It("moves both particles straight down at the same speed", func() {
			v := susp.NewRun(nil).Derive(x0, 0)
			want := -1 / (4 * math.Pi)
			Expect(v[0]).To(BeNumerically("~", 0, 1e-15))
			Expect(v[1]).To(BeNumerically("~", 0, 1e-15))
			Expect(v[2]).To(BeNumerically("~", want, 1e-15))
			Expect(v[5]).To(BeNumerically("~", want, 1e-15))
		})

		It("descends while keeping its separation", func() {
			run := susp.NewRun(nil)
			cfg := dynamo.DefaultConfig()
			cfg.T1 = 2

			res, err := dynamo.New(run, integrators.NewRK45()).Run(context.Background(), x0, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Times[len(res.Times)-1]).To(Equal(2.0))

			final := res.States[len(res.States)-1].Points()
			drop := 2 / (4 * math.Pi)
			Expect(final[0].Z).To(BeNumerically("~", -drop, 1e-9))
			Expect(final[1].Z).To(BeNumerically("~", 1-drop, 1e-9))
			Expect(r3.Norm(r3.Sub(final[1], final[0]))).To(BeNumerically("~", 1, 1e-9))
			Expect(run.Evaluations()).To(Equal(res.Evaluations))
		})

		It("does not mutate the state it is given", func() {
			in := x0.Clone()
			susp.NewRun(nil).Derive(in, 0)
			Expect(in).To(Equal(x0))
		})

		It("panics on a state of the wrong length", func() {
			Expect(func() { susp.NewRun(nil).Derive(dynamo.State{0, 0, 0}, 0) }).To(Panic())
		})
	})

	Context("magnetized suspension", func() {
		var (
			susp *physics.Suspension
			mag  *forces.Magnetic
			pos  []r3.Vec
		)

		BeforeEach(func() {
			var err error
			pos, err = layout.Sphere(rand.New(rand.NewSource(4)), 12, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			mag = forces.NewMagnetic(5)
			susp, err = physics.NewSuspension(len(pos), hydro.Brinkmanlet{Alpha: 3}, mag)
			Expect(err).NotTo(HaveOccurred())
		})

		It("uses the velocities of the previous evaluation", func() {
			run := susp.NewRun(nil)
			Expect(run.History()).To(BeNil())

			x := dynamo.FromPoints(pos)
			first := run.Derive(x, 0)
			gravityOnly := hydro.Velocities(hydro.Brinkmanlet{Alpha: 3}, pos, forces.NewGravity().Forces(pos, nil))
			Expect(first).To(Equal(dynamo.FromPoints(gravityOnly)))
			Expect(run.History()).To(Equal(first.Points()))

			second := run.Derive(x, 0)
			lagged := hydro.Velocities(hydro.Brinkmanlet{Alpha: 3}, pos, mag.Forces(pos, first.Points()))
			Expect(second).To(Equal(dynamo.FromPoints(lagged)))
			Expect(second).NotTo(Equal(first))
		})

		It("starts every run from a zero history", func() {
			x := dynamo.FromPoints(pos)
			a := susp.NewRun(nil)
			a.Derive(x, 0)
			a.Derive(x, 0)

			b := susp.NewRun(nil)
			Expect(b.History()).To(BeNil())
			Expect(b.Derive(x, 0)).To(Equal(susp.NewRun(nil).Derive(x, 0)))
		})
	})

	Context("articulated body", func() {
		It("holds a relaxed weightless chain still", func() {
			g, err := forces.NewGraph(3, []forces.Link{{I: 0, J: 1}, {I: 1, J: 2}})
			Expect(err).NotTo(HaveOccurred())
			el := forces.NewElastic(g, 1, 1)
			el.Gravity = r3.Vec{}
			susp, err := physics.NewSuspension(3, hydro.RegularizedBrinkmanlet{Alpha: 1, Delta: 0.1}, el)
			Expect(err).NotTo(HaveOccurred())

			v := susp.NewRun(nil).Derive(dynamo.State{0, 0, 0, 1, 0, 0, 1, 0, 1}, 0)
			for _, vi := range v {
				Expect(vi).To(BeZero())
			}
		})

		It("composes springs, gravity and the regularized kernel", func() {
			pts, links := layout.Stickman(rand.New(rand.NewSource(1)))
			g, err := forces.NewGraph(len(pts), links)
			Expect(err).NotTo(HaveOccurred())
			k := hydro.RegularizedBrinkmanlet{Alpha: 1, Delta: 0.1}
			el := forces.NewElastic(g, 1, 1)
			susp, err := physics.NewSuspension(len(pts), k, el)
			Expect(err).NotTo(HaveOccurred())

			got := susp.NewRun(nil).Derive(dynamo.FromPoints(pts), 0)
			want := dynamo.FromPoints(hydro.Velocities(k, pts, el.Forces(pts, nil)))
			Expect(got).To(Equal(want))
			Expect(got.IsValid()).To(BeTrue())
		})
	})

	It("reports progress as the solver advances", func() {
		var got []progress.Notification
		tr := progress.NewTracker(0, 1, progress.ReporterFunc(func(n progress.Notification) {
			got = append(got, n)
		}))
		susp, err := physics.NewSuspension(2, hydro.Stokeslet{}, forces.NewGravity())
		Expect(err).NotTo(HaveOccurred())

		run := susp.NewRun(tr)
		x := dynamo.State{0, 0, 0, 1, 0, 0}
		run.Derive(x, 0.5)
		run.Derive(x, 0.25)
		Expect(got).To(HaveLen(50))
		run.Derive(x, 1)
		Expect(got).To(HaveLen(progress.Steps))
		Expect(got[progress.Steps-1].Percent).To(Equal(100))
	})

	It("gives every run its own tracker and history", func() {
		susp, err := physics.NewSuspension(2, hydro.Brinkmanlet{Alpha: 3}, forces.NewMagnetic(5))
		Expect(err).NotTo(HaveOccurred())
		x := dynamo.State{0, 0, 0, 1, 0, 0}
		cfg := dynamo.DefaultConfig()
		cfg.T1 = 1

		var finals []dynamo.State
		for i := 0; i < 2; i++ {
			var got []progress.Notification
			run := susp.NewRun(progress.NewTracker(0, 1, progress.ReporterFunc(func(n progress.Notification) {
				got = append(got, n)
			})))
			Expect(run.History()).To(BeNil())

			res, err := dynamo.New(run, integrators.NewRK45()).Run(context.Background(), x, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(progress.Steps))
			Expect(run.History()).NotTo(BeNil())
			finals = append(finals, res.States[len(res.States)-1])
		}
		Expect(finals[1]).To(Equal(finals[0]))
	})
})
