package extras_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodyx/internal/dynamo"
	"github.com/san-kum/nbodyx/internal/extras"
	"github.com/san-kum/nbodyx/internal/integrators"
	"github.com/san-kum/nbodyx/internal/operator"
	"github.com/san-kum/nbodyx/internal/params"
	"github.com/san-kum/nbodyx/internal/physics"
	"github.com/san-kum/nbodyx/internal/sim"
)

func newSim(integ dynamo.Integrator, opts ...sim.Option) *sim.Simulation {
	s := sim.New(integ, opts...)
	s.Add(physics.Particle{M: 1.0})
	s.Add(physics.Particle{M: 1e-3, X: 1.0, VY: 1.1})
	return s
}

type placement struct {
	timing   operator.Timing
	fraction float64
}

func placements(ex *extras.Extras) []placement {
	var out []placement
	for _, st := range ex.Steps() {
		out = append(out, placement{st.Timing, st.Fraction})
	}
	return out
}

type recorder struct {
	calls []string
	dts   []float64
}

func (r *recorder) op(ex *extras.Extras, name string) *operator.Operator {
	op, err := ex.RegisterOperator(name, func(_ operator.Context, op *operator.Operator, dt float64) error {
		r.calls = append(r.calls, name)
		r.dts = append(r.dts, dt)
		return nil
	}, operator.Metadata{Symmetry: operator.Asymmetric})
	Expect(err).NotTo(HaveOccurred())
	return op
}

var _ = Describe("Extras", func() {
	var (
		s  *sim.Simulation
		ex *extras.Extras
	)

	BeforeEach(func() {
		s = newSim(integrators.NewLeapfrog(), sim.WithDt(0.1))
		var err error
		ex, err = extras.Attach(s)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("lifecycle", func() {
		It("allows one context per simulation", func() {
			_, err := extras.Attach(s)
			Expect(err).To(MatchError(sim.ErrHookInUse))
		})

		It("rejects a nil simulation", func() {
			_, err := extras.Attach(nil)
			Expect(err).To(MatchError(extras.ErrNilSimulation))
		})

		It("fails every operation after detach", func() {
			op, err := ex.LoadOperator("modify_mass")
			Expect(err).NotTo(HaveOccurred())

			Expect(ex.Detach()).To(Succeed())
			Expect(ex.Detach()).To(MatchError(extras.ErrDetached))

			Expect(ex.AddOperator(op)).To(MatchError(extras.ErrDetached))
			Expect(ex.AddOperatorStep(op, 1, operator.Post, "")).To(MatchError(extras.ErrDetached))
			Expect(ex.RemoveOperator("modify_mass")).To(MatchError(extras.ErrDetached))
			Expect(ex.SetParamFloat64(params.Particle(0), operator.TauMass, -1)).To(MatchError(extras.ErrDetached))
			_, err = ex.LoadOperator("modify_mass")
			Expect(err).To(MatchError(extras.ErrDetached))
		})

		It("releases the hook and schedule on detach", func() {
			op, _ := ex.LoadOperator("modify_mass")
			Expect(ex.AddOperator(op)).To(Succeed())
			Expect(ex.SetParamFloat64(params.Particle(1), operator.TauMass, -10)).To(Succeed())

			Expect(ex.Detach()).To(Succeed())
			Expect(ex.Steps()).To(BeEmpty())
			Expect(ex.Params().Targets()).To(BeEmpty())

			Expect(s.Step()).To(Succeed())
			Expect(s.Particles[1].M).To(Equal(1e-3))

			again, err := extras.Attach(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Steps()).To(BeEmpty())
		})
	})

	Describe("default placement", func() {
		DescribeTable("follows the stepping class of the host",
			func(integ dynamo.Integrator, name string, want []placement) {
				host := newSim(integ)
				ctx, err := extras.Attach(host)
				Expect(err).NotTo(HaveOccurred())

				op, err := ctx.LoadOperator(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(ctx.AddOperator(op)).To(Succeed())
				Expect(placements(ctx)).To(Equal(want))
			},
			Entry("symmetric on leapfrog", integrators.NewLeapfrog(), "modify_mass",
				[]placement{{operator.Pre, 0.5}, {operator.Post, 0.5}}),
			Entry("symmetric on verlet", integrators.NewVerlet(), "modify_mass",
				[]placement{{operator.Pre, 0.5}, {operator.Post, 0.5}}),
			Entry("symmetric on rk4", integrators.NewRK4(), "modify_mass",
				[]placement{{operator.Pre, 0.5}, {operator.Post, 0.5}}),
			Entry("symmetric on rk45", integrators.NewRK45(), "modify_mass",
				[]placement{{operator.Post, 1}}),
			Entry("asymmetric on leapfrog", integrators.NewLeapfrog(), "mass_loss_test",
				[]placement{{operator.Post, 1}}),
			Entry("asymmetric on euler", integrators.NewEuler(), "mass_loss_test",
				[]placement{{operator.Post, 1}}),
			Entry("asymmetric on rk45", integrators.NewRK45(), "mass_loss_test",
				[]placement{{operator.Post, 1}}),
		)

		It("uses a custom policy", func() {
			host := newSim(integrators.NewLeapfrog())
			p := extras.DefaultPolicy()
			Expect(p.Set(operator.Symmetric, dynamo.SteppingSymplectic, extras.Placement{Pre: 1})).To(Succeed())

			ctx, err := extras.Attach(host, extras.WithPolicy(p))
			Expect(err).NotTo(HaveOccurred())
			op, _ := ctx.LoadOperator("modify_mass")
			Expect(ctx.AddOperator(op)).To(Succeed())
			Expect(placements(ctx)).To(Equal([]placement{{operator.Pre, 1}}))
		})

		It("rejects the same operator twice", func() {
			op, _ := ex.LoadOperator("modify_mass")
			Expect(ex.AddOperator(op)).To(Succeed())
			Expect(ex.AddOperator(op)).To(MatchError(extras.ErrDuplicateStep))
			Expect(ex.Steps()).To(HaveLen(2))

			Expect(ex.AddOperatorStep(op, 1, operator.Post, "modify_mass_again")).To(Succeed())
			Expect(ex.Steps()).To(HaveLen(3))
		})
	})

	Describe("explicit steps", func() {
		It("rejects negative and non-finite fractions", func() {
			op, _ := ex.LoadOperator("modify_mass")
			Expect(ex.AddOperatorStep(op, -0.5, operator.Pre, "")).To(MatchError(extras.ErrInvalidStepFraction))
			Expect(ex.AddOperatorStep(op, math.NaN(), operator.Pre, "")).To(MatchError(extras.ErrInvalidStepFraction))
			Expect(ex.AddOperatorStep(op, math.Inf(1), operator.Pre, "")).To(MatchError(extras.ErrInvalidStepFraction))
			Expect(ex.AddOperatorStep(nil, 1, operator.Pre, "")).To(MatchError(operator.ErrInvalidOperator))
			Expect(ex.Steps()).To(BeEmpty())
		})

		It("never invokes a zero-fraction step", func() {
			r := &recorder{}
			Expect(ex.AddOperatorStep(r.op(ex, "idle"), 0, operator.Pre, "")).To(Succeed())

			for i := 0; i < 10; i++ {
				Expect(s.Step()).To(Succeed())
			}
			Expect(r.calls).To(BeEmpty())
		})

		It("runs pre then post steps in registration order", func() {
			r := &recorder{}
			Expect(ex.AddOperatorStep(r.op(ex, "a"), 1, operator.Post, "")).To(Succeed())
			Expect(ex.AddOperatorStep(r.op(ex, "b"), 0.25, operator.Pre, "")).To(Succeed())
			Expect(ex.AddOperatorStep(r.op(ex, "c"), 0.5, operator.Post, "")).To(Succeed())
			Expect(ex.AddOperatorStep(r.op(ex, "d"), 1, operator.Pre, "")).To(Succeed())

			Expect(s.Step()).To(Succeed())
			Expect(r.calls).To(Equal([]string{"b", "d", "a", "c"}))
			Expect(r.dts[0]).To(BeNumerically("~", 0.025, 1e-15))
			Expect(r.dts[1]).To(BeNumerically("~", 0.1, 1e-15))
			Expect(r.dts[2]).To(BeNumerically("~", 0.1, 1e-15))
			Expect(r.dts[3]).To(BeNumerically("~", 0.05, 1e-15))
		})

		It("passes the shortened final step to post steps", func() {
			r := &recorder{}
			Expect(ex.AddOperatorStep(r.op(ex, "tail"), 1, operator.Post, "")).To(Succeed())

			Expect(s.Integrate(context.Background(), 0.25)).To(Succeed())
			Expect(r.dts).To(HaveLen(3))
			Expect(r.dts[2]).To(BeNumerically("~", 0.05, 1e-12))
			Expect(s.Dt).To(Equal(0.1))
		})

		It("removes both halves of a split operator", func() {
			op, _ := ex.LoadOperator("modify_mass")
			r := &recorder{}
			Expect(ex.AddOperator(op)).To(Succeed())
			Expect(ex.AddOperatorStep(r.op(ex, "keep"), 1, operator.Post, "")).To(Succeed())

			Expect(ex.RemoveOperator("modify_mass")).To(Succeed())
			Expect(ex.Steps()).To(HaveLen(1))
			Expect(ex.Steps()[0].Name).To(Equal("keep"))
			Expect(ex.RemoveOperator("modify_mass")).To(MatchError(operator.ErrUnknownOperator))
		})
	})

	Describe("concurrent modification", func() {
		It("rejects schedule changes from inside an update", func() {
			var addErr, removeErr, detachErr error
			other, _ := ex.LoadOperator("mass_loss_test")
			op, err := ex.RegisterOperator("meddler", func(operator.Context, *operator.Operator, float64) error {
				addErr = ex.AddOperator(other)
				removeErr = ex.RemoveOperator("meddler")
				detachErr = ex.Detach()
				return nil
			}, operator.Metadata{Symmetry: operator.Asymmetric})
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.AddOperator(op)).To(Succeed())

			Expect(s.Step()).To(Succeed())
			Expect(addErr).To(MatchError(extras.ErrConcurrentModification))
			Expect(removeErr).To(MatchError(extras.ErrConcurrentModification))
			Expect(detachErr).To(MatchError(extras.ErrConcurrentModification))
			Expect(ex.Steps()).To(HaveLen(1))

			Expect(ex.AddOperator(other)).To(Succeed())
		})

		It("keeps the guard up after a nested host step", func() {
			var depth int
			var addErr error
			other, _ := ex.LoadOperator("mass_loss_test")
			op, err := ex.RegisterOperator("nested", func(operator.Context, *operator.Operator, float64) error {
				depth++
				defer func() { depth-- }()
				if depth > 1 {
					return nil
				}
				if err := s.Step(); err != nil {
					return err
				}
				addErr = ex.AddOperatorStep(other, 1, operator.Post, "")
				return nil
			}, operator.Metadata{Symmetry: operator.Asymmetric})
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.AddOperator(op)).To(Succeed())

			Expect(s.Step()).To(Succeed())
			Expect(addErr).To(MatchError(extras.ErrConcurrentModification))
			Expect(ex.Steps()).To(HaveLen(1))

			Expect(ex.AddOperatorStep(other, 1, operator.Post, "")).To(Succeed())
		})
	})

	Describe("step failures", func() {
		It("aborts the boundary and halts the host", func() {
			boom := errors.New("boom")
			r := &recorder{}
			failing, err := ex.RegisterOperator("failing", func(operator.Context, *operator.Operator, float64) error {
				return boom
			}, operator.Metadata{})
			Expect(err).NotTo(HaveOccurred())

			Expect(ex.AddOperatorStep(failing, 1, operator.Post, "")).To(Succeed())
			Expect(ex.AddOperatorStep(r.op(ex, "after"), 1, operator.Post, "")).To(Succeed())

			err = s.Integrate(context.Background(), 1)
			Expect(err).To(MatchError(boom))
			Expect(r.calls).To(BeEmpty())
			Expect(s.Steps()).To(Equal(1))

			var stepErr *extras.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal("failing"))
			Expect(stepErr.Timing).To(Equal(operator.Post))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(1))
		})

		It("leaves masses untouched on a numeric domain error", func() {
			op, _ := ex.LoadOperator("modify_mass")
			Expect(ex.AddOperator(op)).To(Succeed())
			Expect(ex.SetParamFloat64(params.Particle(0), operator.TauMass, -10)).To(Succeed())
			Expect(ex.SetParamFloat64(params.Particle(1), operator.TauMass, 0)).To(Succeed())

			Expect(s.Step()).To(MatchError(operator.ErrNumericDomain))
			Expect(s.Particles[0].M).To(Equal(1.0))
			Expect(s.T).To(Equal(0.0))
		})
	})

	Describe("parameters", func() {
		It("validates particle targets against the simulation", func() {
			Expect(ex.SetParamFloat64(params.Particle(2), operator.TauMass, -1)).To(MatchError(sim.ErrParticleIndex))
			Expect(ex.SetParamFloat64(params.Particle(-1), operator.TauMass, -1)).To(MatchError(params.ErrInvalidTarget))
			Expect(ex.SetParam(params.Global(), "label", params.String("run"))).To(Succeed())

			Expect(ex.SetParamFloat64(params.Particle(1), operator.TauMass, -1000)).To(Succeed())
			tau, ok, err := ex.ParamFloat64(params.Particle(1), operator.TauMass)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(tau).To(Equal(-1000.0))

			v, ok := ex.GetParam(params.Global(), "label")
			Expect(ok).To(BeTrue())
			Expect(v.String()).To(Equal("run"))

			_, ok, err = ex.ParamFloat64(params.Particle(0), operator.TauMass)
			Expect(ok).To(BeFalse())
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("mass change through the host", func() {
		It("changes only particles with tau_mass", func() {
			op, _ := ex.LoadOperator("modify_mass")
			Expect(ex.AddOperator(op)).To(Succeed())
			s.Particles[1].M = 0.01
			Expect(ex.SetParamFloat64(params.Particle(1), operator.TauMass, -1000)).To(Succeed())

			Expect(s.Step()).To(Succeed())
			Expect(s.Particles[0].M).To(Equal(1.0))
			Expect(s.Particles[1].M).To(BeNumerically("~", 0.01*math.Exp(-0.1/1000), 1e-17))
		})

		DescribeTable("converges to the analytic mass for any step size",
			func(integ dynamo.Integrator, dt float64) {
				host := newSim(integ, sim.WithDt(dt))
				ctx, err := extras.Attach(host)
				Expect(err).NotTo(HaveOccurred())
				op, _ := ctx.LoadOperator("modify_mass")
				Expect(ctx.AddOperator(op)).To(Succeed())
				Expect(ctx.SetParamFloat64(params.Particle(0), operator.TauMass, -100)).To(Succeed())

				Expect(host.Integrate(context.Background(), 10)).To(Succeed())
				want := math.Exp(host.T / -100)
				Expect(host.Particles[0].M).To(BeNumerically("~", want, 1e-12))
				Expect(host.T).To(BeNumerically("~", 10, 1e-9))
			},
			Entry("leapfrog dt=0.1", integrators.NewLeapfrog(), 0.1),
			Entry("leapfrog dt=0.003", integrators.NewLeapfrog(), 0.003),
			Entry("rk4 dt=0.05", integrators.NewRK4(), 0.05),
			Entry("euler dt=0.02", integrators.NewEuler(), 0.02),
		)

		It("is time reversible when split around leapfrog", func() {
			op, _ := ex.LoadOperator("modify_mass")
			Expect(ex.AddOperator(op)).To(Succeed())
			Expect(ex.SetParamFloat64(params.Particle(0), operator.TauMass, -5)).To(Succeed())

			start := append([]physics.Particle(nil), s.Particles...)
			Expect(s.Integrate(context.Background(), 2)).To(Succeed())
			Expect(s.Particles[0].M).To(BeNumerically("<", 0.7))

			Expect(s.Integrate(context.Background(), 0)).To(Succeed())
			for i := range start {
				Expect(s.Particles[i].M).To(BeNumerically("~", start[i].M, 1e-12))
				Expect(s.Particles[i].X).To(BeNumerically("~", start[i].X, 1e-9))
				Expect(s.Particles[i].Y).To(BeNumerically("~", start[i].Y, 1e-9))
				Expect(s.Particles[i].VX).To(BeNumerically("~", start[i].VX, 1e-9))
				Expect(s.Particles[i].VY).To(BeNumerically("~", start[i].VY, 1e-9))
			}
		})

		It("drains mass linearly down to the floor", func() {
			op, _ := ex.LoadOperator("mass_loss_test")
			Expect(ex.AddOperator(op)).To(Succeed())
			Expect(ex.SetParamFloat64(params.Particle(0), operator.MassLossRate, 0.00001)).To(Succeed())
			Expect(ex.SetParamFloat64(params.Particle(0), operator.MassFloor, 0.01)).To(Succeed())

			lowest := math.Inf(1)
			s.SetHeartbeat(func(h *sim.Simulation) {
				lowest = math.Min(lowest, h.Particles[0].M)
				if h.Steps() == 99000 {
					Expect(h.Particles[0].M).To(Equal(0.01))
				}
			})

			Expect(s.Integrate(context.Background(), 10000)).To(Succeed())
			Expect(s.Particles[0].M).To(Equal(0.01))
			Expect(lowest).To(Equal(0.01))
		})
	})
})
