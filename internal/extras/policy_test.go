package extras_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodyx/internal/dynamo"
	"github.com/san-kum/nbodyx/internal/extras"
	"github.com/san-kum/nbodyx/internal/operator"
)

var _ = Describe("Policy", func() {
	half := extras.Placement{Pre: 0.5, Post: 0.5}
	post := extras.Placement{Post: 1}

	DescribeTable("default placement",
		func(sym operator.Symmetry, stepping dynamo.Stepping, want extras.Placement) {
			Expect(extras.DefaultPolicy().Lookup(sym, stepping)).To(Equal(want))
		},
		Entry("symmetric, symplectic", operator.Symmetric, dynamo.SteppingSymplectic, half),
		Entry("symmetric, fixed", operator.Symmetric, dynamo.SteppingFixed, half),
		Entry("symmetric, adaptive", operator.Symmetric, dynamo.SteppingAdaptive, post),
		Entry("asymmetric, symplectic", operator.Asymmetric, dynamo.SteppingSymplectic, post),
		Entry("asymmetric, fixed", operator.Asymmetric, dynamo.SteppingFixed, post),
		Entry("asymmetric, adaptive", operator.Asymmetric, dynamo.SteppingAdaptive, post),
	)

	It("overrides a single cell", func() {
		p := extras.DefaultPolicy()
		Expect(p.Set(operator.Symmetric, dynamo.SteppingAdaptive, half)).To(Succeed())

		Expect(p.Lookup(operator.Symmetric, dynamo.SteppingAdaptive)).To(Equal(half))
		Expect(p.Lookup(operator.Asymmetric, dynamo.SteppingAdaptive)).To(Equal(post))
		Expect(extras.DefaultPolicy().Lookup(operator.Symmetric, dynamo.SteppingAdaptive)).To(Equal(post))
	})

	It("rejects invalid fractions", func() {
		p := extras.DefaultPolicy()
		Expect(p.Set(operator.Symmetric, dynamo.SteppingFixed, extras.Placement{Pre: -0.5, Post: 1})).
			To(MatchError(extras.ErrInvalidStepFraction))
		Expect(p.Set(operator.Symmetric, dynamo.SteppingFixed, extras.Placement{Post: math.NaN()})).
			To(MatchError(extras.ErrInvalidStepFraction))
		Expect(p.Lookup(operator.Symmetric, dynamo.SteppingFixed)).To(Equal(half))
	})
})
