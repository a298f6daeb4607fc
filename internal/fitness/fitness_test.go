package fitness_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/kinfit/internal/fitness"
)

var _ = Describe("CaseError", func() {
	It("is log10 of the ratio", func() {
		Expect(fitness.CaseError(2.0, 1.0)).To(BeNumerically("~", 0.30103, 1e-5))
		Expect(fitness.CaseError(1.0, 10.0)).To(BeNumerically("~", -1, 1e-12))
	})

	It("normalizes plug-flow errors", func() {
		Expect(fitness.PFRCaseError(100, 1)).To(BeNumerically("~", 2/fitness.PFRNormalization, 1e-12))
	})
})

var _ = Describe("Aggregate", func() {
	It("returns a zero summary for no cases", func() {
		s, err := fitness.Aggregate(nil, nil, 0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(fitness.Summary{}))
	})

	It("rejects mismatched uncertainties", func() {
		_, err := fitness.Aggregate([]float64{0.1, 0.2}, []float64{0.1}, 0.5)
		Expect(err).To(MatchError(fitness.ErrLength))
	})

	It("reports mean and max of absolute errors", func() {
		s, err := fitness.Aggregate([]float64{0.1, -0.3, 0.2}, nil, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Cases).To(Equal(3))
		Expect(s.Average).To(BeNumerically("~", 0.2, 1e-12))
		Expect(s.Max).To(BeNumerically("~", 0.3, 1e-12))
		Expect(s.Fitness).To(BeNumerically("~", 0.2, 1e-12))
	})

	It("ignores error within the measurement uncertainty", func() {
		// log10(1.2589) is about 0.1
		s, err := fitness.Aggregate([]float64{0.05, 0.3}, []float64{0.2589, 0.2589}, 0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Fitness).To(BeNumerically("~", 0.5*0.1+0.5*0.2, 1e-4))
	})

	DescribeTable("blends mean and max by the average rate",
		func(rate, want float64) {
			s, err := fitness.Aggregate([]float64{0, 0.4}, nil, rate)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Fitness).To(BeNumerically("~", want, 1e-12))
		},
		Entry("max only", 0.0, 0.4),
		Entry("even", 0.5, 0.3),
		Entry("mean only", 1.0, 0.2),
		Entry("clamped above one", 3.0, 0.2),
	)

	It("penalizes failed cases", func() {
		s, err := fitness.Aggregate([]float64{math.NaN(), math.Inf(-1), 0}, nil, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Max).To(Equal(fitness.FailurePenalty))
		Expect(math.IsNaN(s.Fitness)).To(BeFalse())
	})
})

var _ = Describe("Combine", func() {
	It("averages the two sweeps", func() {
		Expect(fitness.Combine(0.2, 0.4)).To(BeNumerically("~", 0.3, 1e-12))
	})
})
