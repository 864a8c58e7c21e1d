package dedup_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keepsakehq/keepsake/pkg/dedup"
)

func TestDedup(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dedup Suite")
}

var _ = Describe("Detector", func() {
	var detector *dedup.Detector

	BeforeEach(func() {
		detector = dedup.NewDetector(dedup.Config{})
	})

	Describe("NewDetector", func() {
		It("applies defaults for zero config fields", func() {
			Expect(detector.Window()).To(Equal(dedup.DefaultWindow))
		})

		It("keeps explicit config values", func() {
			d := dedup.NewDetector(dedup.Config{Window: 10})
			Expect(d.Window()).To(Equal(10))
		})
	})

	Describe("Normalize", func() {
		It("lowercases and collapses whitespace", func() {
			Expect(dedup.Normalize("  I   LOVE\tPizza ")).To(Equal("i love pizza"))
		})

		It("leaves already normalized text unchanged", func() {
			Expect(dedup.Normalize("i love pizza")).To(Equal("i love pizza"))
		})
	})

	Describe("Check", func() {
		It("finds nothing against an empty history", func() {
			match := detector.Check("I love gardening", nil)
			Expect(match.Found).To(BeFalse())
		})

		It("flags an exact duplicate", func() {
			match := detector.Check("I love gardening", []string{"I love gardening"})
			Expect(match.Found).To(BeTrue())
			Expect(match.Exact).To(BeTrue())
			Expect(match.Score).To(Equal(1.0))
			Expect(match.MatchedText).To(Equal("I love gardening"))
		})

		It("flags an exact duplicate despite case and spacing differences", func() {
			match := detector.Check("  i LOVE   gardening ", []string{"I love gardening"})
			Expect(match.Found).To(BeTrue())
			Expect(match.Exact).To(BeTrue())
		})

		It("prefers the exact tier over the semantic tier", func() {
			recent := []string{"I really love gardening a lot", "I love gardening"}
			match := detector.Check("I love gardening", recent)
			Expect(match.Exact).To(BeTrue())
			Expect(match.MatchedText).To(Equal("I love gardening"))
		})

		It("only examines the configured window", func() {
			d := dedup.NewDetector(dedup.Config{Window: 1})
			recent := []string{"I enjoy tea in the morning", "I love gardening"}
			match := d.Check("I love gardening", recent)
			Expect(match.Found).To(BeFalse())
		})

		It("reports the best score when below the threshold", func() {
			match := detector.Check("I love halloween", []string{"I love vanilla ice cream"})
			Expect(match.Found).To(BeFalse())
			Expect(match.Score).To(BeNumerically(">", 0))
			Expect(match.Score).To(BeNumerically("<", dedup.DefaultThreshold))
		})

		It("flags a semantic duplicate above the threshold", func() {
			match := detector.Check("my sister Anna lives in Portland", []string{"My sister Anna lives in Portland now"})
			Expect(match.Found).To(BeTrue())
			Expect(match.Exact).To(BeFalse())
			Expect(match.Score).To(BeNumerically(">=", dedup.DefaultThreshold))
		})
	})

	Describe("Similarity", func() {
		It("scores identical statements as 1.0", func() {
			Expect(detector.Similarity("I love halloween", "I love halloween")).To(Equal(1.0))
		})

		It("scores disjoint statements as 0", func() {
			Expect(detector.Similarity("cats purr", "the weather turned cold")).To(BeZero())
		})

		It("is symmetric", func() {
			a, b := "I love halloween", "I love vanilla ice cream"
			Expect(detector.Similarity(a, b)).To(Equal(detector.Similarity(b, a)))
		})

		It("does not boost short phrases that only share stop words and one content token", func() {
			// Shared "I love" must not make different preferences duplicates.
			score := detector.Similarity("I love halloween", "I love vanilla ice cream")
			Expect(score).To(BeNumerically("~", 0.44, 0.01))
			Expect(score).To(BeNumerically("<", dedup.DefaultThreshold))
		})

		It("boosts short phrases whose content tokens cover both sides", func() {
			score := detector.Similarity("love halloween", "I really do love halloween")
			Expect(score).To(BeNumerically(">=", dedup.DefaultThreshold))
		})

		It("returns 0 when either side is empty", func() {
			Expect(detector.Similarity("", "I love halloween")).To(BeZero())
			Expect(detector.Similarity("I love halloween", "")).To(BeZero())
		})
	})
})
