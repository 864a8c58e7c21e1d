package confidence_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keepsakehq/keepsake/pkg/confidence"
	"github.com/keepsakehq/keepsake/pkg/record"
)

func TestConfidence(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Confidence Suite")
}

var _ = Describe("Resolve", func() {
	It("fully trusts proxy-authored records", func() {
		Expect(confidence.Resolve(true, confidence.Unset, nil)).To(Equal(1.0))
	})

	It("lets proxy provenance override an explicit value", func() {
		Expect(confidence.Resolve(true, 0.3, nil)).To(Equal(1.0))
	})

	It("takes an explicit value as-is", func() {
		Expect(confidence.Resolve(false, 0.6, nil)).To(Equal(0.6))
	})

	It("prefers an explicit value over cognitive state", func() {
		cs := 40
		user := &record.User{ID: "u1", CognitiveState: &cs}
		Expect(confidence.Resolve(false, 0.9, user)).To(Equal(0.9))
	})

	It("scales cognitive state to a fraction", func() {
		cs := 50
		user := &record.User{ID: "u1", CognitiveState: &cs}
		Expect(confidence.Resolve(false, confidence.Unset, user)).To(Equal(0.5))
	})

	It("defaults to 1.0 with no signals", func() {
		Expect(confidence.Resolve(false, confidence.Unset, &record.User{ID: "u1"})).To(Equal(1.0))
		Expect(confidence.Resolve(false, confidence.Unset, nil)).To(Equal(1.0))
	})

	It("accepts explicit zero as full distrust", func() {
		Expect(confidence.Resolve(false, 0, nil)).To(Equal(0.0))
	})
})

var _ = Describe("Valid", func() {
	It("accepts the sentinel", func() {
		Expect(confidence.Valid(confidence.Unset)).To(BeTrue())
	})

	It("accepts values inside [0, 1]", func() {
		Expect(confidence.Valid(0)).To(BeTrue())
		Expect(confidence.Valid(0.5)).To(BeTrue())
		Expect(confidence.Valid(1)).To(BeTrue())
	})

	It("rejects values outside [0, 1]", func() {
		Expect(confidence.Valid(-0.5)).To(BeFalse())
		Expect(confidence.Valid(1.5)).To(BeFalse())
	})
})
