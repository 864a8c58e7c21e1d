package restate_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keepsakehq/keepsake/pkg/restate"
)

func TestRestate(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Restate Suite")
}

var _ = Describe("Restater", func() {
	var r *restate.Restater

	BeforeEach(func() {
		r = restate.NewRestater("Alice")
	})

	Describe("NewRestater", func() {
		It("falls back to a generic subject", func() {
			Expect(restate.NewRestater("  ").Subject()).To(Equal("the user"))
		})

		It("keeps the given subject", func() {
			Expect(r.Subject()).To(Equal("Alice"))
		})
	})

	Describe("ToThirdPerson", func() {
		It("rewrites the bare pronoun", func() {
			Expect(r.ToThirdPerson("I love gardening")).To(Equal("Alice love gardening"))
		})

		It("handles auxiliary agreement", func() {
			Expect(r.ToThirdPerson("I am allergic to penicillin")).To(Equal("Alice is allergic to penicillin"))
			Expect(r.ToThirdPerson("I have two cats")).To(Equal("Alice has two cats"))
			Expect(r.ToThirdPerson("I was a teacher")).To(Equal("Alice was a teacher"))
		})

		It("expands contractions", func() {
			Expect(r.ToThirdPerson("I'm retired")).To(Equal("Alice is retired"))
			Expect(r.ToThirdPerson("I've been to Japan")).To(Equal("Alice has been to Japan"))
			Expect(r.ToThirdPerson("I'll call tomorrow")).To(Equal("Alice will call tomorrow"))
		})

		It("rewrites possessives", func() {
			Expect(r.ToThirdPerson("my sister visits me")).To(Equal("Alice's sister visits Alice"))
		})

		It("is case-insensitive on the pronoun", func() {
			Expect(r.ToThirdPerson("i am happy")).To(Equal("Alice is happy"))
		})

		It("respects word boundaries", func() {
			// "i" inside words must never be rewritten.
			Expect(r.ToThirdPerson("the train is late")).To(Equal("the train is late"))
			Expect(r.ToThirdPerson("mystery novels")).To(Equal("mystery novels"))
		})

		It("leaves third-person text alone", func() {
			Expect(r.ToThirdPerson("Bob lives next door")).To(Equal("Bob lives next door"))
		})
	})

	Describe("ToSecondPerson", func() {
		It("rewrites the subject to you", func() {
			Expect(r.ToSecondPerson("Alice was a teacher")).To(Equal("you were a teacher"))
			Expect(r.ToSecondPerson("Alice has two cats")).To(Equal("you have two cats"))
		})

		It("rewrites possessives", func() {
			Expect(r.ToSecondPerson("Alice's sister lives nearby")).To(Equal("your sister lives nearby"))
		})

		It("leaves other names alone", func() {
			Expect(r.ToSecondPerson("Bob has two cats")).To(Equal("Bob has two cats"))
		})
	})

	Describe("round trip", func() {
		It("carries first person to second person through storage form", func() {
			stored := r.ToThirdPerson("I am happy and my dog is old")
			Expect(stored).To(Equal("Alice is happy and Alice's dog is old"))

			Expect(r.ToSecondPerson(stored)).To(Equal("you are happy and your dog is old"))
		})
	})
})
