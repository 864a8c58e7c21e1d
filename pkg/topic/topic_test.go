package topic_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keepsakehq/keepsake/pkg/topic"
)

func TestTopic(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Topic Suite")
}

var _ = Describe("Classifier", func() {
	var classifier *topic.Classifier

	BeforeEach(func() {
		classifier = topic.NewClassifier(nil)
	})

	Describe("Classify", func() {
		It("labels text by keyword", func() {
			Expect(classifier.Classify("my sister lives nearby")).To(Equal([]string{"family"}))
		})

		It("is case-insensitive", func() {
			Expect(classifier.Classify("My SISTER lives nearby")).To(Equal([]string{"family"}))
		})

		It("returns multiple topics sorted", func() {
			topics := classifier.Classify("I went to the doctor with my mom")
			Expect(topics).To(Equal([]string{"family", "health"}))
		})

		It("matches multi-word phrases", func() {
			Expect(classifier.Classify("we had ice cream after dinner")).To(Equal([]string{"food"}))
		})

		It("requires word boundaries", func() {
			// "collect" must not fire inside "collection agency called".
			Expect(classifier.Classify("scattered thoughts")).To(BeEmpty())
			Expect(classifier.Classify("I beached the boat")).To(BeEmpty())
		})

		It("returns nothing for unclassifiable text", func() {
			Expect(classifier.Classify("the sky was gray today")).To(BeEmpty())
		})
	})

	Describe("Expand", func() {
		It("expands a topic label to itself plus its keywords", func() {
			expanded := classifier.Expand("pets")
			Expect(expanded).To(ContainElements("pets", "dog", "cat", "puppy"))
		})

		It("expands a keyword to its topic and sibling keywords", func() {
			expanded := classifier.Expand("education")
			Expect(expanded).To(ContainElements("education", "academic", "school", "university"))
		})

		It("always includes the input term", func() {
			Expect(classifier.Expand("quantum")).To(Equal([]string{"quantum"}))
		})

		It("lowercases the input", func() {
			Expect(classifier.Expand("Mom")).To(ContainElements("mom", "family", "sister"))
		})

		It("returns sorted, deduplicated results", func() {
			expanded := classifier.Expand("family")
			seen := map[string]bool{}
			for i, term := range expanded {
				Expect(seen[term]).To(BeFalse(), "duplicate term %q", term)
				seen[term] = true
				if i > 0 {
					Expect(expanded[i-1] < term).To(BeTrue(), "not sorted at %q", term)
				}
			}
		})

		It("returns nil for empty input", func() {
			Expect(classifier.Expand("  ")).To(BeNil())
		})
	})

	Describe("custom rules", func() {
		It("classifies with a caller-supplied table", func() {
			c := topic.NewClassifier(map[string][]string{
				"astronomy": {"telescope", "nebula"},
			})
			Expect(c.Classify("I bought a telescope")).To(Equal([]string{"astronomy"}))
			Expect(c.Classify("my sister lives nearby")).To(BeEmpty())
		})
	})
})

var _ = Describe("LoadRules", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "topic-rules-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("loads a TOML rule table", func() {
		path := filepath.Join(tmpDir, "rules.toml")
		data := `[topics]
astronomy = ["telescope", "nebula"]
sailing = ["boat", "harbor"]
`
		Expect(os.WriteFile(path, []byte(data), 0o644)).To(Succeed())

		rules, err := topic.LoadRules(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rules).To(HaveLen(2))
		Expect(rules["astronomy"]).To(Equal([]string{"telescope", "nebula"}))
	})

	It("rejects a rule file with no topics", func() {
		path := filepath.Join(tmpDir, "empty.toml")
		Expect(os.WriteFile(path, []byte(""), 0o644)).To(Succeed())

		_, err := topic.LoadRules(path)
		Expect(err).To(HaveOccurred())
	})

	It("errors on a missing file", func() {
		_, err := topic.LoadRules(filepath.Join(tmpDir, "nope.toml"))
		Expect(err).To(HaveOccurred())
	})
})
