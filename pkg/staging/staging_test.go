package staging_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/staging"
)

func TestStaging(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Staging Suite")
}

var _ = Describe("Stager", func() {
	var stager *staging.Stager

	BeforeEach(func() {
		var err error
		stager, err = staging.NewStager(filepath.Join(GinkgoT().TempDir(), "staging"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewStager", func() {
		It("creates the directory", func() {
			info, err := os.Stat(stager.Dir())
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("requires a directory", func() {
			_, err := staging.NewStager("")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Stage", func() {
		It("writes the statement to an owner-tagged artifact", func() {
			path, err := stager.Stage("alice", "I love gardening")
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("I love gardening"))
			Expect(filepath.Base(path)).To(HavePrefix("alice__"))
			Expect(path).To(HaveSuffix(".txt"))
		})

		It("rejects owner ids containing the separator", func() {
			_, err := stager.Stage("bad__owner", "text")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Pending and Purge", func() {
		BeforeEach(func() {
			_, err := stager.Stage("alice", "one")
			Expect(err).NotTo(HaveOccurred())
			_, err = stager.Stage("alice", "two")
			Expect(err).NotTo(HaveOccurred())
			_, err = stager.Stage("bob", "other")
			Expect(err).NotTo(HaveOccurred())
		})

		It("lists only the owner's artifacts", func() {
			paths, err := stager.Pending("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(HaveLen(2))
		})

		It("purges only the owner's artifacts", func() {
			purged, err := stager.Purge("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(purged).To(Equal(2))

			remaining, err := stager.Pending("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(BeEmpty())

			others, err := stager.Pending("bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(others).To(HaveLen(1))
		})
	})
})

var _ = Describe("Watcher", func() {
	var (
		stager   *staging.Stager
		mu       sync.Mutex
		ingested map[string][]string
		failNext bool
	)

	ingest := func(_ context.Context, ownerID, text string) error {
		mu.Lock()
		defer mu.Unlock()
		if failNext {
			return errors.New("store unavailable")
		}
		ingested[ownerID] = append(ingested[ownerID], text)
		return nil
	}

	ingestedFor := func(owner string) func() []string {
		return func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), ingested[owner]...)
		}
	}

	BeforeEach(func() {
		ingested = make(map[string][]string)
		failNext = false

		var err error
		stager, err = staging.NewStager(filepath.Join(GinkgoT().TempDir(), "staging"))
		Expect(err).NotTo(HaveOccurred())
	})

	runWatcher := func() (*staging.Watcher, context.CancelFunc) {
		watcher, err := staging.NewWatcher(stager, ingest, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		go watcher.Run(ctx)
		return watcher, cancel
	}

	It("sweeps artifacts staged before it started", func() {
		_, err := stager.Stage("alice", "I love gardening")
		Expect(err).NotTo(HaveOccurred())

		watcher, cancel := runWatcher()
		defer watcher.Close()
		defer cancel()

		Eventually(ingestedFor("alice"), time.Second).Should(ContainElement("I love gardening"))
		Eventually(func() ([]string, error) { return stager.Pending("alice") }, time.Second).Should(BeEmpty())
	})

	It("ingests artifacts dropped while running", func() {
		watcher, cancel := runWatcher()
		defer watcher.Close()
		defer cancel()

		// Give the watch loop a beat to register before dropping files.
		time.Sleep(50 * time.Millisecond)

		_, err := stager.Stage("alice", "my sister lives in Portland")
		Expect(err).NotTo(HaveOccurred())

		Eventually(ingestedFor("alice"), 2*time.Second).Should(ContainElement("my sister lives in Portland"))
	})

	It("leaves artifacts staged when ingestion fails", func() {
		failNext = true
		_, err := stager.Stage("alice", "I love gardening")
		Expect(err).NotTo(HaveOccurred())

		watcher, cancel := runWatcher()
		defer watcher.Close()
		defer cancel()

		Consistently(func() ([]string, error) { return stager.Pending("alice") }, 300*time.Millisecond).Should(HaveLen(1))
	})

	It("drops empty artifacts without ingesting them", func() {
		path := filepath.Join(stager.Dir(), "alice__manual.txt")
		Expect(os.WriteFile(path, []byte("   \n"), 0o644)).To(Succeed())

		watcher, cancel := runWatcher()
		defer watcher.Close()
		defer cancel()

		Eventually(func() ([]string, error) { return stager.Pending("alice") }, time.Second).Should(BeEmpty())
		Consistently(ingestedFor("alice"), 200*time.Millisecond).Should(BeEmpty())
	})
})
