package memorycmder

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/config"
	"github.com/keepsakehq/keepsake/pkg/engine"
	"github.com/keepsakehq/keepsake/pkg/logger"
	"github.com/keepsakehq/keepsake/pkg/record"
)

func TestMemoryCmder(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Memory Cmder Suite")
}

var _ = Describe("remember", func() {
	var (
		ctx   context.Context
		eng   *engine.Engine
		cmder *memoryCommander
		alice *record.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg := config.NewDefaultConfig()
		cfg.Storage.Provider = "inmemory"

		var err error
		eng, err = engine.Build(ctx, cfg, GinkgoT().TempDir(), zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(eng.Close()).To(Succeed()) })

		cmder = &memoryCommander{
			userID:         "alice",
			cognitiveState: 50,
			pretty:         logger.NewPretty(false),
		}
		alice = &record.User{ID: "alice"}
	})

	It("honors an explicit --confidence of zero", func() {
		err := runRemember(ctx, eng, cmder, "I might have left the oven on", 0, true, "")
		Expect(err).NotTo(HaveOccurred())

		records, err := eng.Coordinator.GetAll(ctx, alice)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Confidence).To(BeZero())
	})

	It("defers to cognitive state when --confidence is not passed", func() {
		err := runRemember(ctx, eng, cmder, "I might have left the oven on", 0, false, "")
		Expect(err).NotTo(HaveOccurred())

		records, err := eng.Coordinator.GetAll(ctx, alice)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Confidence).To(Equal(0.5))
	})

	It("rejects an out-of-range --confidence without storing", func() {
		err := runRemember(ctx, eng, cmder, "I might have left the oven on", -0.2, true, "")
		Expect(err).NotTo(HaveOccurred())

		records, err := eng.Coordinator.GetAll(ctx, alice)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())
	})
})
