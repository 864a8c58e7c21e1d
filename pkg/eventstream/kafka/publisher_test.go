package kafka_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/eventstream"
	"github.com/keepsakehq/keepsake/pkg/eventstream/kafka"
)

func TestKafka(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Kafka Publisher Suite")
}

var _ = Describe("Publisher", func() {
	It("requires at least one broker", func() {
		_, err := kafka.NewPublisher(kafka.Config{}, zap.NewNop())
		Expect(err).To(MatchError(ContainSubstring("broker")))
	})

	It("creates a publisher without contacting the brokers", func() {
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: []string{"localhost:9092"},
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).NotTo(BeNil())
		Expect(p.Close()).To(Succeed())
	})

	It("rejects a nil event before touching the wire", func() {
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: []string{"localhost:9092"},
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		err = p.PublishMemory(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilMemoryEvent))
	})
})
