package servecmder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestServeCmder(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Serve Cmder Suite")
}

var _ = Describe("opsLogger", func() {
	var (
		tmpDir string
		cmder  *ServeCommander
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		cmder = &ServeCommander{configDir: tmpDir}
	})

	It("tees lifecycle messages into a JSON log under the config dir", func() {
		ops, closeOps, err := cmder.opsLogger()
		Expect(err).NotTo(HaveOccurred())

		ops.Info("starting API server", "listen", ":8450")
		closeOps()

		raw, err := os.ReadFile(filepath.Join(tmpDir, serveLogName))
		Expect(err).NotTo(HaveOccurred())

		var line map[string]any
		Expect(json.Unmarshal(raw, &line)).To(Succeed())
		Expect(line["msg"]).To(Equal("starting API server"))
		Expect(line["listen"]).To(Equal(":8450"))
	})

	It("appends across restarts", func() {
		for range 2 {
			ops, closeOps, err := cmder.opsLogger()
			Expect(err).NotTo(HaveOccurred())
			ops.Info("starting API server")
			closeOps()
		}

		raw, err := os.ReadFile(filepath.Join(tmpDir, serveLogName))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring("starting API server"))

		lines := 0
		for _, b := range raw {
			if b == '\n' {
				lines++
			}
		}
		Expect(lines).To(Equal(2))
	})

	It("drops debug messages from the file at the default level", func() {
		ops, closeOps, err := cmder.opsLogger()
		Expect(err).NotTo(HaveOccurred())

		ops.Debug("noisy detail")
		closeOps()

		raw, err := os.ReadFile(filepath.Join(tmpDir, serveLogName))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).NotTo(ContainSubstring("noisy detail"))
	})
})
