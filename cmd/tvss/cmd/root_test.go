package cmd

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"
)

var _ = Describe("Environment", func() {
	var flags *pflag.FlagSet

	BeforeEach(func() {
		flags = pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Int("send-interval", 6, "")
		flags.String("topology", "grid:3x3", "")
	})

	It("should name variables after flags", func() {
		Expect(envName("send-interval")).To(Equal("TVSS_SEND_INTERVAL"))
	})

	It("should set flags from the environment", func() {
		GinkgoT().Setenv("TVSS_TOPOLOGY", "line:4")

		Expect(applyEnv(flags)).To(Succeed())

		v, _ := flags.GetString("topology")
		Expect(v).To(Equal("line:4"))
	})

	It("should keep flags given on the command line", func() {
		GinkgoT().Setenv("TVSS_TOPOLOGY", "line:4")
		Expect(flags.Parse([]string{"--topology", "grid:2x2"})).To(Succeed())

		Expect(applyEnv(flags)).To(Succeed())

		v, _ := flags.GetString("topology")
		Expect(v).To(Equal("grid:2x2"))
	})

	It("should report values that do not parse", func() {
		GinkgoT().Setenv("TVSS_SEND_INTERVAL", "soon")

		Expect(applyEnv(flags)).To(MatchError(ContainSubstring(
			"TVSS_SEND_INTERVAL")))
	})

	It("should load variables from a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "test.env")
		Expect(os.WriteFile(path, []byte("TVSS_TEST_LOADED=yes\n"), 0o600)).
			To(Succeed())
		DeferCleanup(os.Unsetenv, "TVSS_TEST_LOADED")

		Expect(loadEnvFile(path)).To(Succeed())

		Expect(os.Getenv("TVSS_TEST_LOADED")).To(Equal("yes"))
	})

	It("should ignore a missing env file", func() {
		Expect(loadEnvFile(filepath.Join(GinkgoT().TempDir(), "none"))).
			To(Succeed())
	})
})
