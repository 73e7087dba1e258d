package orchestra

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/orchestra/tsch"
)

var _ = Describe("Config", func() {
	It("should accept the defaults", func() {
		Expect(DefaultConfig().Validate()).To(Succeed())
	})

	DescribeTable("should reject broken settings",
		func(mutate func(c *Config)) {
			c := DefaultConfig()
			mutate(&c)

			Expect(c.Validate()).NotTo(Succeed())
		},
		Entry("zero period", func(c *Config) { c.UnicastPeriod = 0 }),
		Entry("empty channel range", func(c *Config) {
			c.MinChannelOffset = 3
			c.MaxChannelOffset = 2
		}),
		Entry("single channel", func(c *Config) { c.HoppingSequenceLength = 1 }),
		Entry("small max class", func(c *Config) { c.MaxClass = 2 }),
		Entry("zero subtree threshold", func(c *Config) { c.SubtreeThreshold = 0 }),
		Entry("zero sample interval", func(c *Config) { c.SampleInterval = 0 }),
		Entry("no neighbors", func(c *Config) { c.MaxNeighbors = 0 }),
		Entry("unknown policy", func(c *Config) { c.EpochPolicy = 9 }),
	)

	It("should parse epoch policies", func() {
		p, err := ParseEpochPolicy("patch")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(EpochPolicyConditionalPatch))

		p, err = ParseEpochPolicy(EpochPolicyFullRebuild.String())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(EpochPolicyFullRebuild))

		_, err = ParseEpochPolicy("lazy")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Builder", func() {
	It("should refuse to build without collaborators", func() {
		Expect(func() {
			MakeBuilder().WithAddr(tsch.NodeAddr(1)).Build("Rule")
		}).To(Panic())

		Expect(func() {
			MakeBuilder().
				WithAddr(tsch.NullAddr).
				WithSchedule(tsch.NewSchedule()).
				Build("Rule")
		}).To(Panic())
	})
})
