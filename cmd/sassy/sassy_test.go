package sassycmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	sassycmder "github.com/papercomputeco/sassy/cmd/sassy"
)

var _ = Describe("sassy root command", func() {
	It("registers every subcommand", func() {
		cmd := sassycmder.NewSassyCmd()

		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "remember", "recall", "nourish", "config", "version"))
	})

	It("carries the global flags", func() {
		cmd := sassycmder.NewSassyCmd()
		for _, name := range []string{"debug", "pretty", "config-dir"} {
			Expect(cmd.PersistentFlags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.PersistentFlags().ShorthandLookup("d").Name).To(Equal("debug"))
	})

	It("gives serve its store and nourish flags", func() {
		cmd := sassycmder.NewSassyCmd()
		serve, _, err := cmd.Find([]string{"serve"})
		Expect(err).NotTo(HaveOccurred())

		for _, name := range []string{"listen", "nourish", "delay", "seed", "embedding-provider", "vector-store-provider"} {
			Expect(serve.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("rejects stray arguments to serve", func() {
		cmd := sassycmder.NewSassyCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"serve", "extra"})
		Expect(cmd.Execute()).To(HaveOccurred())
	})

	It("prints the version", func() {
		cmd := sassycmder.NewSassyCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs([]string{"version"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).NotTo(BeEmpty())
	})
})
