package nourishcmder

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	testutils "github.com/papercomputeco/sassy/pkg/utils/test"
	"github.com/papercomputeco/sassy/pkg/websearch"
)

const longSummary = "Roma fue fundada según la tradición en el año 753 antes de Cristo a orillas del río Tíber."

var _ = Describe("nourish command", func() {
	var (
		tmpDir   string
		out      *bytes.Buffer
		searcher *testutils.MockSearcher
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "sassy", SilenceUsage: true}
		root.PersistentFlags().String("config-dir", "", "")
		root.PersistentFlags().BoolP("debug", "d", false, "")
		root.PersistentFlags().Bool("pretty", false, "")
		root.AddCommand(newNourishCmd(&nourishCommander{searcher: searcher}))
		root.SetOut(out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{
			"nourish",
			"--config-dir", tmpDir,
			"--embedding-provider", "hashing",
			"--embedding-dimensions", "64",
			"--delay", "0s",
			"--headless",
		}, args...))
		return root.Execute()
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		searcher = testutils.NewMockSearcher()
	})

	It("runs the given queries headless and summarises", func() {
		searcher.Results["roma"] = websearch.Result{Summary: longSummary, Source: "Wikipedia"}
		searcher.Errors["fallo"] = errors.New("timeout")

		Expect(run("--query", "roma", "--query", "fallo", "--query", "nada")).To(Succeed())
		Expect(searcher.Calls()).To(Equal([]string{"roma", "fallo", "nada"}))
		Expect(out.String()).To(ContainSubstring("Nourishment complete: 1 stored"))
		Expect(out.String()).To(ContainSubstring("3 queries, 0 duplicates, 1 rejected, 1 errors"))
		Expect(out.String()).To(MatchRegexp(`1 errors in \d+(ms|\.\ds)`))
	})

	It("skips a repeated answer within one run", func() {
		searcher.Default = websearch.Result{Summary: longSummary, Source: "Wikipedia"}

		Expect(run("--query", "a", "--query", "b")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("1 stored"))
		Expect(out.String()).To(ContainSubstring("1 duplicates"))
	})
})
