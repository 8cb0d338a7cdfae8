package recallcmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/sassy/api/search"
	recallcmder "github.com/papercomputeco/sassy/cmd/sassy/recall"
	remembercmder "github.com/papercomputeco/sassy/cmd/sassy/remember"
	"github.com/papercomputeco/sassy/pkg/cliui"
	"github.com/papercomputeco/sassy/pkg/memory"
)

var _ = Describe("remember and recall", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
		errOut *gbytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "sassy", SilenceUsage: true}
		root.PersistentFlags().String("config-dir", "", "")
		root.PersistentFlags().BoolP("debug", "d", false, "")
		root.AddCommand(remembercmder.NewRememberCmd(), recallcmder.NewRecallCmd())
		root.SetOut(out)
		root.SetErr(errOut)

		base := []string{
			"--config-dir", tmpDir,
			"--embedding-provider", "hashing",
			"--embedding-dimensions", "64",
		}
		root.SetArgs(append(args[:1:1], append(base, args[1:]...)...))
		return root.Execute()
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		errOut = gbytes.NewBuffer()
	})

	It("recalls a remembered fact from the local stores", func() {
		Expect(run("remember", "Usuario: me llamo Ana")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("personal-fact"))
		Expect(string(errOut.Contents())).To(ContainSubstring("Opening memory stores"))
		Expect(string(errOut.Contents())).To(ContainSubstring(cliui.SuccessMark))

		out.Reset()
		Expect(run("recall", "llamo", "--json")).To(Succeed())

		var output apisearch.SearchOutput
		Expect(json.Unmarshal(out.Bytes(), &output)).To(Succeed())
		Expect(output.Count).To(BeNumerically(">=", 1))
		Expect(output.Results[0].Content).To(Equal("Usuario: me llamo Ana"))
	})

	It("says so when nothing matches", func() {
		Expect(run("recall", "zanahoria")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No memories found."))
	})

	It("rejects blank text", func() {
		Expect(run("remember", "   ")).To(MatchError(memory.ErrEmptyContent))
	})
})

var _ = Describe("SearchAPI", func() {
	It("queries /v1/search with limit and kind", func() {
		var got *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(apisearch.SearchOutput{
				Query:   r.URL.Query().Get("query"),
				Results: []memory.Hit{{Content: "A Ana le gustan los gatos", Kind: "preference"}},
				Count:   1,
			})
		}))
		defer server.Close()

		output, err := recallcmder.SearchAPI(context.Background(), server.URL, apisearch.SearchInput{Query: "gatos", Limit: 3, Kind: "preference"})
		Expect(err).NotTo(HaveOccurred())
		Expect(output.Count).To(Equal(1))
		Expect(got.URL.Path).To(Equal("/v1/search"))
		Expect(got.URL.Query().Get("limit")).To(Equal("3"))
		Expect(got.URL.Query().Get("kind")).To(Equal("preference"))
	})

	It("surfaces non-200 responses", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"query parameter is required"}`, http.StatusBadRequest)
		}))
		defer server.Close()

		_, err := recallcmder.SearchAPI(context.Background(), server.URL, apisearch.SearchInput{})
		Expect(err).To(MatchError(ContainSubstring("HTTP 400")))
	})
})

var _ = Describe("Markdown", func() {
	It("lists hits in order", func() {
		md := recallcmder.Markdown(&apisearch.SearchOutput{
			Query: "gatos",
			Results: []memory.Hit{
				{Content: "primero", Kind: "general", Source: memory.SourceTextual, Score: 1},
				{Content: "segundo", Kind: "general", Source: memory.SourceRecent, Score: 1},
			},
			Count: 2,
		})
		Expect(md).To(ContainSubstring(`# Memories for "gatos"`))
		Expect(md).To(MatchRegexp(`(?s)1\. .*primero.*2\. .*segundo`))
	})
})
