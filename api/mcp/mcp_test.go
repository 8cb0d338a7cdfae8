package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/memory"
)

type fakeEngine struct {
	hits   []memory.Hit
	search []memory.SearchParams
	writes []memory.WriteParams
	result memory.WriteResult
}

func (f *fakeEngine) Search(_ context.Context, p memory.SearchParams) []memory.Hit {
	f.search = append(f.search, p)
	return f.hits
}

func (f *fakeEngine) Write(_ context.Context, p memory.WriteParams) memory.WriteResult {
	f.writes = append(f.writes, p)
	return f.result
}

var _ = Describe("MCP Server", func() {
	var (
		server *Server
		engine *fakeEngine
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		engine = &fakeEngine{}

		var err error
		server, err = NewServer(Config{
			Engine: engine,
			Logger: logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the engine is nil", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("memory engine is required")))
		})

		It("returns an error when the logger is nil", func() {
			_, err := NewServer(Config{Engine: engine})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("builds a noop server without an engine", func() {
			s, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("memory_recall", func() {
		It("rejects an empty query", func() {
			res, _, err := server.handleRecall(ctx, nil, RecallInput{Query: "  "})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(engine.search).To(BeEmpty())
		})

		It("returns engine hits", func() {
			engine.hits = []memory.Hit{{Content: "A Ana le gustan los gatos", Kind: "preference", Score: 0.8, Source: memory.SourceSemantic}}

			res, out, err := server.handleRecall(ctx, nil, RecallInput{Query: "gatos", Limit: 3, Kind: "preference"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Count).To(Equal(1))
			Expect(out.Results[0].Content).To(Equal("A Ana le gustan los gatos"))
			Expect(engine.search).To(ConsistOf(memory.SearchParams{Query: "gatos", Limit: 3, Kind: "preference"}))

			text, ok := res.Content[0].(*mcp.TextContent)
			Expect(ok).To(BeTrue())
			Expect(text.Text).To(ContainSubstring("gatos"))
		})
	})

	Describe("memory_remember", func() {
		It("rejects blank content", func() {
			res, _, err := server.handleRemember(ctx, nil, RememberInput{Content: ""})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(engine.writes).To(BeEmpty())
		})

		It("writes through the engine", func() {
			engine.result = memory.WriteResult{ID: 7, Kind: "reminder", Stored: true, Indexed: true}

			res, out, err := server.handleRemember(ctx, nil, RememberInput{
				Content:    "recuérdame llamar a mamá",
				Context:    "mcp",
				Categories: []string{"family"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.ID).To(Equal(int64(7)))
			Expect(engine.writes).To(HaveLen(1))
			Expect(engine.writes[0].Context).To(Equal("mcp"))
			Expect(engine.writes[0].Categories).To(ConsistOf("family"))
		})

		It("reports a write that landed nowhere", func() {
			engine.result = memory.WriteResult{}
			res, _, err := server.handleRemember(ctx, nil, RememberInput{Content: "algo"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})
})
