package memoryutils_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sassy/pkg/config"
	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/memory/memoryutils"
)

var _ = Describe("NewEngine", func() {
	var (
		dir string
		cfg *config.Config
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		cfg = config.NewDefaultConfig()
		cfg.Embedding.Provider = "hashing"
		cfg.Embedding.Dimensions = 64
	})

	It("builds a working engine on local files", func() {
		ctx := context.Background()
		engine, err := memoryutils.NewEngine(ctx, &memoryutils.NewEngineOpts{Config: cfg, Dir: dir, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		res := engine.Write(ctx, memory.WriteParams{Content: "Usuario: me llamo Ana"})
		Expect(res.Stored).To(BeTrue())
		Expect(res.Indexed).To(BeTrue())
		Expect(engine.Close()).To(Succeed())

		for _, name := range []string{"memory.db", memoryutils.FlatSnapshotFile, "recent.json"} {
			_, err := os.Stat(filepath.Join(dir, name))
			Expect(err).NotTo(HaveOccurred(), name)
		}

		reopened, err := memoryutils.NewEngine(ctx, &memoryutils.NewEngineOpts{Config: cfg, Dir: dir, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		Expect(reopened.RecentInteractions(5)).To(HaveLen(1))
		hits := reopened.Search(ctx, memory.SearchParams{Query: "llamo", Limit: 5})
		Expect(hits).NotTo(BeEmpty())
		Expect(hits[0].Content).To(Equal("Usuario: me llamo Ana"))
	})

	It("rejects an unknown storage provider", func() {
		cfg.Storage.Provider = "mysql"
		_, err := memoryutils.NewEngine(context.Background(), &memoryutils.NewEngineOpts{Config: cfg, Dir: dir, Logger: logger.Nop()})
		Expect(err).To(MatchError(ContainSubstring("unsupported storage provider")))
	})

	It("rejects an unknown vector provider", func() {
		cfg.VectorStore.Provider = "pinecone"
		cfg.VectorStore.Target = "http://example.invalid"
		_, err := memoryutils.NewEngine(context.Background(), &memoryutils.NewEngineOpts{Config: cfg, Dir: dir, Logger: logger.Nop()})
		Expect(err).To(MatchError(ContainSubstring("unsupported vector store provider")))
	})

	DescribeTable("resolves vector targets",
		func(provider, target, want string) {
			cfg.VectorStore.Provider = provider
			cfg.VectorStore.Target = target
			Expect(memoryutils.VectorTarget(cfg, "/data")).To(Equal(want))
		},
		Entry("flat default", "flat", "", "/data/semantic.json"),
		Entry("sqlite default", "sqlite", "", "/data/semantic.db"),
		Entry("relative file", "flat", "index.json", "/data/index.json"),
		Entry("remote", "chroma", "http://localhost:8000", "http://localhost:8000"),
	)
})
