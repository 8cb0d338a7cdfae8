package memory_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sassy/pkg/embeddings/hashing"
	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/recent"
	"github.com/papercomputeco/sassy/pkg/semantic"
	"github.com/papercomputeco/sassy/pkg/storage"
	"github.com/papercomputeco/sassy/pkg/storage/inmemory"
	"github.com/papercomputeco/sassy/pkg/storage/sqlite"
	testutils "github.com/papercomputeco/sassy/pkg/utils/test"
	"github.com/papercomputeco/sassy/pkg/vector/flat"
)

var errStore = errors.New("store unavailable")

// flakyStore fails selected calls of an in-memory store.
type flakyStore struct {
	*inmemory.Driver
	failInsert bool
	failSearch bool
}

func (f *flakyStore) Insert(ctx context.Context, rec storage.Record) (int64, error) {
	if f.failInsert {
		return 0, errStore
	}
	return f.Driver.Insert(ctx, rec)
}

func (f *flakyStore) Search(ctx context.Context, p storage.SearchParams) ([]storage.Record, error) {
	if f.failSearch {
		return nil, errStore
	}
	return f.Driver.Search(ctx, p)
}

func expectRanked(hits []memory.Hit) {
	for i := 1; i < len(hits); i++ {
		prev, cur := hits[i-1], hits[i]
		Expect(prev.Score).To(BeNumerically(">=", cur.Score))
		if prev.Score == cur.Score {
			Expect(prev.CreatedAt.Before(cur.CreatedAt)).To(BeFalse())
		}
	}
}

func expectUnique(hits []memory.Hit) {
	seen := map[string]bool{}
	for _, h := range hits {
		Expect(seen).NotTo(HaveKey(h.Content))
		seen[h.Content] = true
	}
}

var _ = Describe("Engine", func() {
	var (
		ctx        context.Context
		dir        string
		store      *inmemory.Driver
		buffer     *recent.Buffer
		engine     *memory.Engine
		recentPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		recentPath = filepath.Join(dir, "recent.json")

		driver, err := flat.NewDriver(flat.Config{Path: filepath.Join(dir, "semantic.json")}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		store = inmemory.NewDriver()
		buffer = recent.New(recentPath, 1000, logger.Nop())
		engine, err = memory.NewEngine(memory.Config{
			Store:      store,
			Index:      semantic.New(hashing.NewEmbedder(64), driver, logger.Nop()),
			Buffer:     buffer,
			FlushEvery: 3,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires its stores", func() {
		_, err := memory.NewEngine(memory.Config{Store: store})
		Expect(err).To(MatchError(memory.ErrNotConfigured))
	})

	Describe("Write", func() {
		It("classifies a name disclosure and finds it again", func() {
			res := engine.Write(ctx, memory.WriteParams{Content: "Usuario: me llamo Ana"})
			Expect(res.Kind).To(Equal(storage.KindPersonalFact))
			Expect(res.Categories).To(ContainElement("name"))
			Expect(res.Stored).To(BeTrue())
			Expect(res.Indexed).To(BeTrue())

			for _, q := range []string{"nombre", "llamo"} {
				hits := engine.Search(ctx, memory.SearchParams{Query: q, Limit: 5})
				contents := []string{}
				for _, h := range hits {
					contents = append(contents, h.Content)
				}
				Expect(contents).To(ContainElement("Usuario: me llamo Ana"), q)
			}
		})

		It("keeps explicit kinds and merges categories on augmentable ones", func() {
			res := engine.Write(ctx, memory.WriteParams{Content: "me gusta el café", Kind: "trivia"})
			Expect(res.Kind).To(Equal("trivia"))
			Expect(res.Categories).To(BeEmpty())

			res = engine.Write(ctx, memory.WriteParams{Content: "me gusta el té", Kind: storage.KindGeneral, Categories: []string{"bebidas"}})
			Expect(res.Kind).To(Equal(storage.KindPreference))
			Expect(res.Categories).To(Equal([]string{"bebidas", "likes"}))
		})

		It("drops blank content", func() {
			res := engine.Write(ctx, memory.WriteParams{Content: "   "})
			Expect(res.Stored).To(BeFalse())
			Expect(res.Indexed).To(BeFalse())
			Expect(buffer.Len()).To(BeZero())
		})

		It("flushes the recent buffer every Nth write", func() {
			engine.Write(ctx, memory.WriteParams{Content: "uno"})
			engine.Write(ctx, memory.WriteParams{Content: "dos"})
			_, err := os.Stat(recentPath)
			Expect(os.IsNotExist(err)).To(BeTrue())

			engine.Write(ctx, memory.WriteParams{Content: "tres"})
			_, err = os.Stat(recentPath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("still indexes and buffers when the record store fails", func() {
			vec := testutils.NewMockVectorDriver()
			e, err := memory.NewEngine(memory.Config{
				Store:  &flakyStore{Driver: inmemory.NewDriver(), failInsert: true},
				Index:  semantic.New(testutils.NewMockEmbedder(), vec, logger.Nop()),
				Buffer: recent.New("", 10, logger.Nop()),
				Logger: logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			res := e.Write(ctx, memory.WriteParams{Content: "hola"})
			Expect(res.Stored).To(BeFalse())
			Expect(res.Indexed).To(BeTrue())
			Expect(vec.Documents()).To(HaveLen(1))
			Expect(e.RecentInteractions(5)).To(HaveLen(1))
		})

		It("still stores when the index fails", func() {
			vec := testutils.NewMockVectorDriver()
			vec.FailAdd = true
			e, err := memory.NewEngine(memory.Config{
				Store:  store,
				Index:  semantic.New(testutils.NewMockEmbedder(), vec, logger.Nop()),
				Buffer: recent.New("", 10, logger.Nop()),
			})
			Expect(err).NotTo(HaveOccurred())

			res := e.Write(ctx, memory.WriteParams{Content: "hola"})
			Expect(res.Stored).To(BeTrue())
			Expect(res.Indexed).To(BeFalse())
		})
	})

	Describe("Search", func() {
		It("returns the top records by relevance", func() {
			for i := 1; i <= 5; i++ {
				res := engine.Write(ctx, memory.WriteParams{Content: fmt.Sprintf("los gatos número %d", i)})
				Expect(engine.UpdateRelevance(ctx, res.ID, float64(i))).To(Succeed())
			}

			hits := engine.Search(ctx, memory.SearchParams{Query: "gatos", Limit: 3})
			Expect(hits).To(HaveLen(3))
			Expect(hits[0].Content).To(Equal("los gatos número 5"))
			Expect(hits[1].Content).To(Equal("los gatos número 4"))
			Expect(hits[2].Content).To(Equal("los gatos número 3"))
			Expect(hits[0].Source).To(Equal(memory.SourceTextual))
			expectRanked(hits)
		})

		It("never returns the same content twice", func() {
			engine.Write(ctx, memory.WriteParams{Content: "hola mundo"})
			engine.Write(ctx, memory.WriteParams{Content: "hola mundo"})
			engine.Write(ctx, memory.WriteParams{Content: "hola a todos"})

			hits := engine.Search(ctx, memory.SearchParams{Query: "hola", Limit: 10})
			expectUnique(hits)
			expectRanked(hits)
			Expect(len(hits)).To(BeNumerically("<=", 10))
		})

		It("ranks mixed sources consistently", func() {
			for i := range 8 {
				engine.Write(ctx, memory.WriteParams{Content: fmt.Sprintf("nota %d sobre perros", i)})
			}
			hits := engine.Search(ctx, memory.SearchParams{Query: "perros", Limit: 6})
			Expect(hits).To(HaveLen(6))
			expectUnique(hits)
			expectRanked(hits)
		})

		It("filters by kind", func() {
			engine.Write(ctx, memory.WriteParams{Content: "me gusta el azul"})
			engine.Write(ctx, memory.WriteParams{Content: "el azul del cielo"})

			hits := engine.Search(ctx, memory.SearchParams{Query: "azul", Kind: storage.KindPreference, Limit: 5})
			Expect(hits).NotTo(BeEmpty())
			for _, h := range hits {
				Expect(h.Kind).To(Equal(storage.KindPreference))
			}
		})

		It("falls back to the recent buffer when both stores fail", func() {
			vec := testutils.NewMockVectorDriver()
			e, err := memory.NewEngine(memory.Config{
				Store:  &flakyStore{Driver: inmemory.NewDriver(), failSearch: true},
				Index:  semantic.New(testutils.NewMockEmbedder(), vec, logger.Nop()),
				Buffer: recent.New("", 10, logger.Nop()),
			})
			Expect(err).NotTo(HaveOccurred())

			e.Write(ctx, memory.WriteParams{Content: "Los Gatos cazan"})
			e.Write(ctx, memory.WriteParams{Content: "perros"})
			vec.FailQuery = true

			hits := e.Search(ctx, memory.SearchParams{Query: "gatos", Limit: 5})
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].Source).To(Equal(memory.SourceRecent))
			Expect(hits[0].Score).To(Equal(storage.DefaultRelevance))
		})

		It("returns nothing for a blank query", func() {
			engine.Write(ctx, memory.WriteParams{Content: "algo"})
			Expect(engine.Search(ctx, memory.SearchParams{Query: " "})).To(BeEmpty())
		})
	})

	Describe("record management", func() {
		It("adds categories idempotently", func() {
			res := engine.Write(ctx, memory.WriteParams{Content: "receta de arepas"})
			Expect(engine.AddCategory(ctx, res.ID, "cocina")).To(Succeed())
			Expect(engine.AddCategory(ctx, res.ID, "cocina")).To(Succeed())

			records := engine.ByCategory(ctx, "cocina", 5)
			Expect(records).To(HaveLen(1))
			Expect(records[0].Categories).To(Equal([]string{"cocina"}))
		})

		It("reports unknown ids", func() {
			Expect(engine.UpdateRelevance(ctx, 404, 2)).To(MatchError(storage.ErrNotFound))
			Expect(engine.AddCategory(ctx, 404, "x")).To(MatchError(storage.ErrNotFound))
			Expect(engine.AddCategory(ctx, 1, " ")).To(MatchError(memory.ErrEmptyCategory))
		})

		It("lists the newest records first", func() {
			engine.Write(ctx, memory.WriteParams{Content: "primero"})
			engine.Write(ctx, memory.WriteParams{Content: "segundo"})

			records := engine.Recent(ctx, 1)
			Expect(records).To(HaveLen(1))
			Expect(records[0].Content).To(Equal("segundo"))
		})
	})

	Describe("recent buffer views", func() {
		It("returns recent interactions in chronological order", func() {
			engine.AddInteraction(ctx, "hola", "hola, ¿en qué te ayudo?")

			entries := engine.RecentInteractions(5)
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Content).To(Equal("Usuario: hola"))
			Expect(entries[1].Content).To(Equal("Sassy: hola, ¿en qué te ayudo?"))
			Expect(entries[1].Categories).To(ContainElement("assistant"))

			_, err := os.Stat(recentPath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps only the latest window of entries after an interaction", func() {
			for i := range memory.InteractionWindow + 100 {
				buffer.Append(recent.Entry{Content: fmt.Sprintf("viejo %d", i), Kind: "general"})
			}

			engine.AddInteraction(ctx, "¿qué hora es?", "las tres")
			Expect(buffer.Len()).To(Equal(memory.InteractionWindow))

			last := engine.RecentInteractions(2)
			Expect(last[0].Content).To(Equal("Usuario: ¿qué hora es?"))
			Expect(last[1].Content).To(Equal("Sassy: las tres"))

			reloaded := recent.New(recentPath, 1000, logger.Nop())
			reloaded.Load()
			Expect(reloaded.Len()).To(Equal(memory.InteractionWindow))
		})

		It("finds related topics among recent entries", func() {
			engine.Write(ctx, memory.WriteParams{Content: "la música clásica me relaja"})
			engine.Write(ctx, memory.WriteParams{Content: "fui a la playa"})

			topics := engine.RelatedTopics("Música en la PLAYA hoy", 5)
			Expect(topics).To(Equal([]string{"música", "la", "playa"}))
			Expect(engine.RelatedTopics("música playa", 1)).To(Equal([]string{"música"}))
			Expect(engine.RelatedTopics("nada", 0)).To(BeEmpty())
		})
	})

	Describe("Seed", func() {
		It("writes the initial memories only into an empty store", func() {
			Expect(engine.Seed(ctx)).To(Equal(len(memory.SeedMemories)))
			Expect(engine.Seed(ctx)).To(BeZero())

			n, err := store.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(len(memory.SeedMemories)))

			help := engine.ByCategory(ctx, "ayuda", 10)
			Expect(help).NotTo(BeEmpty())
			Expect(help[0].Context).To(Equal(memory.SeedContext))
		})
	})

	It("flushes and closes", func() {
		engine.Write(ctx, memory.WriteParams{Content: "último"})
		Expect(engine.Close()).To(Succeed())

		reloaded := recent.New(recentPath, 10, logger.Nop())
		reloaded.Load()
		Expect(reloaded.Len()).To(Equal(1))
	})
})

var _ = Describe("Engine under concurrent writers", func() {
	const (
		writers   = 8
		perWriter = 20
		capacity  = 50
	)

	It("keeps the record store, index and recent buffer in step", func() {
		ctx := context.Background()
		dir := GinkgoT().TempDir()

		store, err := sqlite.NewDriver(ctx, filepath.Join(dir, "memory.db"))
		Expect(err).NotTo(HaveOccurred())
		driver, err := flat.NewDriver(flat.Config{Path: filepath.Join(dir, "semantic.json")}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		index := semantic.New(hashing.NewEmbedder(64), driver, logger.Nop())
		buffer := recent.New(filepath.Join(dir, "recent.json"), capacity, logger.Nop())

		engine, err := memory.NewEngine(memory.Config{
			Store:      store,
			Index:      index,
			Buffer:     buffer,
			FlushEvery: 7,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(engine.Close)

		var wg sync.WaitGroup
		for w := range writers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for i := range perWriter {
					res := engine.Write(ctx, memory.WriteParams{Content: fmt.Sprintf("nota %d de %d", i, w)})
					Expect(res.Stored).To(BeTrue())
					Expect(res.Indexed).To(BeTrue())
					engine.Search(ctx, memory.SearchParams{Query: "nota", Limit: 3})
					engine.RelatedTopics("nota de", 2)
				}
			}()
		}
		wg.Wait()

		total := writers * perWriter
		Expect(store.Count(ctx)).To(Equal(total))
		Expect(index.Count(ctx)).To(Equal(total))
		Expect(buffer.Len()).To(Equal(capacity))

		newest, err := store.Recent(ctx, capacity)
		Expect(err).NotTo(HaveOccurred())
		want := make([]string, 0, capacity)
		for i := len(newest) - 1; i >= 0; i-- {
			want = append(want, newest[i].Content)
		}
		got := []string{}
		for _, e := range buffer.Snapshot() {
			got = append(got, e.Content)
		}
		Expect(got).To(Equal(want))
	})
})
