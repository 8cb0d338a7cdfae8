package nourish_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/nourish"
	"github.com/papercomputeco/sassy/pkg/storage"
	testutils "github.com/papercomputeco/sassy/pkg/utils/test"
	"github.com/papercomputeco/sassy/pkg/websearch"
)

// recordingWriter stands in for the memory engine.
type recordingWriter struct {
	mu     sync.Mutex
	writes []memory.WriteParams
	fail   bool
}

func (w *recordingWriter) Write(_ context.Context, p memory.WriteParams) memory.WriteResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return memory.WriteResult{Kind: p.Kind}
	}
	w.writes = append(w.writes, p)
	return memory.WriteResult{ID: int64(len(w.writes)), Kind: p.Kind, Stored: true, Indexed: true}
}

func (w *recordingWriter) Writes() []memory.WriteParams {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]memory.WriteParams(nil), w.writes...)
}

var longSummary = strings.Repeat("La historia de Colombia es extensa y diversa. ", 3)

var _ = Describe("Pipeline", func() {
	var (
		ctx      context.Context
		searcher *testutils.MockSearcher
		writer   *recordingWriter
		monitor  *testutils.RecordingMonitor
	)

	BeforeEach(func() {
		ctx = context.Background()
		searcher = testutils.NewMockSearcher()
		writer = &recordingWriter{}
		monitor = testutils.NewRecordingMonitor()
	})

	newPipeline := func(queries ...string) *nourish.Pipeline {
		return nourish.New(searcher, writer, nourish.Config{Queries: queries, Logger: logger.Nop()})
	}

	It("keeps going when one query fails", func() {
		searcher.Results["q1"] = websearch.Result{Summary: longSummary + "uno", Source: "Wikipedia"}
		searcher.Errors["q2"] = errors.New("connection reset")
		searcher.Results["q3"] = websearch.Result{Summary: longSummary + "tres", Source: "DuckDuckGo"}

		res, err := newPipeline("q1", "q2", "q3").Run(ctx, monitor)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(nourish.Result{Attempted: 3, Accepted: 2, Errors: 1}))

		reports := monitor.Reports()
		Expect(reports).To(HaveLen(4))
		Expect(reports[0].Status).To(HavePrefix("[OK]"))
		Expect(reports[0].Source).To(Equal("Wikipedia"))
		Expect(reports[0].Excerpt).To(Equal(longSummary + "uno"))
		Expect(reports[1].Status).To(HavePrefix("[ERROR]"))
		Expect(reports[1].Status).To(ContainSubstring("connection reset"))
		Expect(reports[1].Accepted).To(Equal(1))
		Expect(reports[2].Accepted).To(Equal(2))
		Expect(reports[2].Index).To(Equal(3))
		Expect(reports[2].Total).To(Equal(3))
		Expect(reports[3].Done).To(BeTrue())
		Expect(reports[3].Accepted).To(Equal(2))

		writes := writer.Writes()
		Expect(writes).To(HaveLen(2))
		Expect(writes[0].Kind).To(Equal(storage.KindWebNourishment))
		Expect(writes[0].Categories).To(Equal([]string{"internet", "auto-nourishment"}))
		Expect(writes[0].Context).To(Equal(nourish.MemoryContext))
		Expect(writes[0].Metadata).To(HaveKeyWithValue("query", "q1"))
		Expect(writes[0].Metadata).To(HaveKeyWithValue("source", "Wikipedia"))
	})

	It("rejects short and low-value answers", func() {
		searcher.Results["short"] = websearch.Result{Summary: "Muy corto"}
		searcher.Results["deny"] = websearch.Result{Summary: longSummary + " Ver más en Wikipedia"}
		searcher.Results["err"] = websearch.Result{Summary: longSummary + " ERROR al buscar"}

		res, err := newPipeline("short", "deny", "err", "empty").Run(ctx, monitor)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Rejected).To(Equal(4))
		Expect(writer.Writes()).To(BeEmpty())
	})

	It("appends a bounded excerpt of extended content", func() {
		extended := strings.Repeat("á", 1500)
		searcher.Results["q"] = websearch.Result{Summary: longSummary, Extended: extended}

		_, err := newPipeline("q").Run(ctx, monitor)
		Expect(err).NotTo(HaveOccurred())

		content := writer.Writes()[0].Content
		Expect(content).To(HavePrefix(longSummary + nourish.ExtendedMarker))
		Expect(content).To(HaveSuffix(strings.Repeat("á", 1200) + "..."))
		Expect(content).NotTo(ContainSubstring(strings.Repeat("á", 1201)))
	})

	It("ignores short extended content", func() {
		searcher.Results["q"] = websearch.Result{Summary: longSummary, Extended: "breve"}

		_, err := newPipeline("q").Run(ctx, monitor)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Writes()[0].Content).To(Equal(longSummary))
	})

	It("stores each text at most once, across runs", func() {
		searcher.Default = websearch.Result{Summary: longSummary}
		p := newPipeline("a", "b", "c")

		res, err := p.Run(ctx, monitor)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Accepted).To(Equal(1))
		Expect(res.Duplicates).To(Equal(2))

		res, err = p.Run(ctx, testutils.NewRecordingMonitor())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Accepted).To(BeZero())
		Expect(writer.Writes()).To(HaveLen(1))
	})

	It("counts dropped writes as errors", func() {
		writer.fail = true
		searcher.Default = websearch.Result{Summary: longSummary}

		res, err := newPipeline("a").Run(ctx, monitor)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Errors).To(Equal(1))
		Expect(res.Accepted).To(BeZero())
	})

	It("stops when the monitor closes", func() {
		searcher.Default = websearch.Result{Summary: longSummary}
		monitor.CloseAfter = 2
		p := newPipeline("a", "b", "c", "d")

		res, err := p.Run(ctx, monitor)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Cancelled).To(BeTrue())
		Expect(res.Attempted).To(Equal(2))
		Expect(searcher.Calls()).To(Equal([]string{"a", "b"}))
		Expect(p.State()).To(Equal(nourish.StateCancelled))

		last := monitor.Reports()[len(monitor.Reports())-1]
		Expect(last.Done).To(BeTrue())
		Expect(last.Status).To(ContainSubstring("cancelled"))
	})

	It("allows only one run at a time", func() {
		searcher.Gate = make(chan struct{})
		p := newPipeline("a", "b")

		Expect(p.Start(ctx, monitor)).To(BeTrue())
		Eventually(searcher.Calls).Should(HaveLen(1))
		Expect(p.State()).To(Equal(nourish.StateRunning))

		Expect(p.Start(ctx, testutils.NewRecordingMonitor())).To(BeFalse())
		_, err := p.Run(ctx, nil)
		Expect(err).To(MatchError(nourish.ErrAlreadyRunning))

		close(searcher.Gate)
		p.Wait()
		Expect(p.State()).To(Equal(nourish.StateIdle))
		Expect(p.LastResult().Attempted).To(Equal(2))
		Expect(searcher.Calls()).To(HaveLen(2))

		Expect(p.Start(ctx, monitor)).To(BeTrue())
		p.Wait()
	})

	It("cancels on Stop", func() {
		searcher.Gate = make(chan struct{})
		p := newPipeline("a", "b", "c")

		Expect(p.Start(ctx, monitor)).To(BeTrue())
		Eventually(searcher.Calls).Should(HaveLen(1))

		p.Stop()
		p.Wait()
		Expect(p.State()).To(Equal(nourish.StateCancelled))
		Expect(p.LastResult().Cancelled).To(BeTrue())
		Expect(searcher.Calls()).To(HaveLen(1))
	})

	It("honours a Stop issued right after Start", func() {
		searcher.Gate = make(chan struct{})
		p := newPipeline("a", "b")

		for range 50 {
			Expect(p.Start(ctx, testutils.NewRecordingMonitor())).To(BeTrue())
			p.Stop()

			waited := make(chan struct{})
			go func() {
				defer close(waited)
				p.Wait()
			}()
			Eventually(waited).Should(BeClosed())
			Expect(p.State()).To(Equal(nourish.StateCancelled))
			Expect(p.LastResult().Cancelled).To(BeTrue())
		}
	})

	It("times out slow queries", func() {
		searcher.Gate = make(chan struct{})
		p := nourish.New(searcher, writer, nourish.Config{
			Queries:      []string{"slow"},
			QueryTimeout: 20 * time.Millisecond,
			Logger:       logger.Nop(),
		})

		res, err := p.Run(ctx, monitor)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Errors).To(Equal(1))
		Expect(res.Cancelled).To(BeFalse())
		Expect(monitor.Reports()[0].Status).To(ContainSubstring("deadline exceeded"))
	})

	It("runs on a schedule until the context ends", func() {
		searcher.Default = websearch.Result{Summary: longSummary}
		p := newPipeline("a")

		runCtx, cancel := context.WithCancel(ctx)
		monitors := make(chan *testutils.RecordingMonitor, 1024)
		done := make(chan struct{})
		go func() {
			defer close(done)
			p.RunEvery(runCtx, 10*time.Millisecond, func() nourish.Monitor {
				m := testutils.NewRecordingMonitor()
				monitors <- m
				return m
			})
		}()

		Eventually(func() int { return len(monitors) }).Should(BeNumerically(">=", 2))
		cancel()
		Eventually(done).Should(BeClosed())
		Expect(writer.Writes()).To(HaveLen(1))
	})
})

var _ = Describe("Monitors", func() {
	It("publishes progress and completion events", func() {
		pub := testutils.NewRecordingPublisher()
		m := nourish.NewEventMonitor(pub, logger.Nop())

		m.Report(nourish.Progress{Query: "q", Index: 1, Total: 2, Status: "[OK] q"})
		m.Report(nourish.Progress{Done: true, Status: "done"})

		events := pub.Events()
		Expect(events).To(HaveLen(2))
		Expect(events[0].EventType).To(Equal("sassy.nourishment.progress"))
		Expect(events[1].EventType).To(Equal("sassy.nourishment.completed"))
		Expect(events[0].RunID).To(Equal(m.RunID()))
		Expect(events[0].EventID).NotTo(Equal(events[1].EventID))
	})

	It("survives publish failures", func() {
		pub := testutils.NewRecordingPublisher()
		pub.Fail = true
		m := nourish.NewEventMonitor(pub, logger.Nop())
		Expect(func() { m.Report(nourish.Progress{}) }).NotTo(Panic())
	})

	It("fans out and closes when any member closes", func() {
		a := testutils.NewRecordingMonitor()
		b := testutils.NewRecordingMonitor()
		b.CloseAfter = 1
		mm := nourish.MultiMonitor{a, nil, b, nourish.NewLogMonitor(logger.Nop())}

		Expect(mm.Closed()).To(BeFalse())
		mm.Report(nourish.Progress{Status: "x"})
		Expect(a.Reports()).To(HaveLen(1))
		Expect(mm.Closed()).To(BeTrue())
	})
})
