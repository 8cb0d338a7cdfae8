package servecmder

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/nourish"
	testutils "github.com/papercomputeco/sassy/pkg/utils/test"
)

type nopWriter struct{}

func (nopWriter) Write(_ context.Context, p memory.WriteParams) memory.WriteResult {
	return memory.WriteResult{Kind: p.Kind, Stored: true, Indexed: true}
}

// lateServer starts a run while shutting down, like a request that was
// already in flight.
type lateServer struct {
	pipeline *nourish.Pipeline
	started  bool
}

func (s *lateServer) Shutdown() error {
	s.started = s.pipeline.Start(context.Background(), nil)
	return nil
}

var _ = Describe("serve shutdown", func() {
	var (
		searcher *testutils.MockSearcher
		pipeline *nourish.Pipeline
		cmder    *ServeCommander
	)

	BeforeEach(func() {
		searcher = testutils.NewMockSearcher()
		searcher.Gate = make(chan struct{})
		pipeline = nourish.New(searcher, nopWriter{}, nourish.Config{
			Queries: []string{"a", "b"},
			Logger:  logger.Nop(),
		})
		cmder = &ServeCommander{logger: logger.Nop()}
	})

	It("stops a run started while the server was shutting down", func() {
		server := &lateServer{pipeline: pipeline}
		scheduled := make(chan struct{})
		close(scheduled)

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			cmder.shutdown(func() {}, server, pipeline, scheduled)
		}()

		Eventually(finished).Should(BeClosed())
		Expect(server.started).To(BeTrue())
		Expect(pipeline.State()).NotTo(Equal(nourish.StateRunning))
		Expect(pipeline.LastResult().Cancelled).To(BeTrue())
	})

	It("waits for the schedule to end before the last run", func() {
		ctx, cancel := context.WithCancel(context.Background())
		scheduled := make(chan struct{})
		go func() {
			defer close(scheduled)
			pipeline.RunEvery(ctx, time.Hour, func() nourish.Monitor { return nil })
		}()
		Eventually(searcher.Calls).Should(HaveLen(1))

		cmder.shutdown(cancel, &lateServer{pipeline: pipeline}, pipeline, scheduled)
		Expect(scheduled).To(BeClosed())
		Expect(pipeline.State()).To(Equal(nourish.StateCancelled))
	})
})
