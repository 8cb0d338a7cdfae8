package qdrant_test

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/vector"
	"github.com/papercomputeco/sassy/pkg/vector/qdrant"
)

var _ = Describe("ParseTarget", func() {
	DescribeTable("splits targets",
		func(target, host string, port int) {
			h, p, err := qdrant.ParseTarget(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(host))
			Expect(p).To(Equal(port))
		},
		Entry("host only", "localhost", "localhost", qdrant.DefaultPort),
		Entry("host and port", "qdrant.internal:7000", "qdrant.internal", 7000),
		Entry("with scheme", "http://127.0.0.1:6334/", "127.0.0.1", 6334),
	)

	It("rejects an empty target", func() {
		_, _, err := qdrant.ParseTarget("")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non-numeric port", func() {
		_, _, err := qdrant.ParseTarget("localhost:grpc")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Driver", func() {
	It("requires dimensions", func() {
		_, err := qdrant.NewDriver(context.Background(), qdrant.Config{Target: "localhost"}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("dimensions")))
	})

	Context("against a live server", func() {
		var driver *qdrant.Driver

		BeforeEach(func() {
			target := os.Getenv("SASSY_TEST_QDRANT_TARGET")
			if target == "" {
				Skip("SASSY_TEST_QDRANT_TARGET not set")
			}

			var err error
			driver, err = qdrant.NewDriver(context.Background(), qdrant.Config{
				Target:         target,
				CollectionName: "sassy_test_" + uuid.NewString()[:8],
				Dimensions:     2,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			if driver != nil {
				Expect(driver.Close()).To(Succeed())
			}
		})

		It("adds and queries documents", func() {
			ctx := context.Background()
			id := uuid.NewString()
			Expect(driver.Add(ctx, []vector.Document{
				{ID: id, Content: "hola mundo", Kind: "general", CreatedAt: time.Now(), Embedding: []float32{1, 0}},
				{ID: uuid.NewString(), Content: "adiós", Kind: "general", CreatedAt: time.Now(), Embedding: []float32{0, 1}},
			})).To(Succeed())

			results, err := driver.Query(ctx, []float32{1, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal(id))
			Expect(results[0].Content).To(Equal("hola mundo"))

			n, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
		})
	})
})
