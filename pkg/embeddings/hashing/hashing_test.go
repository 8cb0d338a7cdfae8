package hashing_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sassy/pkg/embeddings/hashing"
)

func distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

var _ = Describe("Embedder", func() {
	var (
		e   *hashing.Embedder
		ctx context.Context
	)

	BeforeEach(func() {
		e = hashing.NewEmbedder(64)
		ctx = context.Background()
	})

	It("produces unit vectors of the configured size", func() {
		v, err := e.Embed(ctx, "hola mundo")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(64))

		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		Expect(norm).To(BeNumerically("~", 1, 1e-5))
	})

	It("is deterministic and case-insensitive", func() {
		a, _ := e.Embed(ctx, "Hola Mundo")
		b, _ := e.Embed(ctx, "hola mundo")
		Expect(a).To(Equal(b))
	})

	It("places texts sharing words closer together", func() {
		hola, _ := e.Embed(ctx, "hola")
		holaMundo, _ := e.Embed(ctx, "hola mundo")
		other, _ := e.Embed(ctx, "recetas de cocina colombiana")

		Expect(distance(hola, holaMundo)).To(BeNumerically("<", distance(hola, other)))
	})

	It("returns the zero vector for empty text", func() {
		v, err := e.Embed(ctx, "  ")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(64))
		Expect(v).To(HaveEach(BeZero()))
	})

	It("defaults the dimensions", func() {
		v, _ := hashing.NewEmbedder(0).Embed(ctx, "x")
		Expect(v).To(HaveLen(hashing.DefaultDimensions))
	})
})
