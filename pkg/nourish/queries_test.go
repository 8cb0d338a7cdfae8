package nourish_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sassy/pkg/nourish"
)

var _ = Describe("BuildQueries", func() {
	It("crosses topics with templates, secondary topics getting fewer", func() {
		queries := nourish.BuildQueries(
			[]string{"Python"},
			[]string{"Arte"},
			[]string{"historia de %s", "ejemplos de %s", "tutorial de %s"},
			1,
		)
		Expect(queries).To(Equal([]string{
			"historia de python",
			"ejemplos de python",
			"tutorial de python",
			"historia de arte",
		}))
	})

	It("deduplicates after lower-casing and trimming", func() {
		queries := nourish.BuildQueries([]string{"Colombia", "colombia ", " COLOMBIA"}, nil, []string{"%s"}, 0)
		Expect(queries).To(Equal([]string{"colombia"}))
	})

	It("builds a large unique default set", func() {
		queries := nourish.DefaultQueries()
		Expect(len(queries)).To(BeNumerically(">", len(nourish.PriorityTopics)*len(nourish.Templates)/2))
		seen := map[string]bool{}
		for _, q := range queries {
			Expect(seen).NotTo(HaveKey(q))
			seen[q] = true
		}
		Expect(queries).To(ContainElement("curiosidades de python"))
		Expect(queries).NotTo(ContainElement("tutorial de arte moderno"))
		Expect(queries).To(ContainElement("beneficios de arte moderno"))
	})
})
