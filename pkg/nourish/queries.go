package nourish

import (
	"fmt"
	"strings"
)

// PriorityTopics get every template.
var PriorityTopics = []string{
	"programación", "python", "javascript", "inteligencia artificial", "machine learning",
	"desarrollo de videojuegos", "videojuegos", "historia de los videojuegos", "cultura gamer",
	"Colombia", "historia de Colombia", "expresiones colombianas", "modismos colombianos",
	"idioma español", "expresiones en español", "frases célebres en español", "cultura colombiana",
	"comida colombiana", "lugares turísticos de Colombia", "personajes históricos de Colombia",
	"expresiones populares", "slang español", "slang colombiano",
}

// SecondaryTopics get the first SecondaryTemplates templates only.
var SecondaryTopics = []string{
	"frases motivacionales", "datos curiosos de ciencia", "curiosidades sobre tecnología",
	"consejos de productividad", "beneficios de la meditación", "cómo organizar tu día",
	"historia universal", "arte moderno", "salud y bienestar", "cultura general", "recetas fáciles",
	"emociones humanas", "inventos que cambiaron el mundo", "descubrimientos científicos recientes",
	"biografías de personajes famosos", "eventos históricos importantes",
}

// Templates phrase a topic as a query. Each has one %s verb.
var Templates = []string{
	"curiosidades de %s", "datos interesantes de %s", "información sobre %s", "consejos de %s",
	"ejemplos de %s", "beneficios de %s", "importancia de %s", "historia de %s",
	"frases célebres de %s", "cómo se usa %s", "tutorial de %s", "mejores prácticas de %s",
	"expresiones de %s", "slang de %s", "cultura de %s", "impacto de %s", "personajes de %s",
	"hechos históricos de %s",
}

// SecondaryTemplates is how many leading templates secondary topics use.
const SecondaryTemplates = 6

// BuildQueries crosses topics with templates. Queries are lower-cased,
// trimmed and deduplicated, keeping first-seen order.
func BuildQueries(priority, secondary, templates []string, secondaryTemplates int) []string {
	seen := map[string]struct{}{}
	out := []string{}

	add := func(topics, tpls []string) {
		for _, topic := range topics {
			for _, tpl := range tpls {
				q := strings.TrimSpace(strings.ToLower(fmt.Sprintf(tpl, topic)))
				if q == "" {
					continue
				}
				if _, dup := seen[q]; dup {
					continue
				}
				seen[q] = struct{}{}
				out = append(out, q)
			}
		}
	}

	add(priority, templates)
	add(secondary, templates[:min(secondaryTemplates, len(templates))])
	return out
}

// DefaultQueries is BuildQueries over the built-in topic lists.
func DefaultQueries() []string {
	return BuildQueries(PriorityTopics, SecondaryTopics, Templates, SecondaryTemplates)
}
