package websearch

import "strings"

// stopWords are dropped from queries before searching. The list covers the
// filler that query templates add around a topic.
var stopWords = map[string]struct{}{
	"cómo": {}, "por": {}, "qué": {}, "es": {}, "de": {}, "la": {}, "el": {},
	"los": {}, "las": {}, "sobre": {}, "para": {}, "en": {}, "del": {}, "un": {},
	"una": {}, "y": {}, "a": {}, "con": {}, "más": {}, "menos": {}, "que": {},
	"funciona": {}, "importante": {}, "hechos": {}, "sorprendentes": {},
	"interesantes": {}, "información": {}, "confiable": {}, "artículos": {},
	"noticias": {}, "recientes": {}, "frases": {}, "célebres": {},
	"ejemplos": {}, "prácticos": {},
}

// Simplify removes stop words from query. A query made only of stop words is
// returned unchanged.
func Simplify(query string) string {
	words := strings.Fields(query)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopWords[strings.ToLower(w)]; stop {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return query
	}
	return strings.Join(kept, " ")
}
