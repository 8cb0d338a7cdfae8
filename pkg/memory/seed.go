package memory

import (
	"context"

	"github.com/papercomputeco/sassy/pkg/storage"
)

// SeedContext marks memories written by Seed.
const SeedContext = "initial-seed"

// Seed kinds that are not part of the classifier vocabulary.
const (
	KindPersonality  = "personality"
	KindHelp         = "help"
	KindMotivational = "motivational"
	KindTrivia       = "trivia"
)

// SeedMemories is the assistant's starting knowledge.
var SeedMemories = []WriteParams{
	{Content: "Mi color favorito es el azul", Kind: storage.KindPreference, Categories: []string{"colores", "gustos"}},
	{Content: "Me gusta la pizza con extra queso", Kind: storage.KindPreference, Categories: []string{"comida", "gustos"}},
	{Content: "Mi hobby es aprender cosas nuevas sobre inteligencia artificial", Kind: KindPersonality, Categories: []string{"hobbies", "ia"}},
	{Content: "Puedes preguntarme la hora o la fecha en cualquier momento", Kind: KindHelp, Categories: []string{"comandos", "ayuda"}},
	{Content: "Recuerda que siempre puedes decir 'salir' para terminar la conversación", Kind: KindHelp, Categories: []string{"comandos", "ayuda"}},
	{Content: "La curiosidad es el motor del aprendizaje", Kind: KindMotivational, Categories: []string{"frases", "motivacion"}},
	{Content: "¿Sabías que el cerebro humano tiene más conexiones que estrellas hay en la galaxia?", Kind: KindTrivia, Categories: []string{"curiosidades"}},
	{Content: "Puedo ayudarte a buscar información en internet si lo necesitas", Kind: KindHelp, Categories: []string{"comandos", "ayuda"}},
	{Content: "Me esfuerzo por aprender de cada conversación contigo", Kind: KindPersonality, Categories: []string{"ia", "aprendizaje"}},
	{Content: "Si me dices 'recuerda que...' guardaré esa información para ti", Kind: KindHelp, Categories: []string{"comandos", "memoria"}},
}

// Seed writes SeedMemories when the record store is empty and reports how
// many were written.
func (e *Engine) Seed(ctx context.Context) int {
	n, err := e.store.Count(ctx)
	if err != nil {
		e.logger.Error("counting records before seeding", "error", err)
		return 0
	}
	if n > 0 {
		return 0
	}

	written := 0
	for _, m := range SeedMemories {
		m.Context = SeedContext
		if res := e.Write(ctx, m); res.Stored {
			written++
		}
	}
	e.Flush()

	e.logger.Info("seeded initial memories", "count", written)
	return written
}
