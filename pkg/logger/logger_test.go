package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sassy/pkg/logger"
)

func decodeLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	Expect(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes text records with attributes", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("memory stored", "kind", "preference")

			Expect(buf.String()).To(ContainSubstring("memory stored"))
			Expect(buf.String()).To(ContainSubstring("preference"))
		})

		It("drops debug records unless debug is on", func() {
			var quiet, loud bytes.Buffer
			logger.New(logger.WithWriter(&quiet)).Debug("hidden")
			logger.New(logger.WithWriter(&loud), logger.WithDebug(true)).Debug("shown")

			Expect(quiet.String()).To(BeEmpty())
			Expect(loud.String()).To(ContainSubstring("shown"))
		})

		It("writes JSON records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("nourishment finished", "accepted", 3)

			parsed := decodeLine(&buf)
			Expect(parsed["msg"]).To(Equal("nourishment finished"))
			Expect(parsed["accepted"]).To(BeNumerically("==", 3))
		})

		It("writes pretty records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Info("recall ready")

			Expect(buf.String()).To(ContainSubstring("recall ready"))
		})

		It("fans out to several writers", func() {
			var a, b bytes.Buffer
			logger.New(logger.WithWriters(&a, &b)).Info("both")

			Expect(a.String()).To(ContainSubstring("both"))
			Expect(b.String()).To(ContainSubstring("both"))
		})
	})

	Describe("Nop", func() {
		It("is disabled for every level", func() {
			l := logger.Nop()
			Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
			Expect(func() { l.With("k", "v").WithGroup("g").Error("x") }).NotTo(Panic())
		})
	})

	Describe("Multi", func() {
		It("dispatches to every logger", func() {
			var a, b bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&a)), logger.New(logger.WithWriter(&b)))
			multi.Info("broadcast")

			Expect(a.String()).To(ContainSubstring("broadcast"))
			Expect(b.String()).To(ContainSubstring("broadcast"))
		})

		It("keeps attributes and groups", func() {
			var buf bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))
			multi.With("component", "recall").WithGroup("query").Info("searched", "text", "gatos")

			parsed := decodeLine(&buf)
			Expect(parsed["component"]).To(Equal("recall"))
			group, ok := parsed["query"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(group["text"]).To(Equal("gatos"))
		})

		It("skips nil loggers", func() {
			Expect(func() { logger.Multi(nil, logger.Nop()).Info("x") }).NotTo(Panic())
		})
	})
})
