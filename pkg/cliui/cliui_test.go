package cliui_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sassy/pkg/cliui"
)

var _ = Describe("cliui", func() {
	It("formats short and long durations", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})

	It("marks errors", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("x"))).To(Equal(cliui.FailMark))
	})

	It("runs a step and reports its error", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")

		err := cliui.Step(&buf, "loading memories", func() error { return boom })
		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("loading memories"))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
	})

	It("ends with the result line once the step is done", func() {
		var buf bytes.Buffer

		err := cliui.Step(&buf, "opening stores", func() error {
			time.Sleep(200 * time.Millisecond)
			return nil
		})
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(buf.String(), "\r")
		last := lines[len(lines)-1]
		Expect(last).To(ContainSubstring(cliui.SuccessMark))
		Expect(last).To(HaveSuffix("\n"))
		Expect(last).To(MatchRegexp(`\(\d+ms\)`))
	})

	It("does not treat a regular file as a terminal", func() {
		f, err := os.CreateTemp(GinkgoT().TempDir(), "tty")
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		Expect(cliui.IsTerminal(f.Fd())).To(BeFalse())
	})
})
