package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cardinalpay/sift/pkg/eventstream"
	"github.com/cardinalpay/sift/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("creates a non-nil publisher", func() {
		p := nop.NewPublisher()
		Expect(p).NotTo(BeNil())
	})

	It("returns ErrNilAnalysisEvent for nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishAnalysis(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilAnalysisEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishAnalysis(context.Background(), &eventstream.TransactionAnalyzedEvent{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("closes successfully", func() {
		p := nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
