package qdrant

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	qdrantpb "github.com/qdrant/go-client/qdrant"

	"github.com/cardinalpay/sift/pkg/logger"
)

var _ = Describe("parseTarget", func() {
	It("parses an https cloud URL with TLS and the default port", func() {
		host, port, tls, err := parseTarget("https://xyz.us-west-1-0.aws.cloud.qdrant.io")
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("xyz.us-west-1-0.aws.cloud.qdrant.io"))
		Expect(port).To(Equal(6334))
		Expect(tls).To(BeTrue())
	})

	It("parses an http URL with an explicit port", func() {
		host, port, tls, err := parseTarget("http://localhost:6334")
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("localhost"))
		Expect(port).To(Equal(6334))
		Expect(tls).To(BeFalse())
	})

	It("accepts a bare host:port", func() {
		host, port, tls, err := parseTarget("localhost:7001")
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("localhost"))
		Expect(port).To(Equal(7001))
		Expect(tls).To(BeFalse())
	})

	It("rejects a garbage port", func() {
		_, _, _, err := parseTarget("http://localhost:notaport")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("payloadToMap", func() {
	It("round trips nested payload values", func() {
		payload := qdrantpb.NewValueMap(map[string]any{
			"amount":         99.5,
			"device_type":    "mobile",
			"indexed":        true,
			"location":       map[string]any{"city": "Seattle", "state": "WA"},
			"tags":           []any{"a", "b"},
			"transaction_id": "txn-1",
		})

		out := payloadToMap(payload)
		Expect(out["amount"]).To(Equal(99.5))
		Expect(out["device_type"]).To(Equal("mobile"))
		Expect(out["indexed"]).To(Equal(true))
		Expect(out["location"]).To(Equal(map[string]any{"city": "Seattle", "state": "WA"}))
		Expect(out["tags"]).To(Equal([]any{"a", "b"}))
	})
})

var _ = Describe("NewDriver", func() {
	It("requires a target", func() {
		_, err := NewDriver(Config{Dimensions: 1536}, logger.Nop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("target URL is required"))
	})

	It("requires dimensions", func() {
		_, err := NewDriver(Config{Target: "http://localhost:6334"}, logger.Nop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("dimensions"))
	})
})
