package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cardinalpay/sift/pkg/embeddings/openai"
	"github.com/cardinalpay/sift/pkg/vector"
)

var _ = Describe("Embedder", func() {
	Describe("NewEmbedder", func() {
		It("requires an API key", func() {
			_, err := openai.NewEmbedder(openai.EmbedderConfig{})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("API key"))
		})

		It("creates an embedder with defaults applied", func() {
			embedder, err := openai.NewEmbedder(openai.EmbedderConfig{
				APIKey: "sk-test",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(embedder).NotTo(BeNil())
		})
	})

	Describe("Embed", func() {
		var (
			server      *httptest.Server
			gotPath     string
			gotAuth     string
			gotBody     map[string]any
			respStatus  int
			respPayload string
		)

		BeforeEach(func() {
			respStatus = http.StatusOK
			respPayload = `{"data":[{"embedding":[0.1,0.2,0.3],"index":0}]}`
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				Expect(json.NewDecoder(r.Body).Decode(&gotBody)).To(Succeed())
				w.WriteHeader(respStatus)
				w.Write([]byte(respPayload))
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		newEmbedder := func() *openai.Embedder {
			embedder, err := openai.NewEmbedder(openai.EmbedderConfig{
				BaseURL: server.URL,
				APIKey:  "sk-test",
			})
			Expect(err).NotTo(HaveOccurred())
			return embedder
		}

		It("posts the text to the embeddings endpoint", func() {
			embedder := newEmbedder()
			defer embedder.Close()

			embedding, err := embedder.Embed(context.Background(), "Amount: 120.5")
			Expect(err).NotTo(HaveOccurred())
			Expect(embedding).To(Equal([]float32{0.1, 0.2, 0.3}))

			Expect(gotPath).To(Equal("/v1/embeddings"))
			Expect(gotAuth).To(Equal("Bearer sk-test"))
			Expect(gotBody["input"]).To(Equal("Amount: 120.5"))
			Expect(gotBody["model"]).To(Equal(openai.DefaultEmbeddingModel))
		})

		It("uses the configured model", func() {
			embedder, err := openai.NewEmbedder(openai.EmbedderConfig{
				BaseURL: server.URL,
				Model:   "text-embedding-3-small",
				APIKey:  "sk-test",
			})
			Expect(err).NotTo(HaveOccurred())
			defer embedder.Close()

			_, err = embedder.Embed(context.Background(), "hello")
			Expect(err).NotTo(HaveOccurred())
			Expect(gotBody["model"]).To(Equal("text-embedding-3-small"))
		})

		It("propagates API errors without retrying", func() {
			respStatus = http.StatusTooManyRequests
			respPayload = `{"error":{"message":"rate limited"}}`

			embedder := newEmbedder()
			defer embedder.Close()

			_, err := embedder.Embed(context.Background(), "hello")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, vector.ErrEmbedding)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("429"))
		})

		It("fails when the response carries no embeddings", func() {
			respPayload = `{"data":[]}`

			embedder := newEmbedder()
			defer embedder.Close()

			_, err := embedder.Embed(context.Background(), "hello")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, vector.ErrEmbedding)).To(BeTrue())
		})

		It("respects context cancellation", func() {
			embedder := newEmbedder()
			defer embedder.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := embedder.Embed(ctx, "hello")
			Expect(err).To(HaveOccurred())
		})
	})
})
