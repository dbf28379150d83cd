package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cardinalpay/sift/pkg/logger"
	"github.com/cardinalpay/sift/pkg/transaction"
	testutils "github.com/cardinalpay/sift/pkg/utils/test"
	"github.com/cardinalpay/sift/pkg/vector"
)

func neighborFixture(id uint64, amount float64, device, city, state, method string) vector.Neighbor {
	txn := transaction.Transaction{
		Amount:        amount,
		DeviceType:    device,
		PaymentMethod: method,
		Location: transaction.Location{
			City:    city,
			State:   state,
			Country: "USA",
		},
		Retailer:         "Fresh Mart",
		RetailerCategory: "Grocery",
		Time:             "14:30",
	}
	return vector.Neighbor{
		ID:      id,
		Score:   0.9,
		Payload: txn.Payload(),
	}
}

func typicalNeighbors(n int) []vector.Neighbor {
	neighbors := make([]vector.Neighbor, n)
	for i := range neighbors {
		neighbors[i] = neighborFixture(uint64(i), 100, "mobile", "Seattle", "WA", "Credit Card")
	}
	return neighbors
}

var _ = Describe("analyze handlers", func() {
	var (
		server       *Server
		embedder     *testutils.MockEmbedder
		vectorDriver *testutils.MockVectorDriver
		publisher    *testutils.MockPublisher
	)

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		vectorDriver = testutils.NewMockVectorDriver()
		publisher = testutils.NewMockPublisher()
		server = NewServer(
			Config{ListenAddr: ":0"},
			embedder,
			vectorDriver,
			publisher,
			logger.Nop(),
		)
	})

	postJSON := func(path string, body any) *http.Response {
		payload, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decodeBody := func(resp *http.Response) map[string]any {
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())

		var body map[string]any
		Expect(json.Unmarshal(raw, &body)).To(Succeed())
		return body
	}

	suspiciousTransaction := func() transaction.Transaction {
		return transaction.Transaction{
			Amount:        1000,
			DeviceType:    "mobile",
			PaymentMethod: "Credit Card",
			Location: transaction.Location{
				City:    "Seattle",
				State:   "WA",
				Country: "USA",
			},
		}
	}

	Describe("POST /analyze-fraud", func() {
		It("returns the score, analysis, and neighbor set", func() {
			vectorDriver.Neighbors = typicalNeighbors(8)

			resp := postJSON("/analyze-fraud", suspiciousTransaction())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body := decodeBody(resp)
			Expect(body["fraudScore"]).To(BeNumerically("==", 0.3))
			Expect(body).To(HaveKey("analysis"))

			analysis := body["analysis"].(map[string]any)
			Expect(analysis).To(HaveKey("amount"))
			amount := analysis["amount"].(map[string]any)
			Expect(amount["difference"]).To(Equal("900% higher"))

			// trimmed to the interactive neighbor limit
			Expect(body["similarTransactions"]).To(HaveLen(5))
		})

		It("omits the analysis object when nothing is unusual", func() {
			vectorDriver.Neighbors = typicalNeighbors(5)

			txn := suspiciousTransaction()
			txn.Amount = 100
			resp := postJSON("/analyze-fraud", txn)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body := decodeBody(resp)
			Expect(body["fraudScore"]).To(BeNumerically("==", 0))
			Expect(body).NotTo(HaveKey("analysis"))
		})

		It("publishes an analysis event", func() {
			vectorDriver.Neighbors = typicalNeighbors(5)

			resp := postJSON("/analyze-fraud", suspiciousTransaction())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			Expect(publisher.Events).To(HaveLen(1))
			event := publisher.Events[0]
			Expect(event.EventType).To(Equal("sift.transaction.analyzed"))
			Expect(event.Result.Score).To(BeNumerically("==", 0.3))
			Expect(event.Result.Level).To(Equal("Low"))
			Expect(event.Result.NeighborCount).To(Equal(5))
		})

		It("still succeeds when event publishing fails", func() {
			vectorDriver.Neighbors = typicalNeighbors(5)
			publisher.Err = fmt.Errorf("broker unavailable")

			resp := postJSON("/analyze-fraud", suspiciousTransaction())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("returns a generic 500 on malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/analyze-fraud", bytes.NewReader([]byte("{not json")))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(decodeBody(resp)["error"]).To(Equal("Error analyzing transaction"))
		})

		It("returns a generic 500 on a schema-invalid transaction", func() {
			vectorDriver.Neighbors = typicalNeighbors(5)

			txn := suspiciousTransaction()
			txn.DeviceType = ""
			resp := postJSON("/analyze-fraud", txn)
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(decodeBody(resp)["error"]).To(Equal("Error analyzing transaction"))
		})

		It("returns a generic 500 on an embedding failure", func() {
			vectorDriver.Neighbors = typicalNeighbors(5)
			embedder.FailOn = suspiciousTransaction().EmbeddingText()

			resp := postJSON("/analyze-fraud", suspiciousTransaction())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(decodeBody(resp)["error"]).To(Equal("Error analyzing transaction"))
		})

		It("returns a generic 500 on a search failure", func() {
			vectorDriver.SearchErr = fmt.Errorf("connection refused")

			resp := postJSON("/analyze-fraud", suspiciousTransaction())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(decodeBody(resp)["error"]).To(Equal("Error analyzing transaction"))
		})

		It("returns a generic 500 when the store has no history", func() {
			vectorDriver.Neighbors = nil

			resp := postJSON("/analyze-fraud", suspiciousTransaction())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(decodeBody(resp)["error"]).To(Equal("Error analyzing transaction"))
		})
	})

	Describe("POST /analyze-fraud/history", func() {
		It("scores against up to 50 neighbors without explanations", func() {
			vectorDriver.Neighbors = typicalNeighbors(60)

			resp := postJSON("/analyze-fraud/history", suspiciousTransaction())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body := decodeBody(resp)
			Expect(body["fraudScore"]).To(BeNumerically("==", 0.3))
			Expect(body).NotTo(HaveKey("analysis"))
			Expect(body["similarTransactions"]).To(HaveLen(50))
		})
	})

	Describe("GET /ping", func() {
		It("responds with pong", func() {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			raw, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal(`"pong"`))
		})
	})

	Describe("GET /", func() {
		It("serves the form UI", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			raw, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(ContainSubstring("Analyze Transaction"))
		})
	})
})
