package fraud_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cardinalpay/sift/pkg/fraud"
	"github.com/cardinalpay/sift/pkg/transaction"
	"github.com/cardinalpay/sift/pkg/vector"
)

// baseline is the typical historical transaction the neighbors are built
// from: ~$100, mobile, credit card, Seattle.
func baseline() transaction.Transaction {
	return transaction.Transaction{
		Amount:        100,
		DeviceType:    "mobile",
		PaymentMethod: "Credit Card",
		Location: transaction.Location{
			City:    "Seattle",
			State:   "WA",
			Country: "USA",
		},
		Retailer:         "Fresh Mart",
		RetailerCategory: "Grocery",
		Time:             "14:30",
	}
}

// neighborsOf wraps transactions into scored search results.
func neighborsOf(txns ...transaction.Transaction) []vector.Neighbor {
	neighbors := make([]vector.Neighbor, len(txns))
	for i, t := range txns {
		neighbors[i] = vector.Neighbor{
			ID:      uint64(i),
			Score:   0.95,
			Payload: t.Payload(),
		}
	}
	return neighbors
}

// uniformNeighbors builds n identical neighbors from the baseline.
func uniformNeighbors(n int) []vector.Neighbor {
	txns := make([]transaction.Transaction, n)
	for i := range txns {
		txns[i] = baseline()
	}
	return neighborsOf(txns...)
}

var _ = Describe("Analyze", func() {
	explain := fraud.Options{Explain: true}

	It("fails with ErrInsufficientHistory on an empty neighbor set", func() {
		_, err := fraud.Analyze(baseline(), nil, explain)
		Expect(err).To(MatchError(fraud.ErrInsufficientHistory))
	})

	It("scores zero with an empty explanation when nothing is unusual", func() {
		analysis, err := fraud.Analyze(baseline(), uniformNeighbors(5), explain)
		Expect(err).NotTo(HaveOccurred())
		Expect(analysis.Score).To(BeZero())
		Expect(analysis.Explanation.Empty()).To(BeTrue())
	})

	It("fails hard on a malformed neighbor payload", func() {
		neighbors := uniformNeighbors(3)
		delete(neighbors[1].Payload, "amount")

		_, err := fraud.Analyze(baseline(), neighbors, explain)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, transaction.ErrInvalidTransaction)).To(BeTrue())
	})

	Describe("amount deviation", func() {
		It("fires when the amount strictly exceeds twice the neighbor mean", func() {
			txn := baseline()
			txn.Amount = 201

			analysis, err := fraud.Analyze(txn, uniformNeighbors(5), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Score).To(BeNumerically("==", 0.3))
			Expect(analysis.Explanation.Amount).NotTo(BeNil())
			Expect(analysis.Explanation.Amount.Current).To(Equal(201.0))
			Expect(analysis.Explanation.Amount.Typical).To(Equal(100.0))
		})

		It("does not fire at exactly twice the mean", func() {
			txn := baseline()
			txn.Amount = 200

			analysis, err := fraud.Analyze(txn, uniformNeighbors(5), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Score).To(BeZero())
			Expect(analysis.Explanation.Amount).To(BeNil())
		})

		It("formats a round difference without a decimal", func() {
			txn := baseline()
			txn.Amount = 1000

			analysis, err := fraud.Analyze(txn, uniformNeighbors(5), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Explanation.Amount.Difference).To(Equal("900% higher"))
		})

		It("formats a fractional difference to one decimal", func() {
			txn := baseline()
			txn.Amount = 250.5

			analysis, err := fraud.Analyze(txn, uniformNeighbors(4), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Explanation.Amount.Difference).To(Equal("150.5% higher"))
		})

		It("averages over uneven neighbor amounts", func() {
			a, b := baseline(), baseline()
			a.Amount = 50
			b.Amount = 150 // mean 100

			txn := baseline()
			txn.Amount = 200
			analysis, err := fraud.Analyze(txn, neighborsOf(a, b), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Explanation.Amount).To(BeNil())

			txn.Amount = 200.01
			analysis, err = fraud.Analyze(txn, neighborsOf(a, b), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Explanation.Amount).NotTo(BeNil())
		})
	})

	Describe("device novelty", func() {
		It("fires when the device is absent from the neighbor set", func() {
			txn := baseline()
			txn.DeviceType = "desktop"

			analysis, err := fraud.Analyze(txn, uniformNeighbors(5), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Score).To(BeNumerically("==", 0.2))
			Expect(analysis.Explanation.Device).NotTo(BeNil())
			Expect(analysis.Explanation.Device.Current).To(Equal("desktop"))
			Expect(analysis.Explanation.Device.Typical).To(Equal([]string{"mobile"}))
		})

		It("matches case-sensitively", func() {
			txn := baseline()
			txn.DeviceType = "Mobile"

			analysis, err := fraud.Analyze(txn, uniformNeighbors(5), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Explanation.Device).NotTo(BeNil())
		})

		It("does not fire when any neighbor shares the device", func() {
			other := baseline()
			other.DeviceType = "desktop"

			txn := baseline()
			txn.DeviceType = "desktop"

			analysis, err := fraud.Analyze(txn, neighborsOf(baseline(), other, baseline()), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Explanation.Device).To(BeNil())
		})
	})

	Describe("location novelty", func() {
		It("fires on an unseen city/state pair", func() {
			txn := baseline()
			txn.Location.City = "Miami"
			txn.Location.State = "FL"

			analysis, err := fraud.Analyze(txn, uniformNeighbors(5), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Score).To(BeNumerically("==", 0.3))
			Expect(analysis.Explanation.Location.Current).To(Equal("Miami, FL"))
			Expect(analysis.Explanation.Location.Typical).To(Equal([]string{"Seattle, WA"}))
		})

		It("treats city and state as a pair, not independently", func() {
			txn := baseline()
			txn.Location.State = "OR" // Seattle, OR never seen

			analysis, err := fraud.Analyze(txn, uniformNeighbors(5), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Explanation.Location).NotTo(BeNil())
		})
	})

	Describe("payment-method novelty", func() {
		It("fires on an unseen method", func() {
			txn := baseline()
			txn.PaymentMethod = "Crypto"

			analysis, err := fraud.Analyze(txn, uniformNeighbors(5), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Score).To(BeNumerically("==", 0.2))
			Expect(analysis.Explanation.PaymentMethod.Current).To(Equal("Crypto"))
		})
	})

	Describe("weight combinations", func() {
		It("sums amount and location to 0.6", func() {
			txn := baseline()
			txn.Amount = 1000
			txn.Location.City = "Miami"
			txn.Location.State = "FL"

			analysis, err := fraud.Analyze(txn, uniformNeighbors(5), explain)
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.Score).To(BeNumerically("~", 0.6, 1e-9))
			Expect(analysis.Explanation.Amount).NotTo(BeNil())
			Expect(analysis.Explanation.Location).NotTo(BeNil())
			Expect(analysis.Explanation.Device).To(BeNil())
			Expect(analysis.Explanation.PaymentMethod).To(BeNil())
		})

		It("sums amount, device and payment method to 0.7", func() {
			txn := baseline()
			txn.Amount = 1000
			txn.DeviceType = "desktop"
			txn.PaymentMethod = "Crypto"

			score, err := fraud.Score(txn, uniformNeighbors(5))
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("~", 0.7, 1e-9))
		})

		It("sums amount, device and location to 0.8", func() {
			txn := baseline()
			txn.Amount = 1000
			txn.DeviceType = "desktop"
			txn.Location.City = "Miami"
			txn.Location.State = "FL"

			score, err := fraud.Score(txn, uniformNeighbors(5))
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("~", 0.8, 1e-9))
		})

		It("saturates at exactly 1.0 when all four fire", func() {
			txn := baseline()
			txn.Amount = 1000
			txn.DeviceType = "desktop"
			txn.PaymentMethod = "Crypto"
			txn.Location.City = "Miami"
			txn.Location.State = "FL"

			score, err := fraud.Score(txn, uniformNeighbors(5))
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("==", 1.0))
		})
	})

	It("withholds explanation details unless asked", func() {
		txn := baseline()
		txn.Amount = 1000

		analysis, err := fraud.Analyze(txn, uniformNeighbors(5), fraud.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(analysis.Score).To(BeNumerically("==", 0.3))
		Expect(analysis.Explanation).To(BeNil())
	})
})

var _ = Describe("Level", func() {
	It("buckets scores at the 0.4 and 0.7 thresholds", func() {
		Expect(fraud.Level(0)).To(Equal("Low"))
		Expect(fraud.Level(0.4)).To(Equal("Low"))
		Expect(fraud.Level(0.5)).To(Equal("Medium"))
		Expect(fraud.Level(0.7)).To(Equal("Medium"))
		Expect(fraud.Level(0.8)).To(Equal("High"))
		Expect(fraud.Level(1.0)).To(Equal("High"))
	})
})
