package loader

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/cardinalpay/sift/pkg/transaction"
)

//go:embed payments_history.json
var paymentsHistory []byte

// dataset is the on-disk shape of the bundled historical dataset.
type dataset struct {
	PaymentHistory []transaction.Transaction `json:"payment_history"`
}

// Dataset returns the bundled historical transaction dataset, in file order.
func Dataset() ([]transaction.Transaction, error) {
	var d dataset
	if err := json.Unmarshal(paymentsHistory, &d); err != nil {
		return nil, fmt.Errorf("parsing bundled payment history: %w", err)
	}
	return d.PaymentHistory, nil
}
