// Package transaction defines the payment transaction schema shared by the
// analyze endpoint, the bulk loader, and the scoring heuristic.
package transaction

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTransaction is returned when an ingress payload is missing the
// fields scoring depends on.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Location is the place a transaction occurred.
type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Transaction is an immutable payment record. The identity fields
// (TransactionID, Date, CardLastFour, IPAddress) are carried into the vector
// store payload but never scored.
type Transaction struct {
	Amount           float64  `json:"amount"`
	Location         Location `json:"location"`
	PaymentMethod    string   `json:"payment_method"`
	DeviceType       string   `json:"device_type"`
	Retailer         string   `json:"retailer"`
	RetailerCategory string   `json:"retailer_category"`
	Time             string   `json:"time"`

	TransactionID string `json:"transaction_id,omitempty"`
	Date          string `json:"date,omitempty"`
	CardLastFour  string `json:"card_last_four,omitempty"`
	IPAddress     string `json:"ip_address,omitempty"`
}

// Validate checks that the fields scoring depends on are present.
func (t Transaction) Validate() error {
	switch {
	case t.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	case t.Location.City == "" || t.Location.State == "":
		return fmt.Errorf("%w: location city and state are required", ErrInvalidTransaction)
	case t.PaymentMethod == "":
		return fmt.Errorf("%w: payment_method is required", ErrInvalidTransaction)
	case t.DeviceType == "":
		return fmt.Errorf("%w: device_type is required", ErrInvalidTransaction)
	}
	return nil
}

// CityState returns the "City, State" form used for location novelty checks.
func (t Transaction) CityState() string {
	return t.Location.City + ", " + t.Location.State
}

// EmbeddingText renders the transaction as the deterministic text block fed
// to the embedding provider. The field order is fixed; changing it would
// shift every new query relative to the stored historical vectors.
func (t Transaction) EmbeddingText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Amount: %s\n", formatAmount(t.Amount))
	fmt.Fprintf(&b, "Location: %s, %s, %s\n", t.Location.City, t.Location.State, t.Location.Country)
	fmt.Fprintf(&b, "Payment Method: %s\n", t.PaymentMethod)
	fmt.Fprintf(&b, "Device: %s\n", t.DeviceType)
	fmt.Fprintf(&b, "Retailer: %s\n", t.Retailer)
	fmt.Fprintf(&b, "Category: %s\n", t.RetailerCategory)
	fmt.Fprintf(&b, "Time: %s", t.Time)

	return strings.TrimSpace(b.String())
}

// Payload converts the transaction to the structured fields stored alongside
// its embedding in the vector store.
func (t Transaction) Payload() map[string]any {
	return map[string]any{
		"transaction_id":    t.TransactionID,
		"date":              t.Date,
		"time":              t.Time,
		"amount":            t.Amount,
		"retailer":          t.Retailer,
		"retailer_category": t.RetailerCategory,
		"payment_method":    t.PaymentMethod,
		"card_last_four":    t.CardLastFour,
		"device_type":       t.DeviceType,
		"location": map[string]any{
			"city":    t.Location.City,
			"state":   t.Location.State,
			"country": t.Location.Country,
		},
		"ip_address": t.IPAddress,
	}
}

// FromPayload reconstructs a transaction from a stored payload. The fields
// the scoring heuristic reads (amount, device_type, payment_method, location
// city/state) are mandatory; a missing or mistyped one is a hard error so a
// corrupt record can never silently skew a score.
func FromPayload(payload map[string]any) (Transaction, error) {
	var t Transaction

	amount, err := payloadNumber(payload, "amount")
	if err != nil {
		return t, err
	}
	t.Amount = amount

	if t.DeviceType, err = payloadString(payload, "device_type"); err != nil {
		return t, err
	}
	if t.PaymentMethod, err = payloadString(payload, "payment_method"); err != nil {
		return t, err
	}

	loc, ok := payload["location"].(map[string]any)
	if !ok {
		return t, fmt.Errorf("payload field location: missing or not an object")
	}
	if t.Location.City, err = payloadString(loc, "city"); err != nil {
		return t, fmt.Errorf("payload field location.%w", err)
	}
	if t.Location.State, err = payloadString(loc, "state"); err != nil {
		return t, fmt.Errorf("payload field location.%w", err)
	}
	if country, ok := loc["country"].(string); ok {
		t.Location.Country = country
	}

	// Identity fields are best-effort; they are display-only.
	t.TransactionID, _ = payload["transaction_id"].(string)
	t.Date, _ = payload["date"].(string)
	t.Time, _ = payload["time"].(string)
	t.Retailer, _ = payload["retailer"].(string)
	t.RetailerCategory, _ = payload["retailer_category"].(string)
	t.CardLastFour, _ = payload["card_last_four"].(string)
	t.IPAddress, _ = payload["ip_address"].(string)

	return t, nil
}

func payloadString(payload map[string]any, key string) (string, error) {
	v, ok := payload[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("payload field %s: missing or not a string", key)
	}
	return v, nil
}

func payloadNumber(payload map[string]any, key string) (float64, error) {
	switch v := payload[key].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("payload field %s: missing or not a number", key)
	}
}

func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}
