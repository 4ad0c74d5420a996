package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrMissingMerchantOrderID = errors.New("webhook does not reference a merchant order")

// Event is the processor's transaction callback envelope.
type Event struct {
	Type string      `json:"type"`
	Obj  Transaction `json:"obj"`

	raw []byte
}

type Transaction struct {
	ID                   int64           `json:"id"`
	Pending              bool            `json:"pending"`
	AmountCents          int64           `json:"amount_cents"`
	Success              bool            `json:"success"`
	IsAuth               bool            `json:"is_auth"`
	IsCapture            bool            `json:"is_capture"`
	IsStandalonePayment  bool            `json:"is_standalone_payment"`
	IsVoided             bool            `json:"is_voided"`
	IsRefunded           bool            `json:"is_refunded"`
	Is3DSecure           bool            `json:"is_3d_secure"`
	IntegrationID        int64           `json:"integration_id"`
	HasParentTransaction bool            `json:"has_parent_transaction"`
	Owner                int64           `json:"owner"`
	CreatedAt            string          `json:"created_at"`
	Currency             string          `json:"currency"`
	ErrorOccured         bool            `json:"error_occured"`
	Order                *OrderRef       `json:"order"`
	SourceData           SourceData      `json:"source_data"`
	Data                 TransactionData `json:"data"`
}

type OrderRef struct {
	ID              int64  `json:"id"`
	MerchantOrderID string `json:"merchant_order_id"`
}

type SourceData struct {
	Pan     string `json:"pan"`
	SubType string `json:"sub_type"`
	Type    string `json:"type"`
}

type TransactionData struct {
	Message string `json:"message"`
}

// ParseEvent decodes a callback body and keeps the raw bytes for audit.
func ParseEvent(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	e.raw = append([]byte(nil), body...)
	return &e, nil
}

// Raw returns the payload exactly as received.
func (e *Event) Raw() []byte {
	return e.raw
}

// MerchantOrderID returns our order id embedded in the callback.
func (e *Event) MerchantOrderID() (uuid.UUID, error) {
	if e.Obj.Order == nil || e.Obj.Order.MerchantOrderID == "" {
		return uuid.Nil, ErrMissingMerchantOrderID
	}
	id, err := uuid.Parse(e.Obj.Order.MerchantOrderID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrMissingMerchantOrderID, err)
	}
	return id, nil
}
