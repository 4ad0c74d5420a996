package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "shared-hmac-secret"

func sampleTransaction() Transaction {
	return Transaction{
		ID:                   192036465,
		Pending:              false,
		AmountCents:          15000,
		Success:              true,
		IsAuth:               false,
		IsCapture:            false,
		IsStandalonePayment:  true,
		IsVoided:             false,
		IsRefunded:           false,
		Is3DSecure:           true,
		IntegrationID:        4242,
		HasParentTransaction: false,
		Owner:                302852,
		CreatedAt:            "2026-06-15T12:00:00.123456",
		Currency:             "EGP",
		ErrorOccured:         false,
		Order:                &OrderRef{ID: 217503754, MerchantOrderID: "7b0c5f3e-1d2a-4c1e-9a57-0b7f3c2d1e10"},
		SourceData:           SourceData{Pan: "2346", SubType: "MasterCard", Type: "card"},
	}
}

func TestSigningString_FieldOrder(t *testing.T) {
	want := "15000" +
		"2026-06-15T12:00:00.123456" +
		"EGP" +
		"false" + // error_occured
		"false" + // has_parent_transaction
		"192036465" +
		"4242" +
		"true" + // is_3d_secure
		"false" + // is_auth
		"false" + // is_capture
		"false" + // is_refunded
		"true" + // is_standalone_payment
		"false" + // is_voided
		"217503754" +
		"302852" +
		"false" + // pending
		"2346" +
		"MasterCard" +
		"card" +
		"true" // success

	assert.Equal(t, want, SigningString(sampleTransaction()))
}

func TestVerify_ValidSignature(t *testing.T) {
	tx := sampleTransaction()
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write([]byte(SigningString(tx)))
	sig := hex.EncodeToString(mac.Sum(nil))

	v := NewVerifier(testSecret)

	assert.Equal(t, sig, v.Sign(tx))
	assert.True(t, v.Verify(tx, sig))
	assert.True(t, v.Verify(tx, strings.ToUpper(sig)), "hex case must not matter")
}

func TestVerify_TamperedFieldFails(t *testing.T) {
	v := NewVerifier(testSecret)
	sig := v.Sign(sampleTransaction())

	flip := func(s string) string {
		b := []byte(s)
		b[0] ^= 0x01
		return string(b)
	}

	tampers := map[string]func(tx *Transaction){
		"amount_cents":           func(tx *Transaction) { tx.AmountCents = 15001 },
		"created_at":             func(tx *Transaction) { tx.CreatedAt = flip(tx.CreatedAt) },
		"currency":               func(tx *Transaction) { tx.Currency = flip(tx.Currency) },
		"error_occured":          func(tx *Transaction) { tx.ErrorOccured = !tx.ErrorOccured },
		"has_parent_transaction": func(tx *Transaction) { tx.HasParentTransaction = !tx.HasParentTransaction },
		"id":                     func(tx *Transaction) { tx.ID = 192036464 },
		"integration_id":         func(tx *Transaction) { tx.IntegrationID = 4243 },
		"is_3d_secure":           func(tx *Transaction) { tx.Is3DSecure = !tx.Is3DSecure },
		"is_auth":                func(tx *Transaction) { tx.IsAuth = !tx.IsAuth },
		"is_capture":             func(tx *Transaction) { tx.IsCapture = !tx.IsCapture },
		"is_refunded":            func(tx *Transaction) { tx.IsRefunded = !tx.IsRefunded },
		"is_standalone_payment":  func(tx *Transaction) { tx.IsStandalonePayment = !tx.IsStandalonePayment },
		"is_voided":              func(tx *Transaction) { tx.IsVoided = !tx.IsVoided },
		"order.id":               func(tx *Transaction) { tx.Order = &OrderRef{ID: 217503755, MerchantOrderID: tx.Order.MerchantOrderID} },
		"owner":                  func(tx *Transaction) { tx.Owner = 302853 },
		"pending":                func(tx *Transaction) { tx.Pending = !tx.Pending },
		"source_data.pan":        func(tx *Transaction) { tx.SourceData.Pan = flip(tx.SourceData.Pan) },
		"source_data.sub_type":   func(tx *Transaction) { tx.SourceData.SubType = flip(tx.SourceData.SubType) },
		"source_data.type":       func(tx *Transaction) { tx.SourceData.Type = flip(tx.SourceData.Type) },
		"success":                func(tx *Transaction) { tx.Success = !tx.Success },
	}

	for field, tamper := range tampers {
		t.Run(field, func(t *testing.T) {
			tx := sampleTransaction()
			tamper(&tx)
			assert.False(t, v.Verify(tx, sig))
		})
	}
}

func TestVerify_TamperedSignatureFails(t *testing.T) {
	v := NewVerifier(testSecret)
	tx := sampleTransaction()
	sig := []byte(v.Sign(tx))

	for i := range sig {
		tampered := append([]byte(nil), sig...)
		if tampered[i] == '0' {
			tampered[i] = '1'
		} else {
			tampered[i] = '0'
		}
		require.Falsef(t, v.Verify(tx, string(tampered)), "byte %d", i)
	}
}

func TestVerify_FailsClosed(t *testing.T) {
	tx := sampleTransaction()
	good := NewVerifier(testSecret).Sign(tx)

	tests := []struct {
		name     string
		verifier *Verifier
		tx       func() Transaction
		sig      string
	}{
		{"empty secret", NewVerifier(""), sampleTransaction, good},
		{"wrong secret", NewVerifier("other"), sampleTransaction, good},
		{"empty signature", NewVerifier(testSecret), sampleTransaction, ""},
		{"non hex signature", NewVerifier(testSecret), sampleTransaction, "zz" + good[2:]},
		{"truncated signature", NewVerifier(testSecret), sampleTransaction, good[:64]},
		{"missing order", NewVerifier(testSecret), func() Transaction {
			tx := sampleTransaction()
			tx.Order = nil
			return tx
		}, good},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.verifier.Verify(tt.tx(), tt.sig))
		})
	}
}

func TestParseEvent(t *testing.T) {
	body := []byte(`{"type":"TRANSACTION","obj":{"id":5,"amount_cents":15000,"success":true,
		"order":{"id":9,"merchant_order_id":"7b0c5f3e-1d2a-4c1e-9a57-0b7f3c2d1e10"},
		"source_data":{"pan":"2346","sub_type":"MasterCard","type":"card"},
		"data":{"message":"Approved"}}}`)

	e, err := ParseEvent(body)
	require.NoError(t, err)

	assert.Equal(t, "TRANSACTION", e.Type)
	assert.Equal(t, int64(15000), e.Obj.AmountCents)
	assert.Equal(t, "Approved", e.Obj.Data.Message)
	assert.Equal(t, body, e.Raw())

	id, err := e.MerchantOrderID()
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("7b0c5f3e-1d2a-4c1e-9a57-0b7f3c2d1e10"), id)
}

func TestMerchantOrderID_Missing(t *testing.T) {
	e, err := ParseEvent([]byte(`{"type":"TRANSACTION","obj":{"id":5}}`))
	require.NoError(t, err)
	_, err = e.MerchantOrderID()
	assert.ErrorIs(t, err, ErrMissingMerchantOrderID)

	e, err = ParseEvent([]byte(`{"obj":{"order":{"id":1,"merchant_order_id":"not-a-uuid"}}}`))
	require.NoError(t, err)
	_, err = e.MerchantOrderID()
	assert.ErrorIs(t, err, ErrMissingMerchantOrderID)
}

func TestParseEvent_InvalidJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`{not json`))
	assert.Error(t, err)
}
