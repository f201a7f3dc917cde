package connectors

import (
	"errors"
	"testing"
)

func TestDecodeJSON_RepairsSloppyBody(t *testing.T) {
	// Trailing comma: invalid JSON, recoverable by repair.
	raw := []byte(`{"accounts": [{"id": "a1", "currentBalance": 1200.50},]}`)

	var list mercuryAccountList
	if err := decodeJSON("mercury", "/accounts", raw, &list); err != nil {
		t.Fatalf("repairable body should decode, got %v", err)
	}
	if len(list.Accounts) != 1 || list.Accounts[0].CurrentBalance != 1200.50 {
		t.Errorf("unexpected decode result %+v", list)
	}
}

func TestDecodeJSON_StrictBodyPassesThrough(t *testing.T) {
	raw := []byte(`{"accounts": [{"id": "a1", "currentBalance": 10}]}`)
	var list mercuryAccountList
	if err := decodeJSON("mercury", "/accounts", raw, &list); err != nil {
		t.Fatalf("valid body should decode, got %v", err)
	}
}

func TestDecodeJSON_HopelessBodyIsTransportError(t *testing.T) {
	var list mercuryAccountList
	err := decodeJSON("mercury", "/accounts", []byte(`<html>502 Bad Gateway</html>`), &list)
	if err == nil {
		t.Fatal("expected error for non-JSON body")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
}

func TestTransportError_Messages(t *testing.T) {
	withStatus := &TransportError{Source: "stripe", Op: "/balance", Status: 429}
	if withStatus.Error() != "stripe: /balance returned status 429" {
		t.Errorf("unexpected status message %q", withStatus.Error())
	}

	wrapped := errors.New("dial tcp: timeout")
	withErr := &TransportError{Source: "brex", Op: "/v2/accounts/card", Err: wrapped}
	if !errors.Is(withErr, wrapped) {
		t.Error("TransportError must unwrap to the underlying error")
	}
}
