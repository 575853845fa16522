package signature

import (
	"encoding/json"
	"testing"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("app-secret")
	payload := []byte(`{"object":"page","entry":[{"messaging":[{"sender":{"id":"psid-1"}}]}]}`)

	header := v.Sign(payload)
	if !v.Verify(payload, header) {
		t.Fatal("expected signature over raw bytes to verify")
	}
}

func TestVerifier_RejectsAlteredBytes(t *testing.T) {
	v := NewVerifier("app-secret")
	payload := []byte(`{"object": "page", "entry": []}`)
	header := v.Sign(payload)

	// Re-serializing the parse changes whitespace and key layout; the MAC
	// must fail even though the JSON is semantically identical.
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	reserialized, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if string(reserialized) == string(payload) {
		t.Fatal("test payload must not survive re-serialization byte-for-byte")
	}
	if v.Verify(reserialized, header) {
		t.Fatal("expected re-serialized payload to fail verification")
	}
}

func TestVerifier_RejectsBadHeader(t *testing.T) {
	v := NewVerifier("app-secret")
	payload := []byte(`{}`)

	cases := map[string]string{
		"empty":        "",
		"no prefix":    "deadbeef",
		"bad hex":      "sha256=zzzz",
		"wrong secret": NewVerifier("other-secret").Sign(payload),
	}
	for name, header := range cases {
		if v.Verify(payload, header) {
			t.Fatalf("%s: expected verification failure", name)
		}
	}
}

func TestVerifier_EmptySecretNeverVerifies(t *testing.T) {
	v := NewVerifier("")
	payload := []byte(`{}`)
	if v.Verify(payload, v.Sign(payload)) {
		t.Fatal("verifier without a secret must reject everything")
	}
}
