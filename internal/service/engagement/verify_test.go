package engagement

import (
	"errors"
	"strings"
	"testing"
)

const testSecret = "whsec_test"

func TestVerifyValidSignature(t *testing.T) {
	body := []byte(`{"event":"opened","email":"a@b.com"}`)
	header := SignatureHeaderValue(testSecret, 1_700_000_000, body)

	if err := Verify(testSecret, header, body); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifyFlippedDigestCharacterFails(t *testing.T) {
	body := []byte(`{"event":"opened"}`)
	header := SignatureHeaderValue(testSecret, 1_700_000_000, body)
	idx := strings.Index(header, "v1=") + len("v1=")

	for i := idx; i < len(header); i++ {
		flipped := []byte(header)
		if flipped[i] == '0' {
			flipped[i] = '1'
		} else {
			flipped[i] = '0'
		}
		if err := Verify(testSecret, string(flipped), body); !errors.Is(err, ErrSignature) {
			t.Fatalf("expected ErrSignature with char %d flipped, got %v", i, err)
		}
	}
}

func TestVerifyMissingHeaderAndBadDigestShareRejection(t *testing.T) {
	body := []byte(`{}`)
	missing := Verify(testSecret, "", body)
	bad := Verify(testSecret, "t=1700000000,v1=deadbeef", body)

	if !errors.Is(missing, ErrSignature) || !errors.Is(bad, ErrSignature) {
		t.Fatalf("expected ErrSignature for both, got %v and %v", missing, bad)
	}
	if missing != bad {
		t.Fatal("expected the same rejection error value")
	}
}

func TestVerifyMalformedHeaders(t *testing.T) {
	body := []byte(`{}`)
	good := SignatureHeaderValue(testSecret, 1_700_000_000, body)
	cases := []string{
		"v1=" + Sign(testSecret, "1700000000", body),
		"t=1700000000",
		"t=abc,v1=" + Sign(testSecret, "abc", body),
		good + ",garbage",
		"t=,v1=00",
	}
	for _, header := range cases {
		if err := Verify(testSecret, header, body); !errors.Is(err, ErrSignature) {
			t.Fatalf("expected rejection for %q, got %v", header, err)
		}
	}
}

func TestVerifyTimestampIsSigned(t *testing.T) {
	body := []byte(`{}`)
	header := "t=1700000001,v1=" + Sign(testSecret, "1700000000", body)
	if err := Verify(testSecret, header, body); !errors.Is(err, ErrSignature) {
		t.Fatalf("expected mismatch when timestamp changes, got %v", err)
	}
}

func TestVerifyRequiresSecret(t *testing.T) {
	body := []byte(`{}`)
	header := SignatureHeaderValue(testSecret, 1, body)
	if err := Verify(" ", header, body); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}
