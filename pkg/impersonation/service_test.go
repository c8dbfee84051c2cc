package impersonation

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testParams() Params {
	return Params{
		StoreID:           uuid.New(),
		CloudAccountID:    uuid.New(),
		CloudAccountType:  "OWNER",
		CloudAccountEmail: "ops@radixpos.example",
		TenantID:          uuid.New(),
	}
}

func TestService_MintAndVerify(t *testing.T) {
	svc := NewService([]byte("test-signing-key-not-real"), "")
	p := testParams()

	link, err := svc.Mint(p, "STORE-042", time.Minute)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if link.StoreCode != "STORE-042" {
		t.Errorf("StoreCode = %q, want STORE-042", link.StoreCode)
	}
	if link.ExpiresInSeconds != 60 {
		t.Errorf("ExpiresInSeconds = %d, want 60", link.ExpiresInSeconds)
	}

	claims, err := svc.Verify(link.URL)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != p.CloudAccountID.String() {
		t.Errorf("claims.Subject = %q, want %q", claims.Subject, p.CloudAccountID.String())
	}
	if claims.ID != p.StoreID.String() {
		t.Errorf("claims.ID (store id) = %q, want %q", claims.ID, p.StoreID.String())
	}
	if claims.StoreCode != "STORE-042" {
		t.Errorf("claims.StoreCode = %q, want STORE-042", claims.StoreCode)
	}
}

func TestService_Mint_TTLClampedToMax(t *testing.T) {
	svc := NewService([]byte("test-signing-key"), "")
	p := testParams()

	link, err := svc.Mint(p, "STORE-001", time.Hour)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if link.ExpiresInSeconds != int(DefaultTTL.Seconds()) {
		t.Errorf("ExpiresInSeconds = %d, want %d (clamped to DefaultTTL)", link.ExpiresInSeconds, int(DefaultTTL.Seconds()))
	}
}

func TestService_Mint_ZeroTTLUsesDefault(t *testing.T) {
	svc := NewService([]byte("test-signing-key"), "")
	p := testParams()

	link, err := svc.Mint(p, "STORE-001", 0)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if link.ExpiresInSeconds != int(DefaultTTL.Seconds()) {
		t.Errorf("ExpiresInSeconds = %d, want %d", link.ExpiresInSeconds, int(DefaultTTL.Seconds()))
	}
}

func TestService_Mint_URLUsesTargetBase(t *testing.T) {
	svc := NewService([]byte("test-signing-key"), "https://default.example")
	p := testParams()

	link, err := svc.Mint(p, "STORE-001", time.Minute)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if !strings.HasPrefix(link.URL, "https://default.example/onsite/impersonate?token=") {
		t.Errorf("URL = %q, want default target base prefix", link.URL)
	}

	override := "https://support.example"
	p.TargetBaseURL = &override
	link2, err := svc.Mint(p, "STORE-001", time.Minute)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if !strings.HasPrefix(link2.URL, "https://support.example/onsite/impersonate?token=") {
		t.Errorf("URL = %q, want overridden target base prefix", link2.URL)
	}
}

func TestService_Verify_RejectsWrongKey(t *testing.T) {
	svc := NewService([]byte("key-one"), "")
	other := NewService([]byte("key-two"), "")
	p := testParams()

	link, err := svc.Mint(p, "STORE-001", time.Minute)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	if _, err := other.Verify(link.URL); err == nil {
		t.Error("expected Verify with wrong key to fail")
	}
}

func TestService_Verify_RejectsExpired(t *testing.T) {
	svc := NewService([]byte("test-signing-key"), "")
	p := testParams()

	link, err := svc.Mint(p, "STORE-001", time.Nanosecond)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := svc.Verify(link.URL); err == nil {
		t.Error("expected Verify to reject an expired token")
	}
}

func TestService_Verify_RejectsGarbage(t *testing.T) {
	svc := NewService([]byte("test-signing-key"), "")
	if _, err := svc.Verify("not-a-jwt"); err == nil {
		t.Error("expected Verify to reject a malformed token")
	}
}
