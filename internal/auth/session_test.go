package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewSessionManager_RejectsShortSecret(t *testing.T) {
	if _, err := NewSessionManager("too-short", time.Hour); err == nil {
		t.Fatal("expected error for a secret under 32 bytes")
	}
}

func TestSessionManager_IssueAndValidate(t *testing.T) {
	mgr, err := NewSessionManager(GenerateDevSecret(), time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	resellerID := uuid.New()
	in := &Session{
		AccountID:   uuid.New(),
		AccountType: TypeReseller,
		Email:       "ops@radixpos.example",
		DisplayName: "Ops Reseller",
		ResellerID:  &resellerID,
	}

	token, err := mgr.IssueToken(in)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	out, err := mgr.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if out.AccountID != in.AccountID {
		t.Errorf("AccountID = %v, want %v", out.AccountID, in.AccountID)
	}
	if out.AccountType != in.AccountType {
		t.Errorf("AccountType = %v, want %v", out.AccountType, in.AccountType)
	}
	if out.ResellerID == nil || *out.ResellerID != resellerID {
		t.Errorf("ResellerID = %v, want %v", out.ResellerID, resellerID)
	}
	if out.TenantID != nil {
		t.Errorf("TenantID = %v, want nil", out.TenantID)
	}
	if out.Method != MethodSession {
		t.Errorf("Method = %v, want %v", out.Method, MethodSession)
	}
}

func TestSessionManager_ValidateToken_RejectsWrongKey(t *testing.T) {
	mgrA, _ := NewSessionManager(GenerateDevSecret(), time.Hour)
	mgrB, _ := NewSessionManager(GenerateDevSecret(), time.Hour)

	token, err := mgrA.IssueToken(&Session{AccountID: uuid.New(), AccountType: TypeOwner})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if _, err := mgrB.ValidateToken(token); err == nil {
		t.Error("expected ValidateToken to reject a token signed with a different key")
	}
}

func TestSessionManager_ValidateToken_RejectsExpired(t *testing.T) {
	mgr, _ := NewSessionManager(GenerateDevSecret(), time.Nanosecond)

	token, err := mgr.IssueToken(&Session{AccountID: uuid.New(), AccountType: TypeOwner})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := mgr.ValidateToken(token); err == nil {
		t.Error("expected ValidateToken to reject an expired token")
	}
}

func TestSessionManager_ValidateToken_RejectsMalformed(t *testing.T) {
	mgr, _ := NewSessionManager(GenerateDevSecret(), time.Hour)
	if _, err := mgr.ValidateToken("not.a.jwt"); err == nil {
		t.Error("expected ValidateToken to reject a malformed token")
	}
}

func TestGenerateDevSecret_UniqueAndLongEnough(t *testing.T) {
	a := GenerateDevSecret()
	b := GenerateDevSecret()
	if a == b {
		t.Error("expected two dev secrets to differ")
	}
	if len(a) < 32 {
		t.Errorf("len(GenerateDevSecret()) = %d, want at least 32", len(a))
	}
	if strings.Contains(a, "=") {
		t.Error("expected raw-url-base64 encoding with no padding")
	}
}
