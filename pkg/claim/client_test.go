package claim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Consume(t *testing.T) {
	label := "Register 3"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/onsite/public/claim/consume" {
			t.Errorf("path = %s, want /onsite/public/claim/consume", r.URL.Path)
		}
		var req ConsumeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.ClaimID != "claim-1" {
			t.Errorf("ClaimID = %q, want claim-1", req.ClaimID)
		}
		json.NewEncoder(w).Encode(ConsumeResponse{ServerUID: "uid-123", ServerLabel: &label})
	}))
	defer srv.Close()

	c := NewClient()
	resp, err := c.Consume(context.Background(), srv.URL, ConsumeRequest{ClaimID: "claim-1", ClaimCode: "code-1"})
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if resp.ServerUID != "uid-123" {
		t.Errorf("ServerUID = %q, want uid-123", resp.ServerUID)
	}
}

func TestClient_Consume_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient()
	_, err := c.Consume(context.Background(), srv.URL, ConsumeRequest{ClaimID: "x", ClaimCode: "y"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestClient_Consume_Unreachable(t *testing.T) {
	c := NewClient()
	_, err := c.Consume(context.Background(), "http://127.0.0.1:1", ConsumeRequest{ClaimID: "x", ClaimCode: "y"})
	if err == nil {
		t.Fatal("expected error calling an unreachable server")
	}
}

func TestClient_Finalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/onsite/public/claim/finalize" {
			t.Errorf("path = %s, want /onsite/public/claim/finalize", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient()
	err := c.Finalize(context.Background(), srv.URL, FinalizeRequest{FinalizeToken: "tok"})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
}

func TestClient_Finalize_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient()
	err := c.Finalize(context.Background(), srv.URL, FinalizeRequest{FinalizeToken: "tok"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
