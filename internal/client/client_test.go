package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Jimix91/ticketflow/internal/models"
)

func TestBearerTokenThreading(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]models.Ticket{})
	}))
	defer srv.Close()

	c := New(srv.URL)

	if _, err := c.GetTickets(context.Background()); err != nil {
		t.Fatalf("GetTickets: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("unauthenticated call sent Authorization %q", gotAuth)
	}

	c.SetToken("tok-123")
	if _, err := c.GetTickets(context.Background()); err != nil {
		t.Fatalf("GetTickets: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}

	c.SetToken("")
	if _, err := c.GetTickets(context.Background()); err != nil {
		t.Fatalf("GetTickets: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("cleared token still sent Authorization %q", gotAuth)
	}
}

func TestErrorMessageFromBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "forbidden"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetTicketByID(context.Background(), 9)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "forbidden") || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v; want the server message and status", err)
	}
}

func TestErrorFallbackOnBrokenBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetTickets(context.Background())
	if err == nil || !strings.Contains(err.Error(), "request failed") {
		t.Fatalf("err = %v; want generic fallback", err)
	}
}

func TestNoContentResolvesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.DeleteTicket(context.Background(), 4); err != nil {
		t.Fatalf("DeleteTicket: %v", err)
	}
}

func TestUpdatePayloadNullClearsAssignment(t *testing.T) {
	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(models.Ticket{ID: 4, UpdatedAt: time.Now()})
	}))
	defer srv.Close()

	c := New(srv.URL)

	// absent: field must not appear at all
	if _, err := c.UpdateTicket(context.Background(), 4, UpdateTicketInput{}); err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}
	if _, ok := body["assignedToId"]; ok {
		t.Fatal("absent assignment must be omitted from the payload")
	}

	// explicit null: field must be present and null
	var cleared *int64
	if _, err := c.UpdateTicket(context.Background(), 4, UpdateTicketInput{AssignedToID: &cleared}); err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}
	raw, ok := body["assignedToId"]
	if !ok || string(raw) != "null" {
		t.Fatalf("assignedToId = %q, want explicit null", raw)
	}
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := New(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.GetTickets(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}
