package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type sentMail struct {
	Personalizations []struct {
		To []struct {
			Email string `json:"email"`
		} `json:"to"`
	} `json:"personalizations"`
	From struct {
		Email string `json:"email"`
	} `json:"from"`
	Subject string `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func TestSend_PostsMessage(t *testing.T) {
	var gotPath, gotAuth string
	var got sentMail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGrid(Config{APIKey: "sg-key", BaseURL: srv.URL + "/", FromEmail: "care@cortex.test", FromName: "Cortex"})
	err := s.Send(context.Background(), Message{
		ToEmail: "ana@example.com",
		Subject: "Medication Reminder",
		Body:    "Time to take Metoprolol (50mg)",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/v3/mail/send" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer sg-key" {
		t.Errorf("unexpected authorization %q", gotAuth)
	}
	if got.Subject != "Medication Reminder" || got.From.Email != "care@cortex.test" {
		t.Errorf("unexpected mail %+v", got)
	}
	if len(got.Personalizations) != 1 || len(got.Personalizations[0].To) != 1 ||
		got.Personalizations[0].To[0].Email != "ana@example.com" {
		t.Errorf("unexpected recipients %+v", got.Personalizations)
	}
	if len(got.Content) != 1 || got.Content[0].Value != "Time to take Metoprolol (50mg)" {
		t.Errorf("unexpected content %+v", got.Content)
	}
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"errors":[{"message":"bad key"}]}`)
	}))
	defer srv.Close()

	s := NewSendGrid(Config{APIKey: "sg-key", BaseURL: srv.URL, FromEmail: "care@cortex.test"})
	err := s.Send(context.Background(), Message{ToEmail: "ana@example.com", Subject: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected APIError 401, got %v", err)
	}
	if strings.Contains(err.Error(), "sg-key") {
		t.Error("error must not carry the api key")
	}
}

func TestSend_NotConfigured(t *testing.T) {
	if err := NewSendGrid(Config{}).Send(context.Background(), Message{ToEmail: "a@b.c"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	s := NewSendGrid(Config{APIKey: "k", FromEmail: "care@cortex.test"})
	if err := s.Send(context.Background(), Message{}); err == nil {
		t.Error("expected error for missing recipient")
	}
}
