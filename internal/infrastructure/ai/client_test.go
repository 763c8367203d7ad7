package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestComplete(t *testing.T) {
	t.Parallel()

	t.Run("success carries system turn, history and prompt", func(t *testing.T) {
		t.Parallel()
		var got completionRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
				t.Errorf("Authorization = %q", auth)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(completionBody("here you go")))
		}))
		defer srv.Close()

		c := NewClient(srv.Client(), srv.URL, "sk-test", "test-model")
		history := []Turn{
			{Role: "user", Content: "earlier question"},
			{Role: "assistant", Content: "earlier answer"},
		}
		reply, err := c.Complete(context.Background(), history, "new question")
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if reply != "here you go" {
			t.Fatalf("reply = %q", reply)
		}

		if got.Model != "test-model" {
			t.Fatalf("model = %q", got.Model)
		}
		if len(got.Messages) != 4 {
			t.Fatalf("messages = %d, want system + history + prompt", len(got.Messages))
		}
		if got.Messages[0].Role != "system" {
			t.Fatalf("first turn role = %q, want system", got.Messages[0].Role)
		}
		last := got.Messages[len(got.Messages)-1]
		if last.Role != "user" || last.Content != "new question" {
			t.Fatalf("last turn = %+v", last)
		}
	})

	t.Run("failure modes collapse into ErrUpstream", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name    string
			handler http.HandlerFunc
		}{
			{
				name: "non-200 status",
				handler: func(w http.ResponseWriter, r *http.Request) {
					http.Error(w, "quota exceeded", http.StatusTooManyRequests)
				},
			},
			{
				name: "malformed body",
				handler: func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte("{not json"))
				},
			},
			{
				name: "no choices",
				handler: func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte(`{"choices":[]}`))
				},
			},
			{
				name: "empty content",
				handler: func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte(completionBody("")))
				},
			},
		}
		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				srv := httptest.NewServer(tc.handler)
				defer srv.Close()

				c := NewClient(srv.Client(), srv.URL, "", "test-model")
				_, err := c.Complete(context.Background(), nil, "hi")
				if !errors.Is(err, ErrUpstream) {
					t.Fatalf("err = %v, want ErrUpstream", err)
				}
			})
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(completionBody("too late")))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := NewClient(srv.Client(), srv.URL, "", "test-model")
		if _, err := c.Complete(ctx, nil, "hi"); !errors.Is(err, ErrUpstream) {
			t.Fatalf("err = %v, want ErrUpstream", err)
		}
	})

	t.Run("unconfigured client", func(t *testing.T) {
		t.Parallel()
		var c *Client
		if _, err := c.Complete(context.Background(), nil, "hi"); !errors.Is(err, ErrUpstream) {
			t.Fatalf("nil client err = %v, want ErrUpstream", err)
		}
	})
}
