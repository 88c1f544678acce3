package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dori/boardly/internal/model"
)

// headerRecorder replies with a fixed body and remembers request headers
type headerRecorder struct {
	mu      sync.Mutex
	headers []http.Header
	status  int
	body    string
}

func (h *headerRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.headers = append(h.headers, r.Header.Clone())
	h.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.status)
	fmt.Fprint(w, h.body)
}

func (h *headerRecorder) last() http.Header {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.headers[len(h.headers)-1]
}

func newRecorder(t *testing.T, status int, body string) (*headerRecorder, string) {
	t.Helper()
	rec := &headerRecorder{status: status, body: body}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return rec, srv.URL
}

func TestBearerTokenReadPerRequest(t *testing.T) {
	rec, url := newRecorder(t, http.StatusOK, `{"boards":[]}`)

	var mu sync.Mutex
	token := ""
	client := NewClient(url, TokenFunc(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		return token, nil
	}))

	if _, err := client.FetchBoards(context.Background()); err != nil {
		t.Fatalf("FetchBoards failed: %v", err)
	}
	if got := rec.last().Get("Authorization"); got != "" {
		t.Errorf("no token stored: got Authorization %q, want none", got)
	}

	mu.Lock()
	token = "abc"
	mu.Unlock()
	if _, err := client.FetchBoards(context.Background()); err != nil {
		t.Fatalf("FetchBoards failed: %v", err)
	}
	if got := rec.last().Get("Authorization"); got != "Bearer abc" {
		t.Errorf("got Authorization %q, want %q", got, "Bearer abc")
	}

	mu.Lock()
	token = "def"
	mu.Unlock()
	if _, err := client.FetchBoards(context.Background()); err != nil {
		t.Fatalf("FetchBoards failed: %v", err)
	}
	if got := rec.last().Get("Authorization"); got != "Bearer def" {
		t.Errorf("got Authorization %q, want %q", got, "Bearer def")
	}
}

func TestTokenSourceError(t *testing.T) {
	_, url := newRecorder(t, http.StatusOK, `{"boards":[]}`)
	boom := errors.New("disk gone")
	client := NewClient(url, TokenFunc(func() (string, error) { return "", boom }))

	if _, err := client.FetchBoards(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped %v", err, boom)
	}
}

func TestRequestIDHeader(t *testing.T) {
	rec, url := newRecorder(t, http.StatusOK, `{"boards":[]}`)
	client := NewClient(url, nil)

	ctx := WithRequestID(context.Background(), "req-1")
	if _, err := client.FetchBoards(ctx); err != nil {
		t.Fatalf("FetchBoards failed: %v", err)
	}
	if got := rec.last().Get(RequestIDHeader); got != "req-1" {
		t.Errorf("got %s %q, want %q", RequestIDHeader, got, "req-1")
	}

	if _, err := client.FetchBoards(context.Background()); err != nil {
		t.Fatalf("FetchBoards failed: %v", err)
	}
	if got := rec.last().Get(RequestIDHeader); got == "" || got == "req-1" {
		t.Errorf("expected a generated request id, got %q", got)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Title is required"}`, "Title is required"},
		{"error field", http.StatusNotFound, `{"error":"todo not found"}`, "todo not found"},
		{"no message", http.StatusInternalServerError, `{}`, "fallback"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := newRecorder(t, tt.status, tt.body)
			client := NewClient(url, nil)

			_, err := client.CreateBoard(context.Background(), "x")
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsStatus(err, tt.status) {
				t.Errorf("IsStatus(%d) false for %v", tt.status, err)
			}
			if got := MessageOf(err, "fallback"); got != tt.want {
				t.Errorf("MessageOf = %q, want %q", got, tt.want)
			}
			var apiErr *Error
			if errors.As(err, &apiErr) && apiErr.RequestID == "" {
				t.Error("error carries no request id")
			}
		})
	}
}

func TestTransportErrorUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil).FetchBoards(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if got := MessageOf(err, "Failed to fetch boards"); got != "Failed to fetch boards" {
		t.Errorf("MessageOf = %q", got)
	}
}

func TestMalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(*Client) error
	}{
		{"boards missing", `{"message":"ok"}`, func(c *Client) error {
			_, err := c.FetchBoards(context.Background())
			return err
		}},
		{"board without id", `{"board":{"title":"x"}}`, func(c *Client) error {
			_, err := c.CreateBoard(context.Background(), "x")
			return err
		}},
		{"todo completed not bool", `{"todo":{"id":"1","title":"t","completed":"yes","boardId":"b"}}`, func(c *Client) error {
			done := true
			_, err := c.UpdateTodo(context.Background(), "1", model.TodoPatch{Completed: &done})
			return err
		}},
		{"login without token", `{"user":{"id":"1","email":"a@b"}}`, func(c *Client) error {
			_, err := c.SignIn(context.Background(), Credentials{Email: "a@b", Password: "pw"})
			return err
		}},
		{"not json", `nope`, func(c *Client) error {
			_, err := c.SignUp(context.Background(), Registration{Name: "a", Email: "a@b", Password: "pw"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := newRecorder(t, http.StatusOK, tt.body)
			err := tt.call(NewClient(url, nil))
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("got %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestDeleteIgnoresBody(t *testing.T) {
	_, url := newRecorder(t, http.StatusNoContent, ``)
	client := NewClient(url, nil)

	if err := client.DeleteBoard(context.Background(), "b1"); err != nil {
		t.Errorf("DeleteBoard: %v", err)
	}
	if err := client.DeleteTodo(context.Background(), "t1"); err != nil {
		t.Errorf("DeleteTodo: %v", err)
	}
}
