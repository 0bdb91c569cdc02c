package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/amzx/internal/shared"
	tu "github.com/desertthunder/amzx/internal/testing"
)

type recordingObserver struct {
	statuses []int
	headers  []http.Header
}

func (o *recordingObserver) Observe(status int, header http.Header) {
	o.statuses = append(o.statuses, status)
	o.headers = append(o.headers, header)
}

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("with custom client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("test", "http://example.com", customClient)

			if srv.BaseURL() != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.BaseURL())
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("with nil client", func(t *testing.T) {
			srv := NewAPIService("test", "http://example.com", nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("sends JSON headers and static headers", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}
				if got := r.Header.Get("Content-Type"); got != "application/json" {
					t.Errorf("expected JSON content type, got %q", got)
				}
				if got := r.Header.Get("x-api-key"); got != "key" {
					t.Errorf("expected x-api-key 'key', got %q", got)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			srv := NewAPIService("test", server.URL, nil)
			srv.SetHeader("x-api-key", "key")
			resp, err := srv.Get(context.Background(), "/test")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}

			var body map[string]string
			if err := resp.Decode(&body); err != nil {
				t.Fatalf("expected body to decode, got %v", err)
			}
			if body["status"] != "success" {
				t.Errorf("expected status 'success', got %q", body["status"])
			}
		})

		t.Run("non-2xx is not a transport error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"forbidden"}`))
			}))
			defer server.Close()

			resp, err := NewAPIService("test", server.URL, nil).Get(context.Background(), "/")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			err = resp.Err()
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}

			var se *shared.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected StatusError, got %T", err)
			}
			if se.StatusCode != http.StatusForbidden || se.Service != "test" {
				t.Errorf("unexpected status error %+v", se)
			}
			if se.Body != `{"error":"forbidden"}` {
				t.Errorf("expected body to be kept, got %q", se.Body)
			}
		})

		t.Run("malformed body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			}))
			defer server.Close()

			resp, err := NewAPIService("test", server.URL, nil).Get(context.Background(), "/")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			var v map[string]any
			if err := resp.Decode(&v); !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})

		t.Run("transport failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			_, err := NewAPIService("test", "http://example.com", client).Get(context.Background(), "/")
			if err == nil {
				t.Fatal("expected error")
			}
		})

		t.Run("body read failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil)}

			_, err := NewAPIService("test", "http://example.com", client).Get(context.Background(), "/")
			if err == nil {
				t.Fatal("expected read error")
			}
		})

		t.Run("cancelled context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewAPIService("test", server.URL, nil).Get(ctx, "/"); !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("encodes body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				data, _ := io.ReadAll(r.Body)
				if string(data) != `{"uris":["a","b"]}` {
					t.Errorf("unexpected body %s", data)
				}
				w.WriteHeader(http.StatusCreated)
			}))
			defer server.Close()

			resp, err := NewAPIService("test", server.URL, nil).Post(context.Background(), "/", map[string][]string{"uris": {"a", "b"}})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("expected 201, got %d", resp.StatusCode)
			}
		})

		t.Run("unencodable body", func(t *testing.T) {
			_, err := NewAPIService("test", "http://example.com", nil).Post(context.Background(), "/", make(chan int))
			if err == nil {
				t.Error("expected encoding error")
			}
		})
	})

	t.Run("observer sees every response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		obs := &recordingObserver{}
		srv := NewAPIService("test", server.URL, nil)
		srv.SetObserver(obs)

		for range 2 {
			if _, err := srv.Get(context.Background(), "/"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		if len(obs.statuses) != 2 || obs.statuses[0] != http.StatusTooManyRequests {
			t.Fatalf("expected two 429 observations, got %v", obs.statuses)
		}
		if obs.headers[1].Get("Retry-After") != "3" {
			t.Errorf("expected Retry-After header to be observed, got %v", obs.headers[1])
		}
	})
}
