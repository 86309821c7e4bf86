package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"rdm/internal/domain"
	"rdm/internal/httputil"
)

// fakeCreds hands out tokens from a list; each Refresh advances to the next.
type fakeCreds struct {
	mu         sync.Mutex
	tokens     []string
	idx        int
	refreshes  int
	refreshErr error
}

func (f *fakeCreds) Token(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[f.idx], nil
}

func (f *fakeCreds) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return f.refreshErr
	}
	if f.idx < len(f.tokens)-1 {
		f.idx++
	}
	return nil
}

// newAuthServer accepts only the given token and otherwise 401s.
func newAuthServer(t *testing.T, validToken string, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+validToken {
			httputil.RespondError(w, http.StatusUnauthorized, "bad token")
			return
		}
		handler(w, r)
	}))
}

func TestClientSendsBearerToken(t *testing.T) {
	srv := newAuthServer(t, "tok-1", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]any{"folders": []any{}})
	})
	defer srv.Close()

	client := New(srv.URL, &fakeCreds{tokens: []string{"tok-1"}})

	folders, err := client.ListFolders(context.Background())
	if err != nil {
		t.Fatalf("ListFolders: %v", err)
	}
	if len(folders) != 0 {
		t.Errorf("got %d folders, want 0", len(folders))
	}
}

func TestClientRefreshesOnceOn401(t *testing.T) {
	srv := newAuthServer(t, "tok-2", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]any{"folders": []any{}})
	})
	defer srv.Close()

	creds := &fakeCreds{tokens: []string{"tok-1", "tok-2"}}
	client := New(srv.URL, creds)

	if _, err := client.ListFolders(context.Background()); err != nil {
		t.Fatalf("ListFolders after refresh: %v", err)
	}
	if creds.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", creds.refreshes)
	}
}

func TestClientGivesUpAfterSecond401(t *testing.T) {
	srv := newAuthServer(t, "never-valid", func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not have passed auth")
	})
	defer srv.Close()

	creds := &fakeCreds{tokens: []string{"tok-1", "tok-2"}}
	client := New(srv.URL, creds)

	_, err := client.ListFolders(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	// Exactly one refresh; no retry loop
	if creds.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", creds.refreshes)
	}
}

func TestClientSurfacesRefreshFailure(t *testing.T) {
	srv := newAuthServer(t, "never-valid", func(w http.ResponseWriter, r *http.Request) {})
	defer srv.Close()

	creds := &fakeCreds{tokens: []string{"tok-1"}, refreshErr: errors.New("refresh endpoint down")}
	client := New(srv.URL, creds)

	_, err := client.ListFolders(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestClientMapsProblemResponses(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, domain.ErrValidation},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusConflict, domain.ErrConflict},
		{http.StatusForbidden, domain.ErrForbidden},
		{http.StatusGone, domain.ErrGone},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newAuthServer(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				httputil.RespondError(w, tt.status, "nope")
			})
			defer srv.Close()

			client := New(srv.URL, &fakeCreds{tokens: []string{"tok"}})
			_, err := client.GetFolder(context.Background(), "f1")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUploadReplaysAfterRefresh(t *testing.T) {
	srv := newAuthServer(t, "tok-2", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("server received broken multipart on retry: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file field missing on retry: %v", err)
		}
		file.Close()
		httputil.RespondJSON(w, http.StatusCreated, map[string]any{"id": "d1", "name": header.Filename})
	})
	defer srv.Close()

	creds := &fakeCreds{tokens: []string{"tok-1", "tok-2"}}
	client := New(srv.URL, creds)

	doc, err := client.UploadDocument(context.Background(), "report.pdf", nil, strings.NewReader("content"))
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if doc.Name != "report.pdf" {
		t.Errorf("name = %q, want %q", doc.Name, "report.pdf")
	}
	if creds.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", creds.refreshes)
	}
}
