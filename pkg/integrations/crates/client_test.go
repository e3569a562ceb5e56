package crates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matzehuels/cratedeps/pkg/registry"
)

func TestNewClient(t *testing.T) {
	c := NewClient(Options{})
	if c.Client == nil {
		t.Error("expected client to be initialized")
	}
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if c.Name() != "crates.io" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "cratedeps-test" {
			t.Errorf("User-Agent = %q", ua)
		}
		switch r.URL.Path {
		case "/crates/serde/versions":
			w.Write([]byte(`{"versions":[
				{"num":"1.0.193","yanked":false},
				{"num":"1.0.192","yanked":true},
				{"num":"0.9.15","yanked":false}
			]}`))
		case "/crates/serde/1.0.193/dependencies":
			w.Write([]byte(`{"dependencies":[
				{"crate_id":"serde_derive","req":"=1.0.193","kind":"normal","optional":true},
				{"crate_id":"serde_derive","req":"^1","kind":"dev","optional":false},
				{"crate_id":"cc","req":"^1.0","kind":"build","optional":false},
				{"crate_id":"itoa","req":"^1","kind":"normal","optional":false}
			]}`))
		case "/crates/empty/versions":
			w.Write([]byte(`{"versions":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testClient(server *httptest.Server) *Client {
	return NewClient(Options{
		BaseURL:    server.URL + "/",
		UserAgent:  "cratedeps-test",
		HTTPClient: server.Client(),
	})
}

func TestClient_ListVersions(t *testing.T) {
	server := newServer(t)
	defer server.Close()
	c := testClient(server)

	versions, err := c.ListVersions(context.Background(), "serde")
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	want := []string{"1.0.193", "1.0.192", "0.9.15"}
	if len(versions) != len(want) {
		t.Fatalf("versions = %v, want %v", versions, want)
	}
	for i := range want {
		if versions[i] != want[i] {
			t.Errorf("versions[%d] = %q, want %q", i, versions[i], want[i])
		}
	}

	versions, err = c.ListVersions(context.Background(), "empty")
	if err != nil || len(versions) != 0 {
		t.Errorf("ListVersions(empty) = %v, %v", versions, err)
	}
}

func TestClient_ListDependencies(t *testing.T) {
	server := newServer(t)
	defer server.Close()
	c := testClient(server)

	deps, err := c.ListDependencies(context.Background(), "serde", "1.0.193")
	if err != nil {
		t.Fatalf("ListDependencies failed: %v", err)
	}
	want := []registry.Dependency{
		{Crate: "serde_derive", Requirement: "=1.0.193", Kind: registry.KindOptional},
		{Crate: "serde_derive", Requirement: "^1", Kind: registry.KindDev},
		{Crate: "cc", Requirement: "^1.0", Kind: registry.KindBuild},
		{Crate: "itoa", Requirement: "^1", Kind: registry.KindNormal},
	}
	if len(deps) != len(want) {
		t.Fatalf("deps = %+v", deps)
	}
	for i := range want {
		if deps[i] != want[i] {
			t.Errorf("deps[%d] = %+v, want %+v", i, deps[i], want[i])
		}
	}
}

func TestClient_NotFound(t *testing.T) {
	server := newServer(t)
	defer server.Close()
	c := testClient(server)

	if _, err := c.ListVersions(context.Background(), "nonexistent"); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("ListVersions err = %v, want ErrNotFound", err)
	}
	if _, err := c.ListDependencies(context.Background(), "serde", "9.9.9"); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("ListDependencies err = %v, want ErrNotFound", err)
	}
}
