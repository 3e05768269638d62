package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"

	"github.com/substrate-tools/psvm/pkg/integrations"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("", nil)
	c.RawServer = srv.URL
	c.APIServer = srv.URL
	c.GHTool = ""
	return c
}

func TestFetchRaw(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paritytech/polkadot-sdk/release-crates-io-v1.9.0/Plan.toml" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "[[crate]]\nname = \"sp-core\"\n")
	}))

	got, err := c.FetchRaw(context.Background(), "paritytech", "polkadot-sdk", "release-crates-io-v1.9.0", "Plan.toml")
	if err != nil {
		t.Fatalf("FetchRaw failed: %v", err)
	}
	if got != "[[crate]]\nname = \"sp-core\"\n" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestFetchRaw_NotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.FetchRaw(context.Background(), "paritytech", "polkadot-sdk", "no-such-ref", "Plan.toml")
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListBranches_Paginates(t *testing.T) {
	// Two full pages followed by a short one.
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/paritytech/polkadot-sdk/branches" {
			http.NotFound(w, r)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		var refs []refResponse
		n := perPage
		if page == 3 {
			n = 5
		}
		if page <= 3 {
			for i := 0; i < n; i++ {
				refs = append(refs, refResponse{Name: fmt.Sprintf("branch-%d-%d", page, i)})
			}
		}
		json.NewEncoder(w).Encode(refs)
	}))

	branches, err := c.ListBranches(context.Background(), "paritytech", "polkadot-sdk")
	if err != nil {
		t.Fatalf("ListBranches failed: %v", err)
	}
	if want := 2*perPage + 5; len(branches) != want {
		t.Errorf("branches = %d, want %d", len(branches), want)
	}
	if branches[0] != "branch-1-0" {
		t.Errorf("first branch = %q", branches[0])
	}
}

func TestListBranches_NoFallbackConfigured(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))

	_, err := c.ListBranches(context.Background(), "paritytech", "polkadot-sdk")
	if !errors.Is(err, integrations.ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestFilterByPrefix(t *testing.T) {
	names := []string{
		"master",
		"release-crates-io-v1.9.0",
		"release-crates-io-v1.10.0",
		"gh-readonly-queue/master",
	}
	got := FilterByPrefix(names, "release-crates-io-v")
	want := []string{"1.9.0", "1.10.0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterByPrefix = %v, want %v", got, want)
	}

	if got := FilterByPrefix(nil, "x"); got != nil {
		t.Errorf("FilterByPrefix(nil) = %v, want nil", got)
	}
}
