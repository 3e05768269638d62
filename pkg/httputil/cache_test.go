package httputil

import (
	"errors"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := NewCache(t.TempDir(), ttl)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t, 0)

	want := []string{"1.9.0", "stable2407"}
	if err := c.Set("releases", want); err != nil {
		t.Fatal(err)
	}

	var got []string
	ok, err := c.Get("releases", &got)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if len(got) != 2 || got[0] != "1.9.0" {
		t.Errorf("got = %v, want %v", got, want)
	}
}

func TestCache_Miss(t *testing.T) {
	c := newTestCache(t, 0)

	var v string
	ok, err := c.Get("absent", &v)
	if ok || err != nil {
		t.Errorf("Get on empty cache = %v, %v; want false, nil", ok, err)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := newTestCache(t, time.Nanosecond)

	if err := c.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	var v string
	ok, err := c.Get("k", &v)
	if ok {
		t.Error("expired entry reported as hit")
	}
	if !errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}
}

func TestCache_KeysWithUnsafeCharacters(t *testing.T) {
	c := newTestCache(t, 0)

	key := "releases:polkadot-sdk/release-crates-io-v1.9.0"
	if err := c.Set(key, 42); err != nil {
		t.Fatal(err)
	}
	var v int
	if ok, err := c.Get(key, &v); !ok || err != nil || v != 42 {
		t.Errorf("Get = %v, %v, v=%d", ok, err, v)
	}
}

func TestCache_Namespace(t *testing.T) {
	c := newTestCache(t, 0)
	sdk := c.Namespace("sdk:")
	orml := c.Namespace("orml:")

	if err := sdk.Set("releases", "a"); err != nil {
		t.Fatal(err)
	}
	if err := orml.Set("releases", "b"); err != nil {
		t.Fatal(err)
	}

	var v string
	if ok, _ := sdk.Get("releases", &v); !ok || v != "a" {
		t.Errorf("sdk namespace = %q, %v", v, ok)
	}
	if ok, _ := orml.Get("releases", &v); !ok || v != "b" {
		t.Errorf("orml namespace = %q, %v", v, ok)
	}

	// Namespaces share the directory but not keys.
	if ok, _ := c.Get("releases", &v); ok {
		t.Error("unprefixed key visible in parent")
	}
}

func TestCache_DefaultTTLNeverExpires(t *testing.T) {
	c := newTestCache(t, 0)
	if err := c.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)

	var v string
	if ok, err := c.Get("k", &v); !ok || err != nil {
		t.Errorf("zero TTL entry expired: %v, %v", ok, err)
	}
}
