package versions

import "testing"

func TestReleaseRef(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"1.3.0", "release-crates-io-v1.3.0"},
		{"1.14.0", "release-crates-io-v1.14.0"},
		{"stable2407", "polkadot-stable2407"},
		{"stable2409-2", "polkadot-stable2409-2"},
		{"stable2412-rc1", "polkadot-stable2412-rc1"},
		{"polkadot-stable2407", "polkadot-stable2407"},
		{"polkadot-stable2409-2", "polkadot-stable2409-2"},
		// stable-looking but not matching the pattern
		{"stable24", "release-crates-io-vstable24"},
		{"stable2407x", "release-crates-io-vstable2407x"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := ReleaseRef(tt.version); got != tt.want {
				t.Errorf("ReleaseRef(%q) = %q, want %q", tt.version, got, tt.want)
			}
		})
	}
}

func TestStableVersion(t *testing.T) {
	tests := []struct {
		tag  string
		want string
		ok   bool
	}{
		{"polkadot-stable2407", "stable2407", true},
		{"polkadot-stable2409-2", "stable2409-2", true},
		{"polkadot-v1.0.0", "", false},
		{"stable2407", "", false}, // missing repo prefix: not a release tag
		{"v1.0.0", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, ok := StableVersion(tt.tag)
			if got != tt.want || ok != tt.ok {
				t.Errorf("StableVersion(%q) = %q, %v, want %q, %v", tt.tag, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRegistry_Embedded(t *testing.T) {
	registry, err := NewEmbeddedRegistry()
	if err != nil {
		t.Fatal(err)
	}

	versions := registry.Versions()
	if len(versions) == 0 {
		t.Fatal("no embedded releases")
	}
	for _, v := range []string{"1.3.0", "1.4.0"} {
		mapping, ok := registry.Lookup(v)
		if !ok {
			t.Fatalf("version %s not registered", v)
		}
		if mapping["frame-support"] == "" {
			t.Errorf("version %s: empty mapping", v)
		}
	}

	// Lookup hands out copies; mutations must not leak into the registry.
	m1, _ := registry.Lookup("1.3.0")
	m1["frame-support"] = "tampered"
	m2, _ := registry.Lookup("1.3.0")
	if m2["frame-support"] == "tampered" {
		t.Error("Lookup returned shared state")
	}

	if _, ok := registry.Lookup("0.0.1"); ok {
		t.Error("unknown version reported as registered")
	}
}
