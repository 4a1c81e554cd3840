package allowlist

import "testing"

func TestAllows(t *testing.T) {
	list := New([]string{
		"https://ipfs.io/ipfs/",
		"https://dweb.link/ipfs/",
	})

	tests := []struct {
		url  string
		want bool
	}{
		{"https://ipfs.io/ipfs/QmAbc123/", true},
		{"https://ipfs.io/ipfs/QmAbc123/index.html?seed=7", true},
		{"https://dweb.link/ipfs/bafy.../", true},

		// Prefix matching is literal and case-sensitive.
		{"HTTPS://ipfs.io/ipfs/QmAbc123/", false},
		{"https://IPFS.io/ipfs/QmAbc123/", false},
		{"http://ipfs.io/ipfs/QmAbc123/", false},
		{"https://ipfs.io/ipns/QmAbc123/", false},
		{"https://evil.example/https://ipfs.io/ipfs/", false},
		{"https://ipfs.io.evil.example/ipfs/", false},

		{"", false},
	}

	for _, tt := range tests {
		if got := list.Allows(tt.url); got != tt.want {
			t.Errorf("Allows(%q) = %t, want %t", tt.url, got, tt.want)
		}
	}
}

func TestAllowsEmptyList(t *testing.T) {
	list := New(nil)
	if list.Allows("https://ipfs.io/ipfs/QmAbc123/") {
		t.Error("empty list must admit nothing")
	}
}
