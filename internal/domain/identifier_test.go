package domain

import "testing"

func TestRecordIDDeterministic(t *testing.T) {
	first, err := RecordID("https://example.com/recipes/pancakes")
	if err != nil {
		t.Fatalf("RecordID: %v", err)
	}
	second, err := RecordID("https://example.com/recipes/pancakes")
	if err != nil {
		t.Fatalf("RecordID: %v", err)
	}
	if first != second {
		t.Fatalf("identifier not stable: %q vs %q", first, second)
	}
}

func TestRecordIDCollidesOnEquivalentURLs(t *testing.T) {
	variants := []string{
		"https://Example.COM/recipes/pancakes",
		"https://example.com:443/recipes/pancakes",
		"https://example.com/recipes/pancakes/",
		"https://example.com/recipes/pancakes#reviews",
		"  https://example.com/recipes/pancakes  ",
	}
	base, err := RecordID("https://example.com/recipes/pancakes")
	if err != nil {
		t.Fatalf("RecordID: %v", err)
	}
	for _, v := range variants {
		got, err := RecordID(v)
		if err != nil {
			t.Fatalf("RecordID(%q): %v", v, err)
		}
		if got != base {
			t.Errorf("RecordID(%q) = %q, want %q", v, got, base)
		}
	}
}

func TestRecordIDDistinguishesQueries(t *testing.T) {
	a, err := RecordID("https://example.com/r?id=1")
	if err != nil {
		t.Fatalf("RecordID: %v", err)
	}
	b, err := RecordID("https://example.com/r?id=2")
	if err != nil {
		t.Fatalf("RecordID: %v", err)
	}
	if a == b {
		t.Fatalf("different query strings must not collide")
	}
}

func TestCanonicalSourceURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"HTTPS://Example.com/Recipes", "https://example.com/Recipes"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"https://example.com:443/a", "https://example.com/a"},
		{"https://example.com:8443/a", "https://example.com:8443/a"},
		{"https://example.com/a/#frag", "https://example.com/a"},
		{"https://example.com/", "https://example.com/"},
		{"https://example.com/a?b=1", "https://example.com/a?b=1"},
	}
	for _, tc := range cases {
		got, err := CanonicalSourceURL(tc.in)
		if err != nil {
			t.Fatalf("CanonicalSourceURL(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("CanonicalSourceURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalSourceURLRejectsRelative(t *testing.T) {
	for _, in := range []string{"", "   ", "not a url", "/relative/path", "example.com/no-scheme"} {
		if _, err := CanonicalSourceURL(in); err == nil {
			t.Errorf("CanonicalSourceURL(%q) expected error", in)
		}
	}
}
