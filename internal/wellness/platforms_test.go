package wellness

import (
	"testing"
	"time"
)

func TestMatchPlatform(t *testing.T) {
	registry := defaultRegistry()

	cases := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://www.instagram.com/explore", "Instagram", true},
		{"https://m.youtube.com/watch?v=x", "YouTube", true},
		{"https://old.reddit.com/r/golang", "Reddit", true},
		{"https://example.org", "", false},
		{"not a url", "", false},
		{"https://notinstagram.com", "", false},
	}
	for _, tc := range cases {
		p, ok := matchPlatform(hostOf(tc.url), registry)
		if ok != tc.ok {
			t.Errorf("matchPlatform(%q) ok = %v, want %v", tc.url, ok, tc.ok)
			continue
		}
		if ok && p.Name != tc.want {
			t.Errorf("matchPlatform(%q) = %q, want %q", tc.url, p.Name, tc.want)
		}
	}
}

func TestCustomPlatformFromConfig(t *testing.T) {
	wc := testConfig()
	wc.Platforms = map[string]string{"news.ycombinator.com": "Hacker News"}
	e := NewEngine(wc)

	e.HandleNavigation("https://news.ycombinator.com/item?id=1", time.Now())
	s := e.GetCurrentActivity()
	if s == nil || s.Platform.Name != "Hacker News" {
		t.Fatalf("custom platform not matched: %+v", s)
	}
}

func TestIsWhitelisted(t *testing.T) {
	wl := []string{"youtube.com"}
	if !isWhitelisted("youtube.com", wl) {
		t.Error("exact match should be whitelisted")
	}
	if !isWhitelisted("www.youtube.com", wl) {
		t.Error("www form should be whitelisted")
	}
	if isWhitelisted("nyoutube.com", wl) {
		t.Error("suffix collision must not match")
	}
}
