package toolutil

import "testing"

func TestNormChannelID(t *testing.T) {
	const id = "UCabcdefghijklmnopqrstuv"
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{id, id, false},
		{"  " + id + " ", id, false},
		{"@GoogleDevelopers", "@GoogleDevelopers", false},
		{"https://www.youtube.com/channel/" + id, id, false},
		{"youtube.com/channel/" + id + "/videos", id, false},
		{"https://m.youtube.com/@some.handle/featured", "@some.handle", false},
		{"https://example.com/channel/" + id, "", true},
		{"https://www.youtube.com/watch?v=abc", "", true},
		{"UCshort", "", true},
		{"", "", true},
		{"@a", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormChannelID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormChannelID(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormChannelID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveKey(t *testing.T) {
	if got, err := ResolveKey(" key ", "ignored"); err != nil || got != "key" {
		t.Errorf("ResolveKey(key) = %q, %v", got, err)
	}
	if got, err := ResolveKey("", "My Channel"); err != nil || got != "My_Channel" {
		t.Errorf("ResolveKey(name) = %q, %v", got, err)
	}
	if _, err := ResolveKey("", " "); err == nil {
		t.Error("expected error for empty key and name")
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 20}, {-3, 20}, {5, 5}, {100, 100}, {500, 100},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.n, 20, 100); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
