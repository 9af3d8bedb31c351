package util

import "testing"

func TestLastSentence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "First line. Second line?", want: "Second line?"},
		{in: "Only one", want: "Only one"},
		{in: "Wait. What happens next...", want: "What happens next..."},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := LastSentence(tt.in); got != tt.want {
			t.Errorf("LastSentence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrimPunctuation(t *testing.T) {
	if got := TrimPunctuation(`"Stop!`); got != "Stop" {
		t.Fatalf("expected Stop, got %q", got)
	}
}

func TestSplitCSV(t *testing.T) {
	got := SplitCSV(" tiktok, ,reels ")
	if len(got) != 2 || got[0] != "tiktok" || got[1] != "reels" {
		t.Fatalf("unexpected split: %v", got)
	}
}
