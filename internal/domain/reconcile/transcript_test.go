package reconcile

import "testing"

func TestNormalize(t *testing.T) {
	turns := []Turn{
		{Speaker: "model", Text: "Hello,   how are you   feeling?"},
		{Speaker: "user", Text: "  Not great. "},
		{Speaker: "USER", Text: "My heart rate was 110."},
		{Speaker: "user", Text: "   "},
		{Speaker: "assistant", Text: "Did you take\nyour Metoprolol?"},
	}
	want := "Dr. Aegis: Hello, how are you feeling?\n\n" +
		"Patient: Not great. My heart rate was 110.\n\n" +
		"Dr. Aegis: Did you take your Metoprolol?"
	if got := Normalize(turns); got != want {
		t.Errorf("Normalize() =\n%q\nwant\n%q", got, want)
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize(nil); got != "" {
		t.Errorf("expected empty transcript, got %q", got)
	}
	if got := Normalize([]Turn{{Speaker: "user", Text: " \n "}}); got != "" {
		t.Errorf("expected empty transcript for blank turns, got %q", got)
	}
}
