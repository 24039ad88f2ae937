package reconcile

import (
	"strings"
)

const (
	SpeakerPatient   = "Patient"
	SpeakerAssistant = "Dr. Aegis"
)

// Turn is one utterance of a conversation as delivered by the transport.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

func speakerTag(speaker string) string {
	switch strings.ToLower(strings.TrimSpace(speaker)) {
	case "user", "patient", "human":
		return SpeakerPatient
	default:
		return SpeakerAssistant
	}
}

// Normalize joins turns into one speaker-tagged transcript. Whitespace is
// collapsed, empty turns are dropped and consecutive turns by the same
// speaker are merged.
func Normalize(turns []Turn) string {
	type block struct {
		tag   string
		parts []string
	}
	var blocks []block
	for _, t := range turns {
		text := strings.Join(strings.Fields(t.Text), " ")
		if text == "" {
			continue
		}
		tag := speakerTag(t.Speaker)
		if n := len(blocks); n > 0 && blocks[n-1].tag == tag {
			blocks[n-1].parts = append(blocks[n-1].parts, text)
			continue
		}
		blocks = append(blocks, block{tag: tag, parts: []string{text}})
	}

	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		lines = append(lines, b.tag+": "+strings.Join(b.parts, " "))
	}
	return strings.Join(lines, "\n\n")
}
