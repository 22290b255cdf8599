package narration

import "strings"

// SplitSentences decomposes narrative text into sentence units. Cuts
// happen at '.', '!' and '?': the period is dropped from the fragment,
// '!' and '?' stay on it. Fragments are trimmed and empties discarded.
// The result is fixed for the lifetime of one playback instance.
func SplitSentences(text string) []string {
	var out []string
	var cur strings.Builder

	flush := func() {
		s := strings.TrimSpace(cur.String())
		cur.Reset()
		if s != "" {
			out = append(out, s)
		}
	}

	for _, r := range text {
		switch r {
		case '.':
			flush()
		case '!', '?':
			cur.WriteRune(r)
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// separatorFor picks what follows a fully revealed sentence in the
// cumulative buffer: sentences that kept their own terminal punctuation
// get a plain space, the rest get their period back.
func separatorFor(sentence string) string {
	if strings.HasSuffix(sentence, "!") || strings.HasSuffix(sentence, "?") || strings.HasSuffix(sentence, ".") {
		return " "
	}
	return ". "
}
