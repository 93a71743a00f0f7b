package convo

// Summarize truncates text to a bounded-length gist for storage in the dialog
// window. It scans rune by rune; once the position passes minChars it stops at
// (and includes) the first sentence terminator ('.', '?', '!' or newline).
// When no terminator occurs past that point the text is returned unmodified.
// The result is always a prefix of the input.
func Summarize(text string, minChars int) string {
	runes := []rune(text)
	for i, r := range runes {
		if i > minChars && isTerminator(r) {
			return string(runes[:i+1])
		}
	}
	return text
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '?', '!', '\n':
		return true
	}
	return false
}
