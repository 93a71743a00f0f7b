package convo

// AppendTurn records one completed interaction on the record: the user message
// followed by the assistant reply, both summarized before storage. After
// appending, the oldest pairs are evicted until the dialog holds at most
// maxPairs user/assistant pairs. Eviction is strictly FIFO and always removes
// whole pairs. Pure mutation on the record; no I/O.
func AppendTurn(rec *Record, userText, assistantText string, maxPairs, minSummaryChars int) {
	if maxPairs <= 0 {
		maxPairs = MaxDialogSize
	}
	if minSummaryChars <= 0 {
		minSummaryChars = MinSummaryChars
	}

	rec.Dialog = append(rec.Dialog,
		Entry{Role: RoleUser, Content: Summarize(userText, minSummaryChars)},
		Entry{Role: RoleAssistant, Content: Summarize(assistantText, minSummaryChars)},
	)

	for len(rec.Dialog) > 2*maxPairs {
		rec.Dialog = rec.Dialog[2:]
	}
}
