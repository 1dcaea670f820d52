package usecase

import "strings"

// mergeFinal appends a completed utterance to the accumulated transcript.
// Partials never land here; they supersede each other in PartialText and are
// discarded once the utterance's final arrives.
func mergeFinal(accumulated, utterance string) string {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return accumulated
	}
	if accumulated == "" {
		return utterance
	}
	return accumulated + " " + utterance
}
