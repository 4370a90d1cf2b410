// Package augment asks a remote multimodal completion service for short
// technique feedback on a still frame.
package augment

import "fmt"

// Kind tags an Outcome.
type Kind int

// Outcome kinds.
const (
	KindSkipped Kind = iota
	KindFailed
	KindSucceeded
)

func (k Kind) String() string {
	switch k {
	case KindFailed:
		return "failed"
	case KindSucceeded:
		return "succeeded"
	default:
		return "skipped"
	}
}

// Outcome is the result of one augmentation attempt: Skipped, Failed with a
// reason, or Succeeded with the completion text. The zero value is Skipped.
type Outcome struct {
	kind   Kind
	reason string
	text   string
}

// Skipped means augmentation did not run (no credential or no frame).
func Skipped() Outcome { return Outcome{kind: KindSkipped} }

// Failed means the remote call ran and produced nothing usable.
func Failed(reason string) Outcome { return Outcome{kind: KindFailed, reason: reason} }

// Succeeded carries the first completion's text verbatim.
func Succeeded(text string) Outcome { return Outcome{kind: KindSucceeded, text: text} }

// Kind returns the outcome tag.
func (o Outcome) Kind() Kind { return o.kind }

// Reason is set for Failed outcomes.
func (o Outcome) Reason() string { return o.reason }

// Text returns the feedback text. ok is false unless the outcome succeeded
// with non-empty text.
func (o Outcome) Text() (string, bool) {
	if o.kind != KindSucceeded || o.text == "" {
		return "", false
	}
	return o.text, true
}

func (o Outcome) String() string {
	switch o.kind {
	case KindFailed:
		return fmt.Sprintf("failed(%s)", o.reason)
	case KindSucceeded:
		return fmt.Sprintf("succeeded(%d chars)", len(o.text))
	default:
		return "skipped"
	}
}
