package answer

import "strings"

// DefaultWordLimit bounds a sample answer when no limit is configured.
const DefaultWordLimit = 100

const ellipsis = "..."

// Result is the accumulator state after one Append.
type Result struct {
	Text string
	Done bool
}

// Accumulator collects streamed chunks into a word-bounded answer. Once the
// word count passes the ceiling the text is cut to exactly ceiling words
// plus an ellipsis and further chunks are ignored.
//
// An Accumulator is owned by a single stream consumer and is not safe for
// concurrent use.
type Accumulator struct {
	ceiling int
	text    string
	words   int
	done    bool
}

func NewAccumulator(ceiling int) *Accumulator {
	if ceiling <= 0 {
		ceiling = DefaultWordLimit
	}
	return &Accumulator{ceiling: ceiling}
}

// Append adds chunk verbatim and returns the running total. Empty and
// whitespace-only chunks do not change the state.
func (a *Accumulator) Append(chunk string) Result {
	if a.done || strings.TrimSpace(chunk) == "" {
		return a.result()
	}

	a.text += chunk

	// Words can span chunk borders, so the whole text is recounted.
	fields := strings.Fields(a.text)
	a.words = len(fields)

	if a.words > a.ceiling {
		a.text = strings.Join(fields[:a.ceiling], " ") + ellipsis
		a.words = a.ceiling
		a.done = true
	}

	return a.result()
}

func (a *Accumulator) Text() string   { return a.text }
func (a *Accumulator) WordCount() int { return a.words }
func (a *Accumulator) Done() bool     { return a.done }

func (a *Accumulator) result() Result {
	return Result{Text: a.text, Done: a.done}
}

// Truncate applies the accumulator's ceiling rule to a complete text.
func Truncate(text string, ceiling int) (string, bool) {
	if ceiling <= 0 {
		ceiling = DefaultWordLimit
	}
	fields := strings.Fields(text)
	if len(fields) <= ceiling {
		return text, false
	}
	return strings.Join(fields[:ceiling], " ") + ellipsis, true
}
