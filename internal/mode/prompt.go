package mode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user to type a confirmation word.
type Prompter interface {
	// Confirm returns true only when the user typed expected. A cancelled ctx
	// counts as a refusal.
	Confirm(ctx context.Context, question, expected string) bool
}

// LinePrompter reads the answer from In, one line per question.
type LinePrompter struct {
	In  *bufio.Reader
	Out io.Writer
}

// NewLinePrompter returns a LinePrompter over in and out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{In: bufio.NewReader(in), Out: out}
}

// Confirm prints question and waits for one line of input or for ctx to be
// cancelled, whichever comes first. After a cancellation the pending read is
// abandoned, so the prompter must not be used again.
func (p *LinePrompter) Confirm(ctx context.Context, question, expected string) bool {
	fmt.Fprintf(p.Out, "%s\nType '%s' to continue: ", question, expected)

	answers := make(chan string, 1)
	go func() {
		answer, err := p.In.ReadString('\n')
		if err != nil && answer == "" {
			close(answers)
			return
		}
		answers <- answer
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.Out)
		return false
	case answer, ok := <-answers:
		return ok && strings.TrimSpace(answer) == expected
	}
}

// confirm asks unless assumeYes is set.
func confirm(ctx context.Context, env *Env, assumeYes bool, question string) bool {
	if assumeYes {
		return true
	}
	return env.Prompt.Confirm(ctx, question, "yes")
}
