// cmd/letters/prompt.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"engagement-letters/internal/engagement/records"
)

// ErrInputClosed is returned when stdin ends before a question is answered.
var ErrInputClosed = errors.New("input closed")

// terminalInput asks questions on a line-oriented terminal. A heading is
// printed once when it changes; required questions are asked again until
// answered.
type terminalInput struct {
	in      *bufio.Reader
	out     io.Writer
	heading string
}

func newTerminalInput(in io.Reader, out io.Writer) *terminalInput {
	return &terminalInput{in: bufio.NewReader(in), out: out}
}

func (t *terminalInput) Ask(ctx context.Context, req records.Request) (string, error) {
	if req.Heading != "" && req.Heading != t.heading {
		t.heading = req.Heading
		fmt.Fprintln(t.out)
		fmt.Fprintln(t.out, headingStyle.Render(req.Heading))
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprint(t.out, promptText(req))

		line, err := t.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(t.out)
			if errors.Is(err, io.EOF) {
				return "", ErrInputClosed
			}
			return "", err
		}

		if line == "" {
			line = req.Default
		}
		if line == "" && req.Required {
			fmt.Fprintln(t.out, warnStyle.Render("This field is required."))
			continue
		}
		return line, nil
	}
}

// confirm asks a y/n question; anything but y or yes is no.
func (t *terminalInput) confirm(ctx context.Context, question string) (bool, error) {
	answer, err := t.Ask(ctx, records.Request{Field: "confirm", Prompt: question + " (y/n)"})
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func promptText(req records.Request) string {
	p := req.Prompt
	if req.Default != "" {
		p += " [" + req.Default + "]"
	}
	if strings.HasSuffix(p, "$") {
		return p
	}
	return p + ": "
}
