package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/neoclaw-ai/umlsmith/internal/commands"
	"golang.org/x/term"
)

const defaultReplPrompt = "you> "

type promptChannel interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
	WriteMeta(ctx context.Context, text string) error
}

type readlinePromptChannel struct {
	rl  *readline.Instance
	out io.Writer
}

func newReadlinePromptChannel(in io.Reader, out io.Writer, historyPath string) (*readlinePromptChannel, error) {
	stdin, ok := in.(io.ReadCloser)
	if !ok {
		return nil, fmt.Errorf("stdin is not read-closer")
	}
	inFile, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(inFile.Fd())) {
		return nil, fmt.Errorf("stdin is not terminal")
	}
	outFile, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(outFile.Fd())) {
		return nil, fmt.Errorf("stdout is not terminal")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          defaultReplPrompt,
		HistoryFile:     historyPath,
		HistoryLimit:    200,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           stdin,
		Stdout:          out,
		Stderr:          out,
	})
	if err != nil {
		return nil, err
	}
	return &readlinePromptChannel{rl: rl, out: out}, nil
}

func (c *readlinePromptChannel) Read(_ context.Context) (string, error) {
	line, err := c.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", err
	}
	return line, nil
}

func (c *readlinePromptChannel) Write(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.out, "assistant> %s\n\n", text)
	return err
}

func (c *readlinePromptChannel) WriteMeta(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.out, "%s\n", text)
	return err
}

func (c *readlinePromptChannel) Close() error {
	return c.rl.Close()
}

type stdioPromptChannel struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

func newStdioPromptChannel(in io.Reader, out io.Writer) *stdioPromptChannel {
	return &stdioPromptChannel{
		in:     bufio.NewReader(in),
		out:    out,
		prompt: defaultReplPrompt,
	}
}

func (c *stdioPromptChannel) Read(_ context.Context) (string, error) {
	if _, err := fmt.Fprint(c.out, c.prompt); err != nil {
		return "", err
	}
	line, err := c.in.ReadString('\n')
	if err != nil {
		if len(line) > 0 {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

func (c *stdioPromptChannel) Write(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.out, "assistant> %s\n\n", text)
	return err
}

func (c *stdioPromptChannel) WriteMeta(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.out, "%s\n", text)
	return err
}

func runChatREPL(ctx context.Context, a *app, session *chatSession, in io.Reader, out io.Writer) error {
	var channel promptChannel
	readlineChannel, err := newReadlinePromptChannel(in, out, a.cfg.HistoryPath())
	if err == nil {
		channel = readlineChannel
	}
	if channel == nil {
		channel = newStdioPromptChannel(in, out)
	}
	if closer, ok := any(channel).(io.Closer); ok {
		defer closer.Close()
	}

	export := func(ctx context.Context, path, format, markup string) error {
		return writeDiagram(ctx, a.renderer, path, format, markup)
	}
	loop := &chatLoop{
		session:  session,
		commands: commands.New(session, export),
		channel:  channel,
		markdown: newMarkdownRenderer(out),
	}
	return loop.run(ctx)
}

type chatLoop struct {
	session  *chatSession
	commands *commands.Handler
	channel  promptChannel
	markdown *markdownRenderer
}

func (l *chatLoop) run(ctx context.Context) error {
	if err := l.channel.WriteMeta(ctx, "Interactive mode. Describe a change, /help for commands, /quit to stop."); err != nil {
		return err
	}

	for {
		raw, err := l.channel.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		input := strings.TrimSpace(raw)
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "/quit", "quit", "/exit", "exit":
			return nil
		}

		handled, err := l.commands.Handle(ctx, input, l.channel)
		if err != nil {
			return err
		}
		if handled {
			continue
		}

		turn, err := l.session.Send(ctx, input)
		if err != nil {
			if writeErr := l.channel.WriteMeta(ctx, fmt.Sprintf("error: %v", err)); writeErr != nil {
				return writeErr
			}
			continue
		}
		if err := l.channel.Write(ctx, l.markdown.Render(turn.Message)); err != nil {
			return err
		}
		if turn.Diff != "" {
			if err := l.channel.WriteMeta(ctx, turn.Diff+"\n"); err != nil {
				return err
			}
		}
	}
}
