package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/petasbytes/giftscout/internal/config"
	"github.com/petasbytes/giftscout/internal/persona"
	"github.com/petasbytes/giftscout/internal/provider"
	"github.com/petasbytes/giftscout/internal/runner"
	"github.com/petasbytes/giftscout/internal/session"
	"github.com/petasbytes/giftscout/memory"
	"github.com/petasbytes/giftscout/tools"
)

const (
	userLabel      = "\u001b[94mDu\u001b[0m"
	assistantLabel = "\u001b[93m" + persona.Name + "\u001b[0m"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	configPath := flag.String("config", "", "path to a giftscout.yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(logOutput, cfg.LogLevel)

	svc, err := provider.New(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	model := cfg.Model
	if model == "" {
		model = provider.DefaultModelFor(cfg.Provider)
	}

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		<-sigch
		fmt.Println("\nExiting...")
		cancel()
	}()

	logger.Debug("starting session", "provider", cfg.Provider, "model", model)
	sess, err := session.Start(ctx, svc, persona.Default(model))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("session ready", "assistant_id", sess.Assistant.ID, "thread_id", sess.Thread.ID)

	r := runner.New(svc, tools.Registry())
	r.Logger = logger
	r.PollInterval = cfg.PollInterval
	r.PollMaxInterval = cfg.EffectivePollMaxInterval()
	r.PollTimeout = cfg.PollTimeout
	r.MaxPollErrors = cfg.MaxPollErrors

	if err := repl(ctx, r, sess, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "warning: stdin read error: %v\n", err)
	}
}

type submission struct {
	out runner.Outcome
	err error
}

// repl prints the greeting, then submits each input line in the background.
// Lines read while a submission is in flight are rejected. It returns when in
// is exhausted and nothing is pending, when ctx is cancelled, or once the
// assistant hands back a search.
func repl(ctx context.Context, r *runner.Runner, s *session.Session, in io.Reader, out io.Writer) error {
	for _, turn := range s.Transcript.Turns() {
		printTurn(out, turn)
	}
	fmt.Fprintln(out, "(Ctrl-C to quit)")

	// stdin reader goroutine -> lines into channel
	scanner := bufio.NewScanner(in)
	inputCh := make(chan string)
	go func() {
		defer close(inputCh)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make(chan submission, 1)
	pending := false
	lines := inputCh
	for {
		if !pending && lines == nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if pending {
				fmt.Fprintf(out, "(still waiting for %s, input ignored)\n", persona.Name)
				continue
			}
			pending = true
			fmt.Fprintf(out, "%s schreibt ...\n", persona.Name)
			go func(text string) {
				o, err := r.Submit(ctx, s, text)
				results <- submission{out: o, err: err}
			}(line)
		case res := <-results:
			pending = false
			switch {
			case res.err != nil:
				fmt.Fprintf(out, "error: %s\n", describe(res.err))
			case res.out.Search != nil:
				fmt.Fprintf(out, "Suche nach: %s\n", res.out.Search.Query)
				return nil
			case res.out.Reply != nil:
				printTurn(out, *res.out.Reply)
			}
		}
	}
	return scanner.Err()
}

func printTurn(out io.Writer, t memory.Turn) {
	label := assistantLabel
	if t.IsUser() {
		label = userLabel
	}
	fmt.Fprintf(out, "%s: %s\n", label, t.Content)
}

// describe renders a submission error for the user.
func describe(err error) string {
	var hint string
	switch {
	case errors.Is(err, runner.ErrCommit):
		hint = "your message was not sent, please try again"
	case errors.Is(err, runner.ErrPollTimeout):
		hint = "no answer in time, please try again"
	case errors.Is(err, runner.ErrRunFailed):
		hint = "no answer was produced, please try again"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return err.Error()
	}
	return fmt.Sprintf("%s (%v)", hint, err)
}
