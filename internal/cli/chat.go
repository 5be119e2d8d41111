package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/globechat/internal/conversation"
	"github.com/ppiankov/globechat/internal/countrydata"
	"github.com/ppiankov/globechat/internal/model"
	"github.com/ppiankov/globechat/internal/render"
)

const chatHelp = `Commands:
  /country <code>   select a country (no code clears the selection)
  /countries        list available countries
  /suggest          show suggested questions
  /1 .. /4          ask a suggested question
  /history          print the conversation
  /help             show this help
  /quit             leave
Anything else is sent as a question.`

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Chat opens a terminal conversation. Select a country, then ask about
its research landscape. Questions are answered in-process unless
client.server_url points at a running 'globechat serve'.

Example:
  globechat chat --country JP
  globechat chat --server http://localhost:8080`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("country", "", "country code to select at start")
	chatCmd.Flags().String("server", "", "chat server URL (default: answer in-process)")
	chatCmd.Flags().String("data", "", "country dataset for in-process answers")
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, map[string]string{
		"client.server_url": "server",
		"data.path":         "data",
	})
	if err != nil {
		return err
	}
	defer s.log.Sync()

	b, err := newBackend(s)
	if err != nil {
		return err
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	r := &repl{
		ctx:        cmd.Context(),
		backend:    b,
		printer:    s.printer,
		ctrl:       conversation.New(b.asker, conversation.WithLogger(s.log)),
		interrupts: interrupts,
	}

	s.printer.Info("globechat %s (%s). Type /help for commands.", Version, b.label)
	s.printer.Transcript(r.ctrl.Messages())

	if code, _ := cmd.Flags().GetString("country"); code != "" {
		r.selectCountry(code)
	}

	return r.run(cmd.InOrStdin())
}

// repl drives a conversation.Controller from line-based input. An
// interrupt at the prompt ends the session; during a question it dismisses
// that question and returns to the prompt.
type repl struct {
	ctx        context.Context
	backend    *backend
	printer    *render.Printer
	ctrl       *conversation.Controller
	interrupts <-chan os.Signal
}

// scanLines feeds lines from in until EOF or stop is closed. The error
// channel receives the scanner's result once lines is closed.
func scanLines(in io.Reader, stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				errc <- nil
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

func (r *repl) run(in io.Reader) error {
	stop := make(chan struct{})
	defer close(stop)
	lines, errc := scanLines(in, stop)

	for {
		fmt.Fprint(r.printer.Out(), "> ")

		var line string
		select {
		case <-r.ctx.Done():
			fmt.Fprintln(r.printer.Out())
			return nil
		case <-r.interrupts:
			fmt.Fprintln(r.printer.Out())
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.printer.Out())
				return <-errc
			}
			line = l
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "/") {
			if quit := r.command(strings.TrimSpace(line)); quit {
				return nil
			}
			continue
		}

		r.ctrl.SetInput(line)
		r.submit(func(ctx context.Context) error {
			_, err := r.ctrl.KeyAction(ctx, conversation.KeyEnter, false)
			return err
		})
	}
}

// command handles a slash command and reports whether to quit
func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	name := strings.TrimPrefix(fields[0], "/")

	switch name {
	case "quit", "exit", "q":
		return true
	case "help":
		fmt.Fprintln(r.printer.Out(), chatHelp)
	case "country", "c":
		if len(fields) < 2 {
			r.ctrl.Select(nil)
			r.printer.Selected(countrydata.DefaultFlag, nil)
			return false
		}
		r.selectCountry(fields[1])
	case "countries":
		rows, err := r.backend.catalog.Rows(r.ctx)
		if err != nil {
			r.printer.Error("list countries: %v", err)
			return false
		}
		if err := render.CountryTable(r.printer.Out(), rows); err != nil {
			r.printer.Error("render table: %v", err)
		}
	case "suggest":
		r.printer.Suggestions(conversation.Suggestions)
	case "history":
		r.printer.Transcript(r.ctrl.Messages())
	default:
		i, err := strconv.Atoi(name)
		if err != nil {
			r.printer.Warning("unknown command %q, type /help", fields[0])
			return false
		}
		if i >= 1 && i <= len(conversation.Suggestions) {
			r.printer.Message(model.Message{Role: model.RoleUser, Text: conversation.Suggestions[i-1]})
		}
		r.submit(func(ctx context.Context) error {
			return r.ctrl.SubmitSuggestion(ctx, i-1)
		})
	}
	return false
}

func (r *repl) selectCountry(code string) {
	record, err := r.backend.catalog.Lookup(r.ctx, code)
	if err != nil {
		r.printer.Error("%v", err)
		return
	}
	r.ctrl.Select(record)
	r.printer.Selected(countrydata.Flag(record.CountryCode), record)
	if err := render.SubfieldTable(r.printer.Out(), *record); err != nil {
		r.printer.Error("render table: %v", err)
	}
}

// submit runs one question and prints the reply it appended
func (r *repl) submit(ask func(ctx context.Context) error) {
	before := len(r.ctrl.Messages())
	r.printer.Loading()

	done := make(chan error, 1)
	go func() { done <- ask(r.ctx) }()

	var err error
	dismissed := false
	select {
	case err = <-done:
	case <-r.interrupts:
		r.ctrl.Dismiss()
		dismissed = true
		err = <-done
	}

	switch {
	case errors.Is(err, conversation.ErrEmptyQuestion):
		return
	case errors.Is(err, conversation.ErrUnknownSuggestion):
		r.printer.Warning("pick a suggestion between 1 and %d", len(conversation.Suggestions))
		return
	case err != nil:
		r.printer.Error("%v", err)
		return
	}

	answered := false
	messages := r.ctrl.Messages()
	for _, m := range messages[before:] {
		if m.Role == model.RoleAssistant {
			r.printer.Message(m)
			answered = true
		}
	}
	if dismissed && !answered {
		r.printer.Warning("question dismissed")
		return
	}
	if r.ctrl.LastOutcome() == model.StateFailed && r.ctrl.LastError() != nil {
		r.printer.Warning("%v", r.ctrl.LastError())
	}
}
