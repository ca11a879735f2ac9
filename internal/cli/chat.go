// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/bloodbridge-tui/internal/assistant"
	"github.com/jeranaias/bloodbridge-tui/internal/config"
	"github.com/jeranaias/bloodbridge-tui/internal/export"
	"github.com/jeranaias/bloodbridge-tui/internal/model"
	"github.com/jeranaias/bloodbridge-tui/internal/session"
	"github.com/jeranaias/bloodbridge-tui/internal/ui/chat"
	"github.com/jeranaias/bloodbridge-tui/internal/ui/styles"
)

func newChatCmd(app *App) *cobra.Command {
	var plain bool
	var save string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the donation assistant",
		Long: `Chat with the donation assistant.

The full-screen view is used on a terminal. --plain, or a non-terminal
stdin, switches to a line-based prompt with history. --save writes the
transcript when the chat ends; a .json path selects JSON, anything else
Markdown. In the line-based prompt /save PATH writes it at any time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := assistant.NewConversation(app.newTransport())
			var err error
			if plain || !app.interactive() {
				err = app.runPlainChat(cmd.Context(), conv)
			} else {
				err = app.runChatTUI(cmd.Context(), conv)
			}
			if err != nil || save == "" {
				return err
			}
			if len(conv.Messages()) == 0 {
				app.warn("Nothing to save")
				return nil
			}
			return app.saveTranscript(save, conv)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "line-based chat instead of the full-screen view")
	cmd.Flags().StringVar(&save, "save", "", "write the transcript to this file when the chat ends")
	return cmd
}

// saveTranscript exports the conversation labelled with the signed-in user.
func (a *App) saveTranscript(path string, conv *assistant.Conversation) error {
	var user string
	if s := a.Session.State(); s.Authenticated() {
		user = s.User.DisplayName()
	}
	t := export.NewTranscript(conv.Messages(), user)
	written, err := export.WriteFile(path, t)
	if err != nil {
		return err
	}
	a.Logger.Info("transcript saved", zap.String("path", written), zap.Int("messages", len(t.Messages)))
	a.success("Transcript saved to %s", written)
	return nil
}

// newTransport builds the assistant transport from config. The bearer
// token is only attached when assistant.send_auth is set.
func (a *App) newTransport() *assistant.Transport {
	opts := []assistant.TransportOption{
		assistant.WithPath(a.Config.Assistant.Path),
		assistant.WithTemperature(a.Config.Assistant.Temperature),
		assistant.WithMaxTokens(a.Config.Assistant.MaxTokens),
		assistant.WithLogger(a.Logger),
	}
	if a.Config.Assistant.SendAuth {
		opts = append(opts, assistant.WithSession(a.Session))
	}
	return assistant.NewTransport(a.Config.API.BaseURL, opts...)
}

// =============================================================================
// FULL-SCREEN CHAT
// =============================================================================

func (a *App) runChatTUI(ctx context.Context, conv *assistant.Conversation) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view := chat.New(conv, chat.Options{
		Theme:    styles.NewTheme(a.Config.UI.Theme),
		Markdown: a.Config.UI.Markdown,
		UserName: userLabel(a.Session.State()),
		Logger:   a.Logger,
	})
	p := tea.NewProgram(view, tea.WithAltScreen(), tea.WithContext(ctx))

	// Sign-in changes made by another bloodbridge process show up in the
	// header.
	a.Session.OnChange(func(s session.State) {
		p.Send(chat.UserChangedMsg{Name: userLabel(s)})
	})
	go func() {
		if err := a.Session.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Debug("session watch stopped", zap.Error(err))
		}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat view failed: %w", err)
	}
	return nil
}

func userLabel(s session.State) string {
	if !s.Authenticated() {
		return ""
	}
	name := s.User.DisplayName()
	if s.Role != "" {
		name += " (" + string(s.Role) + ")"
	}
	return name
}

// =============================================================================
// PLAIN CHAT
// =============================================================================

// streamPrinter writes an assistant reply incrementally. Replies grow by
// replacement, so only the unseen suffix is printed; a reply that stops
// extending the printed text is reprinted on a fresh line.
type streamPrinter struct {
	w io.Writer

	mu      sync.Mutex
	base    int // history length when the turn started
	index   int // index of the assistant message being printed
	printed string
}

func newStreamPrinter(w io.Writer) *streamPrinter {
	return &streamPrinter{w: w, index: -1}
}

// begin marks the start of a turn over a history of n messages.
func (p *streamPrinter) begin(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = n
	p.index = -1
	p.printed = ""
}

// update is the conversation's change listener.
func (p *streamPrinter) update(s assistant.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := p.base; i < len(s.Messages); i++ {
		msg := s.Messages[i]
		if msg.Role != model.RoleAssistant {
			continue
		}
		if i != p.index {
			if p.index >= 0 {
				fmt.Fprintln(p.w)
			}
			p.index = i
			p.printed = ""
			fmt.Fprint(p.w, labelStyle("assistant> "))
		}
		if msg.Content == p.printed {
			continue
		}
		if strings.HasPrefix(msg.Content, p.printed) {
			fmt.Fprint(p.w, msg.Content[len(p.printed):])
		} else {
			fmt.Fprint(p.w, "\n"+msg.Content)
		}
		p.printed = msg.Content
	}
}

// end finishes the turn's output line.
func (p *streamPrinter) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index >= 0 {
		fmt.Fprintln(p.w)
	}
}

func chatHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

func (a *App) runPlainChat(ctx context.Context, conv *assistant.Conversation) error {
	printer := newStreamPrinter(a.Out())
	conv.OnChange(printer.update)

	prompt := a.newPrompter()
	defer prompt.Close()

	fmt.Fprintln(a.Out(), mutedStyle("Ask the donation assistant. Ctrl+C stops a reply, /save PATH writes the transcript, Ctrl+D or /exit quits."))
	for {
		input, err := prompt.ReadLine("you> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(a.Out())
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		switch input {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			conv.Reset()
			continue
		}
		if path, ok := strings.CutPrefix(input, "/save"); ok && (path == "" || path[0] == ' ') {
			path = strings.TrimSpace(path)
			if path == "" {
				fmt.Fprintln(a.Err(), warnBanner("usage: /save PATH"))
			} else if err := a.saveTranscript(path, conv); err != nil {
				fmt.Fprintln(a.Err(), errorBanner("Error:"), err)
			}
			continue
		}

		turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		printer.begin(len(conv.Messages()) + 1)
		conv.SendTurn(turnCtx, input)
		stop()
		printer.end()
		if turnCtx.Err() != nil && ctx.Err() == nil {
			fmt.Fprintln(a.Err(), warnBanner("[stopped]"))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// prompter reads chat input lines.
type prompter interface {
	ReadLine(prompt string) (string, error)
	Close()
}

// newPrompter uses liner with persistent history on a terminal and a plain
// line reader otherwise.
func (a *App) newPrompter() prompter {
	if !a.interactive() {
		return &linePrompter{app: a}
	}
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	lp := &linerPrompter{line: line, historyFile: chatHistoryPath(), logger: a.Logger}
	if f, err := os.Open(lp.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return lp
}

type linerPrompter struct {
	line        *liner.State
	historyFile string
	logger      *zap.Logger
}

func (p *linerPrompter) ReadLine(prompt string) (string, error) {
	input, err := p.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (p *linerPrompter) Close() {
	defer p.line.Close()
	if err := os.MkdirAll(filepath.Dir(p.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		p.logger.Debug("could not save chat history", zap.Error(err))
		return
	}
	defer f.Close()
	_, _ = p.line.WriteHistory(f)
}

type linePrompter struct {
	app *App
}

func (p *linePrompter) ReadLine(string) (string, error) {
	line, err := p.app.readLine("")
	if err != nil {
		return "", io.EOF
	}
	return line, nil
}

func (p *linePrompter) Close() {}
