package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"contextai-go/internal/conversation"
	"contextai-go/pkg/log"

	"github.com/spf13/cobra"
)

const chatHelp = "Commands: /docs, /use <document_id>, /upload <path>, /quit"

func newChatCmd(opts *options) *cobra.Command {
	var (
		documentID string
		noStream   bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions about a document interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			r := newRenderer(out)
			s := conversation.NewSession(opts.client(),
				conversation.WithObserver(r.observe),
				conversation.WithStreaming(opts.cfg.Client.Streaming && !noStream),
			)

			ctx := cmd.Context()
			if err := s.Refresh(ctx); err != nil {
				fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("Could not load documents: %v", err)))
			}
			if documentID != "" {
				if !useDocument(out, s, documentID) {
					return fmt.Errorf("unknown document %q", documentID)
				}
			} else {
				printDocuments(out, s.ListDocuments(), "")
			}
			fmt.Fprintln(out, hintStyle.Render(chatHelp))

			return repl(ctx, cmd.InOrStdin(), out, s)
		},
	}
	cmd.Flags().StringVarP(&documentID, "document", "d", "", "document id to chat about")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "wait for the whole answer instead of streaming it")
	return cmd
}

func repl(ctx context.Context, in io.Reader, out io.Writer, s *conversation.Session) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch {
		case line == "":
		case cmd == "/quit" || cmd == "/exit":
			return nil
		case cmd == "/docs":
			printDocuments(out, s.ListDocuments(), s.SelectedID())
		case cmd == "/use":
			useDocument(out, s, arg)
		case cmd == "/upload":
			uploadFile(ctx, out, s, arg)
		case strings.HasPrefix(line, "/"):
			fmt.Fprintln(out, hintStyle.Render(chatHelp))
		case s.SelectedID() == "":
			fmt.Fprintln(out, hintStyle.Render("Select a document with /use <document_id> or /upload <path> first."))
		default:
			if err := s.SendMessage(ctx, line); err != nil {
				log.Debugf("chat: send failed: %v", err)
				if errors.Is(err, conversation.ErrBusy) {
					fmt.Fprintln(out, hintStyle.Render("Still answering the previous question."))
				}
			}
		}
	}
}

func useDocument(out io.Writer, s *conversation.Session, id string) bool {
	for _, d := range s.ListDocuments() {
		if d.ID == id {
			s.SelectDocument(id)
			fmt.Fprintf(out, "Now chatting about %s\n", selectedStyle.Render(d.Filename))
			return true
		}
	}
	fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("No document with id %q. Use /docs to list them.", id)))
	return false
}

func uploadFile(ctx context.Context, out io.Writer, s *conversation.Session, path string) {
	if path == "" {
		fmt.Fprintln(out, hintStyle.Render("Usage: /upload <path>"))
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render(err.Error()))
		return
	}
	// the confirmation or failure message is rendered by the observer
	if _, err := s.Upload(ctx, filepath.Base(path), content); err != nil {
		log.Debugf("chat: upload failed: %v", err)
	}
}
