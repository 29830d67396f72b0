package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/examprep-backend/internal/app"
	"github.com/yungbote/examprep-backend/internal/autosave"
	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
)

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Work with drafts from the command line",
	}
	cmd.AddCommand(newDraftWatchCmd())
	return cmd
}

func newDraftWatchCmd() *cobra.Command {
	var (
		typ      string
		docID    string
		uid      string
		interval time.Duration
		window   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Autosave a local JSON patch file into a draft whenever it changes",
		Long: `watch polls <file> for changes. Each new version is decoded as a draft patch
({"title", "slug", "meta", "body", "tags", "relatedContent"}) and pushed through the
autosave debouncer, so bursts of edits become one save per quiet window.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := content.ParseType(typ)
			if !ok {
				return fmt.Errorf("unknown content type %q", typ)
			}
			if strings.TrimSpace(docID) == "" || strings.TrimSpace(uid) == "" {
				return fmt.Errorf("--id and --uid are required")
			}

			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			profile, err := a.Repos.Profile.Get(dbctx.Of(ctx), uid)
			if err != nil {
				return err
			}
			if profile == nil {
				return fmt.Errorf("no profile for %s", uid)
			}
			actor := profile.Actor()

			out := cmd.OutOrStdout()
			save := func(ctx context.Context, p content.Patch) error {
				_, err := a.Services.Workflow.Autosave(ctx, actor, t, docID, p)
				return err
			}
			// Saves outlive the command context so the final flush can land.
			deb := autosave.New(context.WithoutCancel(ctx), a.Log, save,
				autosave.WithWindow(window),
				autosave.WithStatusHook(func(s autosave.Status, err error) {
					if err != nil {
						fmt.Fprintf(out, "%s: %v\n", s, err)
						return
					}
					fmt.Fprintln(out, s)
				}),
			)

			watchErr := watchFile(ctx, args[0], interval, func(raw []byte) {
				p, err := decodePatch(raw)
				if err != nil {
					fmt.Fprintf(out, "skipping unreadable draft: %v\n", err)
					return
				}
				deb.Push(p)
			})

			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := flushWithin(flushCtx, deb); err != nil {
				return fmt.Errorf("final save: %w", err)
			}
			return watchErr
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "Content type (daily, monthly, notes, quiz, pyq)")
	cmd.Flags().StringVar(&docID, "id", "", "Document id")
	cmd.Flags().StringVar(&uid, "uid", "", "Editor uid the edits are made as")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "File poll interval")
	cmd.Flags().DurationVar(&window, "window", autosave.DefaultWindow, "Autosave quiet window")
	return cmd
}

func flushWithin(ctx context.Context, deb *autosave.Debouncer) error {
	done := make(chan error, 1)
	go func() { done <- deb.Flush() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func decodePatch(raw []byte) (content.Patch, error) {
	var p content.Patch
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return content.Patch{}, err
	}
	return p, nil
}

// watchFile calls onChange with the file contents each time they differ from
// the last read, until ctx is done. The first read counts as a change.
func watchFile(ctx context.Context, path string, interval time.Duration, onChange func([]byte)) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	var last []byte
	var seen bool
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		raw, err := os.ReadFile(path)
		switch {
		case err != nil && !os.IsNotExist(err):
			return fmt.Errorf("read %s: %w", path, err)
		case err == nil && (!seen || !bytes.Equal(raw, last)):
			seen = true
			last = raw
			onChange(raw)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}
