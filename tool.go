package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const toolDoc = `Warbler Moderation Tool

Usage:
  warbler tool <message_id>...
  warbler tool -i
  warbler tool -u
  warbler tool -h
Options:
  -h            Show this screen.
  -i            Dump all warbles to STDOUT.
  -u            Dump all users to STDOUT.`

// runTool implements the "warbler tool" subcommand. Per-id failures are
// reported and skipped; the returned error covers storage failures only.
func runTool(ctx context.Context, args []string, store *Store, out, errOut io.Writer) error {
	if len(args) == 0 || args[0] == "-h" {
		fmt.Fprintln(out, toolDoc)
		return nil
	}

	switch args[0] {
	case "-i":
		msgs, err := store.Messages.All(ctx)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			fmt.Fprintf(out, "%d,%d,%s,%s\n", m.ID, m.UserID, oneLine(m.Text), m.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
		}
	case "-u":
		users, err := store.Users.Search(ctx, "")
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Fprintf(out, "%d,%s,%s\n", u.ID, u.Username, u.Email)
		}
	default:
		warbles := NewWarbles(store)
		for _, arg := range args {
			id, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				fmt.Fprintf(errOut, "Invalid warble ID: %s\n", arg)
				continue
			}
			err = warbles.Remove(ctx, uint(id))
			switch {
			case errors.Is(err, ErrNotFound):
				fmt.Fprintf(errOut, "No such warble: %d\n", id)
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "Deleted entry: %d\n", id)
			}
		}
	}
	return nil
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
