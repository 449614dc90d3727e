// desk is a terminal front-end for the ticket board: it signs in, pulls
// the scoped board, prints it, and with --watch keeps it fresh via the
// background poll loop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Jimix91/ticketflow/internal/board"
	"github.com/Jimix91/ticketflow/internal/client"
	"github.com/Jimix91/ticketflow/internal/config"
	"github.com/Jimix91/ticketflow/internal/models"
	"github.com/Jimix91/ticketflow/pkg/logger"
)

func main() {
	var (
		apiURL   = pflag.String("api", "http://localhost:5005/api", "base URL of the ticket API")
		email    = pflag.String("email", "", "account email")
		password = pflag.String("password", "", "account password")
		token    = pflag.String("token", "", "resume with a stored auth token instead of credentials")
		watch    = pflag.Bool("watch", false, "keep polling and reprint the board on remote changes")
		interval = pflag.Duration("interval", board.PollInterval, "poll interval in watch mode")
	)
	pflag.Parse()

	cfg := config.Load()
	l := logger.New(cfg.Env)

	api := client.New(*apiURL)
	b := board.New(api, l)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch {
	case *token != "":
		err = b.Resume(ctx, *token)
	case *email != "" && *password != "":
		err = b.Login(ctx, *email, *password)
	default:
		pflag.Usage()
		os.Exit(2)
	}
	if err != nil {
		l.Fatal().Err(err).Msg("sign-in failed")
	}

	printBoard(b)

	if !*watch {
		return
	}

	poller := board.NewPoller(b, *interval, l)
	go poller.Run(ctx)

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	last := ""
	for {
		select {
		case <-ctx.Done():
			b.Logout()
			return
		case <-tick.C:
			if n := b.Notice(); n != "" && n != last {
				fmt.Println("*", n)
				printBoard(b)
			}
			last = b.Notice()
		}
	}
}

func printBoard(b *board.Board) {
	sum := b.VisibleSummary()
	fmt.Printf("\nOPEN %d | IN_PROGRESS %d | CLOSED %d\n", sum.Open, sum.InProgress, sum.Closed)
	for _, status := range models.Statuses() {
		fmt.Printf("-- %s --\n", status)
		for _, t := range b.Visible() {
			if t.Status != status {
				continue
			}
			assignee := "unassigned"
			if t.AssignedTo != nil {
				assignee = t.AssignedTo.Name
			} else if t.AssignedToID != nil {
				if u, ok := b.Store().User(*t.AssignedToID); ok {
					assignee = u.Name
				}
			}
			fmt.Printf("  #%-4d [%s] %s (%s)\n", t.ID, t.Priority, t.Title, assignee)
		}
	}
	if msg := b.ErrorMessage(); msg != "" {
		fmt.Println("error:", msg)
	}
}
