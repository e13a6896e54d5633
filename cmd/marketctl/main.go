// marketctl is a command line client for the marketplace. It keeps a local
// cache so listings stay browsable offline and queues writes as drafts.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/labs/fleamarket/internal/client"
	"github.com/labs/fleamarket/internal/localcache"
	"github.com/labs/fleamarket/internal/reconcile"
	"github.com/labs/fleamarket/internal/session"
)

const usage = `usage: marketctl [flags] <command> [args]

commands:
  login <email> <password>     sign in
  logout                       sign out
  whoami                       show the signed in user
  items                        list items (--search, --category)
  item <id>                    show one item
  sell                         create a listing (--title, --price | --starting-bid, ...)
  bid <item-id> <amount>       place a bid
  bids <item-id>               show bid history
  drafts                       list unsent listings
  retry [draft-id]             resubmit one draft, or all of them
  discard <draft-id>           drop a draft
  notifications                list notifications (--unread)
  read <id> | unread <id>      toggle a notification
`

type app struct {
	args     Args
	api      *client.Client
	cache    *localcache.Store
	sessions *session.Manager
	repo     *reconcile.Repository
}

func main() {
	args := ParseArgs()
	if !args.Validate() {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if level, err := logrus.ParseLevel(args.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	if err := os.MkdirAll(filepath.Dir(args.CachePath), 0o700); err != nil {
		logrus.WithError(err).Fatal("Failed to create data directory")
	}

	sessions := session.NewManager(session.NewFileStore(args.SessionPath))
	if err := sessions.Start(); err != nil {
		logrus.WithError(err).Fatal("Failed to load session")
	}

	cache, err := localcache.Open(args.CachePath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open local cache")
	}

	api := client.New(args.ServerURL, client.WithIdentity(sessions.Token))
	a := &app{
		args:     args,
		api:      api,
		cache:    cache,
		sessions: sessions,
		repo:     reconcile.NewRepository(api, cache, sessions),
	}

	ctx, cancel := context.WithTimeout(context.Background(), args.Timeout)
	runErr := a.run(ctx, args.Command[0], args.Command[1:])
	cancel()

	if err := sessions.Stop(); err != nil {
		logrus.WithError(err).Warn("Failed to save session")
	}
	if err := cache.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close local cache")
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(1)
	}
}
