package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/go-faster/errors"

	"github.com/storekeep/storekeep/internal/catalog"
	"github.com/storekeep/storekeep/internal/domain/product"
	"github.com/storekeep/storekeep/internal/prefs"
	"github.com/storekeep/storekeep/internal/restapi"
	"github.com/storekeep/storekeep/internal/session"
)

// cliEnv bundles the client-side state every subcommand needs: the backend
// client, the restored session, and a catalog manager with a notification
// center attached.
type cliEnv struct {
	prefs    prefs.Prefs
	client   *restapi.Client
	sessions *session.Store
	notes    *catalog.Center
	manager  *catalog.Manager
}

func newEnv() (*cliEnv, error) {
	pf := prefs.Defaults()
	if path, err := prefs.DefaultPath(); err == nil {
		pf = prefs.Load(path)
	}

	base := pf.ServerURL
	if serverFlag != "" {
		base = serverFlag
	}

	client, err := restapi.NewClient(base, restapi.WithUserAgent("storekeep-cli"))
	if err != nil {
		return nil, errors.Wrap(err, "create backend client")
	}

	sessionPath, err := sessionFilePath()
	if err != nil {
		return nil, err
	}

	notes := catalog.NewCenter()
	return &cliEnv{
		prefs:    pf,
		client:   client,
		sessions: session.NewStore(client, sessionPath),
		notes:    notes,
		manager:  catalog.New(client, catalog.WithNotifier(notes)),
	}, nil
}

func sessionFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve config dir")
	}
	return filepath.Join(dir, "storekeep", "session.json"), nil
}

// requireAdmin gates mutating commands on an admin session.
func (e *cliEnv) requireAdmin() error {
	sess := e.sessions.Current()
	if sess == nil {
		return errors.New("not logged in: run `storekeep login` first")
	}
	if !sess.IsAdmin() {
		return errors.Errorf("user %q is not an admin", sess.Username)
	}
	return nil
}

// printProducts renders items as an aligned table.
func printProducts(items []product.Product) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tDESCRIPTION")
	for _, p := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t$%s\t%d\t%s\n",
			p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.Stock, p.Description)
	}
	_ = w.Flush()
}

// printNotes prints the notifications collected during a command, keeping
// low-stock warnings visible after mutations.
func (e *cliEnv) printNotes() {
	for _, n := range e.notes.Snapshot() {
		switch n.Kind {
		case catalog.KindLowStock:
			fmt.Fprintln(os.Stderr, "warning:", n.Message)
		case catalog.KindError:
			fmt.Fprintln(os.Stderr, "error:", n.Message)
		default:
			fmt.Println(n.Message)
		}
	}
	e.notes.Clear()
}
