package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
	"github.com/epharmacy/locator-web/internal/ports"
	"github.com/epharmacy/locator-web/internal/service"
)

type showOptions struct {
	ClientID string
	RawJSON  bool
}

type clearOptions struct {
	ClientID string
	Yes      bool
}

type purgeOptions struct {
	Yes bool
}

func parseClientIDArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s requires exactly one client ID", fs.Name())
	}
	id := fs.Arg(0)
	if !service.ValidClientID(id) {
		return "", fmt.Errorf("invalid client ID %q", id)
	}
	return id, nil
}

func parseShowFlags(args []string) (showOptions, error) {
	fs := flag.NewFlagSet("show-state", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts showOptions
	fs.BoolVar(&opts.RawJSON, "json", false, "Print the stored values as JSON")
	if err := fs.Parse(args); err != nil {
		return showOptions{}, err
	}
	id, err := parseClientIDArg(fs)
	if err != nil {
		return showOptions{}, err
	}
	opts.ClientID = id
	return opts, nil
}

func parseClearFlags(args []string) (clearOptions, error) {
	fs := flag.NewFlagSet("clear-state", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts clearOptions
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return clearOptions{}, err
	}
	id, err := parseClientIDArg(fs)
	if err != nil {
		return clearOptions{}, err
	}
	opts.ClientID = id
	return opts, nil
}

func parsePurgeFlags(args []string) (purgeOptions, error) {
	fs := flag.NewFlagSet("purge-state", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts purgeOptions
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return purgeOptions{}, err
	}
	if fs.NArg() > 0 {
		return purgeOptions{}, fmt.Errorf("purge-state takes no arguments, got %q", fs.Arg(0))
	}
	return opts, nil
}

type stateView struct {
	ClientID        string             `json:"client_id"`
	Auth            *domainauth.Record `json:"auth,omitempty"`
	RawAuth         string             `json:"raw_auth,omitempty"`
	LastVisitedPath string             `json:"last_visited_path,omitempty"`
}

func runShowState(cmdCtx *commandContext, args []string) error {
	opts, err := parseShowFlags(args)
	if err != nil {
		return err
	}
	bundle, release, err := cmdCtx.openStore()
	if err != nil {
		return err
	}
	defer release()

	view := stateView{ClientID: opts.ClientID}
	raw, err := readKey(cmdCtx, bundle.Store, opts.ClientID, domainauth.KeyAuth)
	if err != nil {
		return err
	}
	if raw != "" {
		rec := domainauth.ParseRecord(raw)
		view.Auth = &rec
		if !rec.Authenticated && rec.User == nil {
			// Unparseable values are shown as stored.
			view.RawAuth = raw
		}
	}
	if view.LastVisitedPath, err = readKey(cmdCtx, bundle.Store, opts.ClientID, domainauth.KeyLastVisitedPath); err != nil {
		return err
	}

	if opts.RawJSON {
		enc := json.NewEncoder(cmdCtx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return printStateView(cmdCtx, view)
}

func readKey(cmdCtx *commandContext, store ports.ClientStore, clientID, key string) (string, error) {
	v, err := store.Get(cmdCtx.Ctx, clientID, key)
	if errors.Is(err, ports.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func printStateView(cmdCtx *commandContext, view stateView) error {
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 2, 2, ' ', 0)
	rows := [][2]string{{"Client ID", view.ClientID}}

	switch {
	case view.Auth == nil:
		rows = append(rows, [2]string{"Authenticated", "no (no record)"})
	case view.RawAuth != "":
		rows = append(rows, [2]string{"Authenticated", "no (unreadable record)"}, [2]string{"Stored value", view.RawAuth})
	default:
		rec := *view.Auth
		status := "no"
		if rec.Authenticated {
			status = "yes"
			if rec.Expired(time.Now()) {
				status = "expired"
			}
		}
		rows = append(rows, [2]string{"Authenticated", status})
		if rec.User != nil {
			rows = append(rows,
				[2]string{"User", rec.User.Name},
				[2]string{"Email", rec.User.Email},
				[2]string{"Role", describeRole(rec.Role())},
			)
		}
		if !rec.ExpiresAt.IsZero() {
			rows = append(rows, [2]string{"Expires", rec.ExpiresAt.UTC().Format(time.RFC3339)})
		}
	}

	last := view.LastVisitedPath
	if last == "" {
		last = "-"
	}
	rows = append(rows, [2]string{"Last visited", last})

	for _, row := range rows {
		if err := writef(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func describeRole(r domainauth.Role) string {
	switch {
	case r == "":
		return "-"
	case !r.Valid():
		return string(r) + " (unrecognised)"
	default:
		return string(r)
	}
}

func runClearState(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearFlags(args)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if err = cmdCtx.confirm(fmt.Sprintf("clear session state for client %s", opts.ClientID)); err != nil {
			return err
		}
	}

	bundle, release, err := cmdCtx.openStore()
	if err != nil {
		return err
	}
	defer release()

	sessions := service.NewSessionService(service.SessionServiceOptions{Store: bundle.Store, Logger: cmdCtx.Logger})
	if err = sessions.Clear(cmdCtx.Ctx, opts.ClientID); err != nil {
		return err
	}
	cmdCtx.Logger.Info("client state cleared", "client_id", opts.ClientID)
	return nil
}

func runPurgeState(cmdCtx *commandContext, args []string) error {
	opts, err := parsePurgeFlags(args)
	if err != nil {
		return err
	}

	bundle, release, err := cmdCtx.openStore()
	if err != nil {
		return err
	}
	defer release()

	if bundle.Reaper == nil {
		return writef(cmdCtx.Out, "%s backend expires client state natively; nothing to purge\n", cmdCtx.Config.Store.Backend)
	}
	if !opts.Yes {
		if err = cmdCtx.confirm("remove expired client state"); err != nil {
			return err
		}
	}

	n, err := bundle.Reaper.PurgeExpired(cmdCtx.Ctx, cmdCtx.now())
	if err != nil {
		return fmt.Errorf("purge client state: %w", err)
	}
	return writef(cmdCtx.Out, "purged %d client state entries\n", n)
}
