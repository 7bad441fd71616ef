package dashboard

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/firefly-engineering/conduit-console/internal/logging"
)

// RunHeadless renders a text frame to w on every refresh. It returns when
// ctx is cancelled, Duration elapses, or a "q", "quit" or "exit" line is
// read from in. Reaching EOF on in does not stop it. The error is nil for
// every one of those exits.
func RunHeadless(ctx context.Context, w io.Writer, in io.Reader, src Source, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var deadline <-chan time.Time
	if opts.Duration > 0 {
		timer := time.NewTimer(opts.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	quit := make(chan struct{})
	if in != nil {
		go readExitInput(ctx, in, quit)
	}

	ticker := time.NewTicker(opts.interval())
	defer ticker.Stop()

	refreshes := 0
	refresh := func() {
		refreshes++
		rctx, rcancel := context.WithTimeout(ctx, opts.interval())
		snap, err := src.Snapshot(rctx)
		rcancel()
		if ctx.Err() != nil {
			return
		}
		writeFrame(w, refreshes, opts.now(), snap, err)
	}

	changes := opts.Changes

	refresh()
	for {
		select {
		case <-ctx.Done():
			logging.Debug("dashboard stopping", "reason", "context", "refreshes", refreshes)
			return nil
		case <-deadline:
			logging.Debug("dashboard stopping", "reason", "duration", "refreshes", refreshes)
			return nil
		case <-quit:
			logging.Debug("dashboard stopping", "reason", "input", "refreshes", refreshes)
			return nil
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			refresh()
		case <-ticker.C:
			refresh()
		}
	}
}

// readExitInput closes quit when an exit command is read. It returns
// without closing quit on EOF or a read error.
func readExitInput(ctx context.Context, in io.Reader, quit chan<- struct{}) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if isExitInput(scanner.Text()) {
			close(quit)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logging.Debug("dashboard input closed", "error", err)
	}
}

func isExitInput(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}

func writeFrame(w io.Writer, n int, at time.Time, snap Snapshot, err error) {
	fmt.Fprintf(w, "=== refresh #%d at %s ===\n", n, at.Format(time.RFC3339))
	if err != nil {
		fmt.Fprintf(w, "error: %v\n\n", err)
		return
	}
	if len(snap.Results) == 0 {
		fmt.Fprint(w, "no conduits\n\n")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tBACKEND\tSTATUS\tUPTIME\tRESTARTS\tINSTANCE")
	for _, r := range snap.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Conduit, r.Backend, formatStatus(r.Status), dash(r.Uptime), r.RestartCount, shortID(r.InstanceID))
	}
	tw.Flush()
	fmt.Fprintln(w)
}
