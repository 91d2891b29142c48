// Package repl is an interactive lookup shell. Plain input is a query;
// lines starting with ':' are commands.
package repl

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ergochat/readline"

	"github.com/gcbaptista/go-dictionary-lookup/model"
	"github.com/gcbaptista/go-dictionary-lookup/services"
)

const helpText = `plain text        search for it
:strategy NAME    switch to linear or indexed
:lookup TEXT      one-off lookup, leaves the current query alone
:load             load the dictionary if not loaded
:refresh          re-read the dictionary
:state            show the current query and results
:help             this text
:quit             leave`

var completer = readline.NewPrefixCompleter(
	readline.PcItem(":strategy",
		readline.PcItem(string(model.StrategyLinear)),
		readline.PcItem(string(model.StrategyIndexed)),
	),
	readline.PcItem(":lookup"),
	readline.PcItem(":load"),
	readline.PcItem(":refresh"),
	readline.PcItem(":state"),
	readline.PcItem(":help"),
	readline.PcItem(":quit"),
	readline.PcItem(":exit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// REPL reads lines from a terminal and runs them against a dictionary
type REPL struct {
	dict        services.Dictionary
	out         io.Writer
	historyFile string
	rl          *readline.Instance
}

// New creates a shell writing to stdout. An empty historyFile disables history.
func New(dict services.Dictionary, historyFile string) *REPL {
	return &REPL{dict: dict, out: os.Stdout, historyFile: historyFile}
}

// Open attaches to the terminal
func (r *REPL) Open() (err error) {
	r.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "» ",
		HistoryFile:     r.historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return
	}
	r.rl.CaptureExitSignal()
	return
}

// Close releases the terminal
func (r *REPL) Close() error {
	if r.rl != nil {
		_ = r.rl.Close()
		r.rl = nil
	}
	return nil
}

// Run reads and executes lines until :quit, end of input or ctx cancellation.
// Command errors are printed, not returned.
func (r *REPL) Run(ctx context.Context) error {
	if r.rl == nil {
		return fmt.Errorf("repl is not open")
	}
	fmt.Fprintln(r.out, "type to search, :help for commands")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := r.rl.Readline()
		if stderrors.Is(err, readline.ErrInterrupt) {
			if len(line) != 0 {
				continue
			}
			return nil
		}
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := r.Execute(ctx, line)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs one input line. It reports whether the shell should exit.
func (r *REPL) Execute(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, ":") {
		r.dict.SetQuery(line)
		r.dict.Recompute()
		r.printState()
		return false, nil
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "strategy":
		strategy, err := model.ParseStrategy(arg)
		if err != nil {
			return false, err
		}
		if err := r.dict.SetStrategy(strategy); err != nil {
			return false, err
		}
		r.printState()
	case "lookup":
		result := r.dict.Lookup(arg, "")
		r.printEntries(result.Entries)
		r.printSummary(len(result.Entries), result.Total, result.Strategy, result.Took, result.Timed)
	case "load":
		if err := r.dict.Load(ctx); err != nil {
			return false, err
		}
		r.printState()
	case "refresh":
		if err := r.dict.Refresh(ctx); err != nil {
			return false, err
		}
		r.printState()
	case "state":
		r.printState()
	case "help":
		fmt.Fprintln(r.out, helpText)
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command :%s (try :help)", cmd)
	}
	return false, nil
}

func (r *REPL) printState() {
	snap := r.dict.Snapshot()
	if snap.IsLoading {
		fmt.Fprintln(r.out, "loading…")
	}
	if snap.HasError() {
		fmt.Fprintln(r.out, snap.ErrorMessage)
	}
	r.printEntries(snap.Visible)

	var took time.Duration
	timed := snap.LastSearchDuration != nil && snap.Query != ""
	if timed {
		took = *snap.LastSearchDuration
	}
	r.printSummary(len(snap.Visible), snap.TotalEntries, snap.Strategy, took, timed)
}

func (r *REPL) printEntries(entries []model.Entry) {
	for _, e := range entries {
		fmt.Fprintf(r.out, "  %s\t%s\n", e.Word, e.Translation)
	}
}

func (r *REPL) printSummary(shown, total int, strategy model.Strategy, took time.Duration, timed bool) {
	if timed {
		fmt.Fprintf(r.out, "%d of %d entries (%s, %s)\n", shown, total, strategy, took)
		return
	}
	fmt.Fprintf(r.out, "%d of %d entries (%s)\n", shown, total, strategy)
}
