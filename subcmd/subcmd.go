// Package subcmd is a thin layer over flag for taggraph's subcommands, which
// take flags plus at most one positional argument.
package subcmd

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

func New(name, doc string) *Subcommand {
	sc := &Subcommand{
		FlagSet: flag.NewFlagSet(name, flag.ContinueOnError),
		name:    name,
	}
	sc.FlagSet.Usage = func() { sc.usage(sc.FlagSet.Output(), doc) }
	return sc
}

type Subcommand struct {
	*flag.FlagSet
	name string
	arg  *arg
}

type arg struct {
	name     string
	typename string
	usage    string
}

func (sc *Subcommand) SetArg(name, typename, usage string) *Subcommand {
	sc.arg = &arg{name, typename, usage}
	return sc
}

// Arg returns the positional argument, joining any extra words so that
// multi-word names like "hard rock" don't need quoting.
func (sc *Subcommand) Arg() (string, error) {
	if sc.arg == nil {
		return "", fmt.Errorf("%s takes no argument", sc.name)
	}
	value := strings.TrimSpace(strings.Join(sc.FlagSet.Args(), " "))
	if value == "" {
		sc.FlagSet.Usage()
		return "", fmt.Errorf("%s: missing <%s>", sc.name, sc.arg.name)
	}
	return value, nil
}

func (sc *Subcommand) usage(w io.Writer, doc string) {
	argSuffix := ""
	if sc.arg != nil {
		argSuffix = fmt.Sprintf(" <%s>", sc.arg.name)
	}
	fmt.Fprintf(w, "\n%s\n\n", doc)
	fmt.Fprintf(w, "  taggraph %s [flags]%s\n\n", sc.name, argSuffix)
	fmt.Fprintf(w, "flags:\n")
	sc.FlagSet.PrintDefaults()
	if sc.arg != nil {
		fmt.Fprintf(w, "  <%s> %s\n", sc.arg.name, sc.arg.typename)
		fmt.Fprintf(w, "  \t%s\n", sc.arg.usage)
	}
}
