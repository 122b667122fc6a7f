package setflag_test

import (
	"flag"
	"io"
	"testing"

	"github.com/amonks/taggraph/setflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFlag(t *testing.T) {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	countries := setflag.New("United States", "France", "Japan")
	fs.Var(countries, "countries", "countries to crawl")

	require.NoError(t, fs.Parse([]string{"-countries", "Japan, France", "-countries", "France"}))
	assert.Equal(t, []string{"France", "Japan"}, countries.List())
	assert.Equal(t, "France,Japan", countries.String())
}

func TestSetFlagRejectsUnknown(t *testing.T) {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(setflag.New("France"), "countries", "countries to crawl")

	err := fs.Parse([]string{"-countries", "Atlantis"})
	assert.ErrorContains(t, err, "unsupported value 'Atlantis'")
}

func TestSetFlagEmpty(t *testing.T) {
	assert.Empty(t, setflag.New("France").List())
}
