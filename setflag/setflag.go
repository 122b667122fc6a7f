// Package setflag is a flag.Value for choosing any number of values from a
// fixed set, as in -countries France,Japan.
package setflag

import (
	"fmt"
	"strings"
)

func New(options ...string) *SetFlag {
	sf := &SetFlag{
		options: make(map[string]int, len(options)),
		chosen:  make(map[string]struct{}, len(options)),
	}
	for _, opt := range options {
		if _, dup := sf.options[opt]; !dup {
			sf.options[opt] = len(sf.order)
			sf.order = append(sf.order, opt)
		}
	}
	return sf
}

type SetFlag struct {
	// option -> position in order
	options map[string]int
	order   []string
	chosen  map[string]struct{}
}

// List returns the chosen values in the order their options were given to
// New.
func (sf *SetFlag) List() []string {
	var values []string
	for _, opt := range sf.order {
		if _, ok := sf.chosen[opt]; ok {
			values = append(values, opt)
		}
	}
	return values
}

func (sf *SetFlag) String() string {
	if sf == nil {
		return ""
	}
	return strings.Join(sf.List(), ",")
}

func (sf *SetFlag) Set(value string) error {
	for _, value := range strings.Split(value, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := sf.options[value]; !exists {
			return fmt.Errorf("unsupported value '%s'; choose from %s", value, strings.Join(sf.order, ", "))
		}
		sf.chosen[value] = struct{}{}
	}
	return nil
}
