package roulette

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownTarget is returned when a target name does not parse.
var ErrUnknownTarget = errors.New("roulette: unknown bet target")

var groupAliases = map[string]Group{
	"column-a": ColumnA, "column-b": ColumnB, "column-c": ColumnC,
	"dozen-1": Dozen1, "dozen-2": Dozen2, "dozen-3": Dozen3,
	"low": Low, "1-18": Low,
	"high": High, "19-36": High,
	"even": Even, "odd": Odd,
	"red": RedGroup, "black": BlackGroup,
}

// Lookup resolves a textual target into a Space. Accepted forms are a
// pocket number ("17"), a grouping name ("red", "column-a", "dozen-2",
// "low"), "split:a-b" and "corner:a-b-c-d". Every Space's Name() is
// accepted.
func (c *Catalog) Lookup(name string) (Space, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnknownTarget)
	}

	if v, err := strconv.Atoi(key); err == nil {
		p, err := c.Primitive(v)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	if g, ok := groupAliases[key]; ok {
		return c.groups[g], nil
	}

	kind, rest, ok := strings.Cut(key, ":")
	if !ok || (kind != "split" && kind != "corner") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}

	parts := strings.Split(rest, "-")
	spaces := make([]Space, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
		}
		p, err := c.Primitive(v)
		if err != nil {
			return nil, err
		}
		spaces[i] = p
	}

	if want := map[string]int{"split": 2, "corner": 4}[kind]; len(spaces) != want {
		return nil, fmt.Errorf("%w: %s needs %d pockets, got %d", ErrWrongSpaceCount, kind, want, len(spaces))
	}
	if err := ValidateMulti(spaces); err != nil {
		return nil, err
	}
	return multiComposite(spaces), nil
}
