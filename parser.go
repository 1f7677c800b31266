package aqgo

import (
	"strconv"
	"strings"
)

// Command is one parsed GTP request.
type Command struct {
	ID   int // echoed request id, -1 when absent
	Verb string
	Args []string
}

// Parse decomposes one raw input line into id, verb and arguments per the
// GTP v2 grammar. Tokens are whitespace separated; a leading all-digit token
// (after stripping a stray "=") is the request id; everything after the verb
// is an argument. Parsing is total: every line yields a Command, possibly
// with an empty verb.
func Parse(line string) Command {
	cmd := Command{ID: -1}
	for _, tok := range strings.Fields(line) {
		if cmd.Verb != "" {
			cmd.Args = append(cmd.Args, tok)
			continue
		}
		tok = strings.TrimPrefix(tok, "=")
		if tok == "" {
			continue
		}
		if isDigits(tok) {
			if id, err := strconv.Atoi(tok); err == nil {
				cmd.ID = id
			}
			continue
		}
		cmd.Verb = tok
	}
	return cmd
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
