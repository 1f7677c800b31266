package aqgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"protocol_version", Command{ID: -1, Verb: "protocol_version"}},
		{"1 protocol_version", Command{ID: 1, Verb: "protocol_version"}},
		{"=23 play b D4", Command{ID: 23, Verb: "play", Args: []string{"b", "D4"}}},
		{"  genmove   w  ", Command{ID: -1, Verb: "genmove", Args: []string{"w"}}},
		{"time_left b 30 0", Command{ID: -1, Verb: "time_left", Args: []string{"b", "30", "0"}}},
		{"", Command{ID: -1}},
		{"   ", Command{ID: -1}},
		// A bare id with no verb is received, echoed nowhere, and dropped.
		{"42", Command{ID: 42}},
		// A later id token before the verb overwrites an earlier one.
		{"7 9 name", Command{ID: 9, Verb: "name"}},
		// Digits after the verb are ordinary arguments.
		{"boardsize 19", Command{ID: -1, Verb: "boardsize", Args: []string{"19"}}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Parse(tt.line), "line %q", tt.line)
	}
}
