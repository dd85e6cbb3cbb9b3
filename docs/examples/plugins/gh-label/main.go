// Command gh-label is a minimal gh plugin. It answers the three invocation
// types gh sends on stdin: command, setup and payload.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type invocation struct {
	ProtocolVersion string         `json:"protocol_version"`
	Type            string         `json:"type"`
	Command         string         `json:"command,omitempty"`
	Stage           string         `json:"stage,omitempty"`
	Args            []string       `json:"args,omitempty"`
	Options         map[string]any `json:"options,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
	RunID           string         `json:"run_id,omitempty"`
}

type response struct {
	Context map[string]any `json:"context,omitempty"`
	Options map[string]any `json:"options,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func reply(r response) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
}

func main() {
	var inv invocation
	if err := json.NewDecoder(os.Stdin).Decode(&inv); err != nil {
		reply(response{Error: "parsing invocation: " + err.Error()})
		os.Exit(1)
	}
	if inv.ProtocolVersion != "1" {
		reply(response{Error: "unsupported protocol version " + inv.ProtocolVersion})
		os.Exit(1)
	}

	switch inv.Type {
	case "setup":
		// Extra fields for hook templates.
		reply(response{Context: map[string]any{"default_label": defaultLabel(inv.Context)}})
	case "payload":
		// "gh label 12 13" means --check --number 12 --number 13.
		var numbers []any
		for _, a := range inv.Args {
			if _, err := strconv.Atoi(a); err != nil {
				reply(response{Error: fmt.Sprintf("%q is not an issue number", a)})
				return
			}
			numbers = append(numbers, a)
		}
		if len(numbers) == 0 {
			reply(response{})
			return
		}
		reply(response{Options: map[string]any{"check": true, "number": numbers}})
	case "command":
		runCommand(inv)
	}
}

func defaultLabel(ctx map[string]any) string {
	if opts, ok := ctx["options"].(map[string]any); ok {
		if l, ok := opts["default"].(string); ok && l != "" {
			return l
		}
	}
	return "untriaged"
}

func runCommand(inv invocation) {
	switch inv.Command {
	case "label.policy":
		fmt.Println("Every issue carries at least one label.")
		fmt.Println("Issues created without one are reported by gh label --check.")
	case "label.check":
		fmt.Printf("checking issue #%v\n", inv.Options["number"])
	default:
		fmt.Println("usage: gh label --policy | --check --number N")
	}
}
