package main

import "strings"

// valueFlags are the flags that take a value.
var valueFlags = map[string]bool{
	"dir":        true,
	"dbfilename": true,
	"config":     true,
}

// boolFlags are the flags handled by the CLI framework itself.
var boolFlags = map[string]bool{
	"help":    true,
	"h":       true,
	"version": true,
	"v":       true,
}

// filterArgs drops everything from args except the known flags and their
// values, so unrecognised flags and stray arguments are ignored instead
// of failing the parse. args[0] is kept.
func filterArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	out := []string{args[0]}
	for i := 1; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		switch {
		case valueFlags[name]:
			out = append(out, arg)
			if !hasValue && i+1 < len(args) {
				i++
				out = append(out, args[i])
			}
		case boolFlags[name]:
			out = append(out, arg)
		}
	}
	return out
}
