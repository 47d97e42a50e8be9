package domain

import "fmt"

// ErrorKind classifies a CommandError.
type ErrorKind int

const (
	KindWrongArity ErrorKind = iota + 1
	KindNotInteger
	KindInvalidExpire
	KindSyntax
	KindUnknownCommand
	KindUnknownConfig
	KindUnknownSubcommand
	KindEmptyCommand
	KindRateLimited
)

// CodeErr is the generic error prefix used on the wire.
const CodeErr = "ERR"

// CommandError is returned by the command dispatcher when a frame was
// decoded correctly but the command itself cannot be executed. The
// connection stays open after a CommandError is replied.
type CommandError struct {
	Kind    ErrorKind
	Code    string // wire prefix, e.g. "ERR"
	Message string
}

// Error implements the error interface. The result is the exact text of
// the RESP error reply, without the leading '-'.
func (e *CommandError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + " " + e.Message
}

// Is implements errors.Is() support. Two CommandErrors match when they
// have the same Kind.
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newCommandError(kind ErrorKind, msg string) *CommandError {
	return &CommandError{Kind: kind, Code: CodeErr, Message: msg}
}

// Sentinels for errors.Is comparisons.
var (
	ErrWrongArity     = newCommandError(KindWrongArity, "wrong number of arguments")
	ErrNotInteger     = newCommandError(KindNotInteger, "value is not an integer or out of range")
	ErrSyntax         = newCommandError(KindSyntax, "syntax error")
	ErrUnknownCommand = newCommandError(KindUnknownCommand, "unknown command")
	ErrEmptyCommand   = newCommandError(KindEmptyCommand, "no command")
	ErrRateLimited    = newCommandError(KindRateLimited, "rate limit exceeded")
)

// WrongArity returns the error for a command called with the wrong
// number of arguments. cmd is rendered upper-case.
func WrongArity(cmd string) *CommandError {
	return newCommandError(KindWrongArity, fmt.Sprintf("wrong number of arguments for '%s' command", cmd))
}

// InvalidExpire returns the error for a non-positive or non-numeric TTL.
func InvalidExpire(cmd string) *CommandError {
	return newCommandError(KindInvalidExpire, fmt.Sprintf("invalid expire time in '%s' command", cmd))
}

// UnknownCommand returns the error for a command name with no handler.
func UnknownCommand(name string) *CommandError {
	return newCommandError(KindUnknownCommand, fmt.Sprintf("unknown command '%s'", name))
}

// UnknownConfig returns the error for an unrecognized CONFIG GET parameter.
func UnknownConfig(name string) *CommandError {
	return newCommandError(KindUnknownConfig, fmt.Sprintf("unknown config parameter '%s'", name))
}

// UnknownSubcommand returns the error for a container command such as
// CONFIG called with a subcommand it does not implement.
func UnknownSubcommand(cmd, sub string) *CommandError {
	return newCommandError(KindUnknownSubcommand, fmt.Sprintf("unknown subcommand '%s' for '%s' command", sub, cmd))
}
