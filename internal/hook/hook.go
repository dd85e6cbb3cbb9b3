// Package hook runs user-defined shell snippets before and after commands.
//
// Hook snippets are templates stored in config under hooks.<path>.<stage>,
// where path is "<command>.<action>" (e.g. "issue.close"). Installed
// plugins add their own under plugins.<name>.hooks.<path>.<stage>. Each
// snippet is rendered against the command's options and run with sh -c.
// A failing hook is logged and never aborts the command.
package hook

// Stage identifies when a hook runs relative to the command body.
type Stage string

const (
	StageBefore Stage = "before"
	StageAfter  Stage = "after"
)

// AllStages is the execution order around a command body.
var AllStages = []Stage{StageBefore, StageAfter}

// Lock prevents hooks from firing while another hooked operation is in
// flight. Commands that call other commands would otherwise run the
// inner command's hooks too. It is a flag, not a mutex: gh is single
// threaded and a blocked caller simply skips its hooks.
type Lock struct {
	held bool
}

// TryAcquire takes the lock if it is free and reports whether it did.
func (l *Lock) TryAcquire() bool {
	if l.held {
		return false
	}
	l.held = true
	return true
}

// Release frees the lock.
func (l *Lock) Release() {
	l.held = false
}

// Held reports whether the lock is taken.
func (l *Lock) Held() bool {
	return l != nil && l.held
}
