package mode

import (
	"path/filepath"
	"strings"

	rderr "rdesk/internal/errors"
)

// Resolve maps the argument vector (without the program name) to a
// Mode.  It has no side effects; callers log the returned
// *errors.ArgumentError and abort startup.
//
//	(none)                          Main
//	--install                       Install
//	--cm                            ConnectionManager
//	--connect <id> [pass] [extra…]  RemoteSession (also --file-transfer,
//	                                --port-forward, --rdp)
//	--play <path>                   --connect <file stem of path>
//
// Only the first token selects the mode; tokens after --install and
// --cm are ignored.
func Resolve(args []string) (Mode, error) {
	args = rewritePlay(args)
	if len(args) == 0 {
		return Main{}, nil
	}

	switch args[0] {
	case FlagInstall:
		return Install{}, nil
	case FlagCM:
		return ConnectionManager{}, nil
	}

	kind, ok := KindFromFlag(args[0])
	if !ok {
		return nil, &rderr.ArgumentError{Args: clone(args), Err: rderr.ErrUnknownCommand}
	}
	if len(args) < 2 {
		return nil, &rderr.ArgumentError{Args: clone(args), Err: rderr.ErrMissingTarget}
	}

	rs := RemoteSession{Kind: kind, TargetID: args[1]}
	if len(args) > 2 {
		rs.Password = args[2]
	}
	if len(args) > 3 {
		rs.ExtraArgs = clone(args[3:])
	}
	return rs, nil
}

// rewritePlay turns "--play <path> …" into "--connect <stem> …".  The
// input slice is not modified.
func rewritePlay(args []string) []string {
	if len(args) < 2 || args[0] != FlagPlay {
		return args
	}
	out := clone(args)
	out[0] = FlagConnect
	out[1] = fileStem(args[1])
	return out
}

// fileStem returns the final path element without its extension, or ""
// when the path has no file name ("", "/", ".", "..").  A leading dot
// does not start an extension, so ".recording" keeps its name.
func fileStem(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return base
	}
	return base[:i]
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
