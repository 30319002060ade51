package safety

import "strings"

// programRule declares per-program subcommand and option restrictions
// (layer 3). Grounded on the teacher's config.DestructiveCommands list
// (git reset --hard, chmod 777) generalized into a registry keyed by
// program name, plus the options spec.md §4.5 names explicitly (find
// -delete/-exec, sed without -n, rg --pre).
type programRule struct {
	// forbiddenSubcommands maps a subcommand (argv[1]) to the decision it
	// always produces, e.g. git's "push --force".
	forbiddenSubcommands map[string]Decision
	// forbiddenOptions maps a single flag/option to the decision it
	// produces whenever present anywhere in argv.
	forbiddenOptions map[string]Decision
	// requireAnyOf, if non-empty, means: if NONE of these options are
	// present, apply the given decision (models "sed without -n").
	requireAnyOf []string
	requireElse  Decision
	requireWhy   string
}

var programRules = map[string]programRule{
	"rm": {
		forbiddenOptions: map[string]Decision{
			"-rf": AskUser, "-fr": AskUser, "-r": AskUser, "-R": AskUser,
			"--recursive": AskUser, "--force": AskUser,
		},
	},
	"git": {
		forbiddenSubcommands: map[string]Decision{
			"reset --hard": AskUser,
			"clean -fd":    AskUser,
			"clean -f":     AskUser,
			"push --force": AskUser,
			"push -f":      AskUser,
		},
	},
	"chmod": {
		forbiddenOptions: map[string]Decision{
			"777": AskUser,
		},
	},
	"find": {
		forbiddenOptions: map[string]Decision{
			"-delete": AskUser,
			"-exec":   AskUser,
			"-execdir": AskUser,
		},
	},
	"sed": {
		requireAnyOf: []string{"-n", "--quiet", "--silent"},
		requireElse:  AskUser,
		requireWhy:   "sed without -n may print every line it touches and enables in-place rewrites",
	},
	"rg": {
		forbiddenOptions: map[string]Decision{
			"--pre": AskUser,
		},
	},
	"curl": {
		forbiddenOptions: map[string]Decision{
			"-o": Allow, // explicit allow marker: downloads alone are routine
		},
	},
}

// encoderOutputFlags lists output encoders whose redirection into a
// file target warrants a closer look — they can silently overwrite
// build artifacts or clobber source files via a crafted -o/--output.
var encoderOutputFlags = map[string][]string{
	"gzip": {"-c"}, "zip": {"-O"}, "tar": {"-f"},
	"base64": {"-o"}, "openssl": {"-out"},
}

// evaluateRules applies layer 3 to one decomposed command string, already
// split into argv-like fields.
func evaluateRules(fields []string) SafetyDecision {
	if len(fields) == 0 {
		return allow("empty command")
	}
	prog := baseName(fields[0])
	rule, ok := programRules[prog]
	if !ok {
		return checkEncoderRedirect(prog, fields)
	}

	rest := strings.Join(fields[1:], " ")

	for sub, dec := range rule.forbiddenSubcommands {
		if strings.Contains(rest, sub) {
			return SafetyDecision{Decision: dec, Reasons: []string{prog + " " + sub + " is a restricted subcommand"}}
		}
	}

	for _, f := range fields[1:] {
		if dec, ok := rule.forbiddenOptions[f]; ok && dec != Allow {
			return SafetyDecision{Decision: dec, Reasons: []string{prog + " " + f + " is a restricted option"}}
		}
	}
	// substring form for combined short flags like "-rf"
	for opt, dec := range rule.forbiddenOptions {
		if dec == Allow {
			continue
		}
		for _, f := range fields[1:] {
			if strings.HasPrefix(f, "-") && strings.Contains(f, strings.TrimPrefix(opt, "-")) && strings.HasPrefix(opt, "-") {
				return SafetyDecision{Decision: dec, Reasons: []string{prog + " " + f + " is a restricted option"}}
			}
		}
	}

	if len(rule.requireAnyOf) > 0 {
		found := false
		for _, want := range rule.requireAnyOf {
			for _, f := range fields[1:] {
				if f == want {
					found = true
				}
			}
		}
		if !found {
			return SafetyDecision{Decision: rule.requireElse, Reasons: []string{rule.requireWhy}}
		}
	}

	return allow(prog + " is allowed")
}

func checkEncoderRedirect(prog string, fields []string) SafetyDecision {
	flags, ok := encoderOutputFlags[prog]
	if !ok {
		return allow(prog + " has no restrictions")
	}
	for _, f := range fields[1:] {
		for _, bad := range flags {
			if f == bad {
				return ask(prog + " " + bad + " writes to an explicit output path")
			}
		}
	}
	return allow(prog + " is allowed")
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
