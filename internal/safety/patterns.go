package safety

import (
	"regexp"
	"strings"
)

// dangerousPattern is a hard-coded signature (layer 2) that denies a
// command outright, independent of any policy. Grounded on the teacher's
// config.DestructiveCommands list, narrowed to patterns that are never
// legitimate (layer 3's subcommand/option registry handles the merely
// risky-but-sometimes-intentional cases like `git reset --hard`).
type dangerousPattern struct {
	name string
	re   *regexp.Regexp
}

var dangerousPatterns = []dangerousPattern{
	{
		name: "recursive root delete",
		re:   regexp.MustCompile(`\brm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+(--no-preserve-root\s+)?/\s*$`),
	},
	{
		name: "recursive root delete",
		re:   regexp.MustCompile(`\brm\s+.*--no-preserve-root`),
	},
	{
		name: "disk format command",
		re:   regexp.MustCompile(`\b(mkfs(\.\w+)?|fdisk|parted|sfdisk)\b`),
	},
	{
		name: "direct disk write",
		re:   regexp.MustCompile(`\bdd\s+.*\bof=/dev/(disk|sd|hd|nvme|xvd)`),
	},
	{
		name: "system shutdown",
		re:   regexp.MustCompile(`\b(shutdown|reboot|poweroff|halt)\b`),
	},
	{
		name: "fork bomb",
		re:   regexp.MustCompile(`:\(\)\s*\{\s*:\s*\|\s*:\s*&?\s*\}\s*;\s*:`),
	},
	{
		name: "device write redirection",
		re:   regexp.MustCompile(`>\s*/dev/(sd|hd|nvme|xvd|disk)`),
	},
}

// privilegeEscalators are wrapper commands that re-invoke another command
// with elevated privileges; the wrapped command must itself be evaluated.
var privilegeEscalators = map[string]bool{
	"sudo": true,
	"doas": true,
	"su":   true,
	"pkexec": true,
}

// matchDangerousPatterns checks a single decomposed command string against
// the hard-coded signature list, unwrapping privilege-escalating wrappers
// first so `sudo rm -rf /` is caught by the same rule as `rm -rf /`.
func matchDangerousPatterns(cmd string) (bool, string) {
	unwrapped := unwrapPrivilegeEscalation(cmd)
	for _, p := range dangerousPatterns {
		if p.re.MatchString(unwrapped) {
			return true, "dangerous pattern: " + p.name
		}
	}
	return false, ""
}

// unwrapPrivilegeEscalation strips a leading sudo/doas/su/pkexec invocation
// so the inner command is what gets pattern-matched.
func unwrapPrivilegeEscalation(cmd string) string {
	fields := strings.Fields(cmd)
	for len(fields) > 0 && privilegeEscalators[fields[0]] {
		fields = fields[1:]
		// skip common sudo flags like -n, -E, -u user
		for len(fields) > 0 && strings.HasPrefix(fields[0], "-") {
			fields = fields[1:]
		}
	}
	return strings.Join(fields, " ")
}

// powershellStartProcessURL flags `Start-Process <url>`-shaped
// PowerShell invocations (§4.5 platform heuristic). These are AskUser, not
// Deny — launching a browser on a URL is routine, but doing it from a
// script is worth a human glance.
var powershellStartProcessURL = regexp.MustCompile(`(?i)start-process\s+['"]?(https?://|www\.)`)

func isPowershellExternalLaunch(cmd string) bool {
	return powershellStartProcessURL.MatchString(cmd)
}
