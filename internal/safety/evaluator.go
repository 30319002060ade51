package safety

import (
	"strings"
)

// Evaluator implements the full six-layer command-safety pipeline
// described in spec.md §4.5.
type Evaluator struct {
	Policy *Policy
	cache  *decisionCache
	audit  *AuditLogger
}

// NewEvaluator constructs an Evaluator with a bounded decision cache and an
// audit logger writing under auditDir.
func NewEvaluator(policy *Policy, cacheSize int, auditDir string) *Evaluator {
	return &Evaluator{
		Policy: policy,
		cache:  newDecisionCache(cacheSize),
		audit:  NewAuditLogger(auditDir),
	}
}

// Evaluate decides Allow/Deny/Ask for a candidate argv. It applies no
// policy-approval floor, but still consults e.Policy's rules when a
// policy is set.
func (e *Evaluator) Evaluate(argv []string) SafetyDecision {
	return e.evaluate(argv, nil)
}

// EvaluateWithPolicy additionally consults the policy layer.
// policyAllowed=false forces at least AskUser; safety denials always
// override a policy approval — the spec's open question on policy
// precedence: a rules-layer Ask can never be silently upgraded to Allow by
// policy alone.
func (e *Evaluator) EvaluateWithPolicy(argv []string, policyAllowed bool) SafetyDecision {
	return e.evaluate(argv, &policyAllowed)
}

func (e *Evaluator) evaluate(argv []string, policyAllowed *bool) SafetyDecision {
	sig := ArgvSignature(argv)
	policyVersion := 0
	if e.Policy != nil {
		policyVersion = e.Policy.Version
	}

	if cached, ok := e.cache.get(sig, policyVersion); ok {
		cached.CacheHit = true
		cached = applyPolicyFloor(cached, policyAllowed)
		e.audit.Append(argv, cached)
		return cached
	}

	decision := e.evaluateUncached(argv)
	decision = applyPolicyFloor(decision, policyAllowed)

	toCache := decision
	toCache.CacheHit = false
	e.cache.put(sig, policyVersion, toCache)

	e.audit.Append(argv, decision)
	return decision
}

// applyPolicyFloor enforces "policy can only further restrict": it can
// raise Allow to AskUser when policyAllowed is false, but it never lowers
// a Deny, and it never silently turns an existing Ask into an Allow.
func applyPolicyFloor(d SafetyDecision, policyAllowed *bool) SafetyDecision {
	if policyAllowed == nil {
		return d
	}
	if d.Decision == Deny {
		return d
	}
	if !*policyAllowed && d.Decision == Allow {
		return ask("policy does not pre-approve this command", d.Reasons...)
	}
	return d
}

func (e *Evaluator) evaluateUncached(argv []string) SafetyDecision {
	// Layer 1: shell decomposition.
	if script, ok := isShellInvocation(argv); ok {
		commands := decomposeShellScript(script)
		if len(commands) == 0 {
			return e.evaluateSingle(argv)
		}
		var combined SafetyDecision
		first := true
		for _, fields := range commands {
			d := e.evaluateFields(fields)
			if first {
				combined = d
				first = false
			} else {
				combined = mostRestrictive(combined, d)
			}
		}
		return combined
	}

	return e.evaluateSingle(argv)
}

func (e *Evaluator) evaluateSingle(argv []string) SafetyDecision {
	return e.evaluateFields(argv)
}

// evaluateFields runs layers 2-4 (minus the final policy floor, applied by
// the caller) over one decomposed command's argv.
func (e *Evaluator) evaluateFields(fields []string) SafetyDecision {
	if len(fields) == 0 {
		return allow("empty command")
	}
	full := strings.Join(fields, " ")

	// Layer 2: hard-coded dangerous patterns. Deny outright.
	if bad, reason := matchDangerousPatterns(full); bad {
		return deny(reason)
	}

	// Platform heuristic: PowerShell Start-Process with an external URL.
	if isPowershellExternalLaunch(full) {
		return ask("PowerShell Start-Process targeting an external URL")
	}

	// Layer 3: subcommand & option registry.
	ruleDecision := evaluateRules(fields)

	// Layer 4: optional policy on an exact command prefix. Policy can only
	// further restrict (never override Deny, never silently upgrade Ask
	// to Allow) — enforced by applyPolicyFloor after this returns, and by
	// Decide() itself: Deny/Ask patterns are matched ahead of Allow.
	if e.Policy != nil {
		rule := BuildRule("Bash", full)
		if dec, matched := e.Policy.Decide(rule); matched {
			if dec == Deny || ruleDecision.Decision == Deny {
				return mostRestrictive(ruleDecision, SafetyDecision{Decision: dec, Reasons: []string{"policy rule matched: " + rule}})
			}
			if dec == AskUser && ruleDecision.Decision == Allow {
				return ask("policy requires confirmation for: " + rule)
			}
		}
	}

	return ruleDecision
}
