package safety

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// isShellInvocation reports whether argv is of the shape
// {sh,bash,zsh,dash} -l?c <script>, per spec.md §4.5 layer 1.
func isShellInvocation(argv []string) (script string, ok bool) {
	if len(argv) < 2 {
		return "", false
	}
	prog := baseName(argv[0])
	switch prog {
	case "sh", "bash", "zsh", "dash":
	default:
		return "", false
	}
	// Accept "-c script", "-lc script", "-c" "script" as separate args.
	for i := 1; i < len(argv)-1; i++ {
		flag := argv[i]
		if strings.Contains(flag, "c") && strings.HasPrefix(flag, "-") {
			return argv[i+1], true
		}
	}
	return "", false
}

// decomposeShellScript splits a shell script into its constituent simple
// commands using mvdan.cc/sh's POSIX-ish grammar. On parse failure it falls
// back to a tokenizer that understands &&, ||, ;, pipes, quotes, and
// escapes (spec.md §4.5 layer 1 fallback).
func decomposeShellScript(script string) [][]string {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(script), "")
	if err != nil {
		return tokenizeFallback(script)
	}

	var commands [][]string
	syntax.Walk(file, func(node syntax.Node) bool {
		call, isCall := node.(*syntax.CallExpr)
		if !isCall || len(call.Args) == 0 {
			return true
		}
		var fields []string
		for _, word := range call.Args {
			fields = append(fields, literalize(word))
		}
		commands = append(commands, fields)
		return true
	})

	if len(commands) == 0 {
		return tokenizeFallback(script)
	}
	return commands
}

// literalize renders a syntax.Word back to its literal text for the parts
// that are plain literals/quoted strings; parameter expansions and command
// substitutions are rendered with their surface syntax preserved so
// pattern matching still sees the command shape.
func literalize(w *syntax.Word) string {
	var sb strings.Builder
	syntax.NewPrinter().Print(&sb, w)
	return sb.String()
}

// tokenizeFallback is a hand-rolled decomposer for when the grammar parser
// can't handle the input (e.g. non-POSIX constructs). It splits on &&, ||,
// ;, and | while respecting single/double quotes and backslash escapes.
func tokenizeFallback(script string) [][]string {
	var commands [][]string
	var current []string
	var field strings.Builder
	var quote rune
	escaped := false

	flush := func() {
		if field.Len() > 0 {
			current = append(current, field.String())
			field.Reset()
		}
	}
	endCommand := func() {
		flush()
		if len(current) > 0 {
			commands = append(commands, current)
			current = nil
		}
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case escaped:
			field.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				field.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '&' && i+1 < len(runes) && runes[i+1] == '&':
			endCommand()
			i++
		case r == '|' && i+1 < len(runes) && runes[i+1] == '|':
			endCommand()
			i++
		case r == ';' || r == '|' || r == '\n':
			endCommand()
		case r == ' ' || r == '\t':
			flush()
		default:
			field.WriteRune(r)
		}
	}
	endCommand()

	return commands
}
