package orchestrator

import "strings"

var (
	confirmTokens = set("yes", "y", "yeah", "yep", "sure", "ok", "okay", "confirm", "correct", "right", "submit",
		"sim", "s", "isso", "confirmo", "correto", "certo", "enviar", "pode")
	declineTokens = set("no", "n", "nope", "nah", "wrong", "incorrect",
		"não", "nao", "errado", "negativo")
	editTokens = set("edit", "change", "modify", "fix", "editar", "alterar", "corrigir", "mudar")
)

type reply int

const (
	replyOther reply = iota
	replyConfirm
	replyDecline
	replyEdit
)

// classifyReply reads a short yes/no/edit answer. Any edit word makes it an
// edit, so "yes, but change the email" does not submit. Otherwise the first
// word decides, so "yes please" and "no, the other one" are understood.
func classifyReply(message string) reply {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == '\n' || r == '\t'
	})
	if len(words) == 0 {
		return replyOther
	}
	for _, w := range words {
		if editTokens[w] {
			return replyEdit
		}
	}
	switch first := words[0]; {
	case confirmTokens[first]:
		return replyConfirm
	case declineTokens[first]:
		return replyDecline
	}
	return replyOther
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
