package snippet

import (
	"fmt"
	"math/rand"
	"time"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}

// NewSnippetID returns a practically-unique snippet id built from the
// current time and a random suffix.
func NewSnippetID() string {
	return fmt.Sprintf("custom-copy-%d-%s", time.Now().UnixMilli(), randSuffix(7))
}

// NewRuleID returns a practically-unique rule id.
func NewRuleID() string {
	return fmt.Sprintf("rule-%d-%s", time.Now().UnixMilli(), randSuffix(7))
}

// UniqueSnippetID mints snippet ids until one does not collide with taken.
func UniqueSnippetID(taken map[string]bool) string {
	for {
		id := NewSnippetID()
		if !taken[id] {
			return id
		}
	}
}

// UniqueRuleID mints rule ids until one does not collide with taken.
func UniqueRuleID(taken map[string]bool) string {
	for {
		id := NewRuleID()
		if !taken[id] {
			return id
		}
	}
}
