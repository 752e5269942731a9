package utils

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/yukikurage/taskboard-api/internal/constants"
)

// inviteAlphabet omits 0/O and 1/I/L so codes survive being read aloud
const inviteAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// GenerateInviteCode returns a random code such as "K7QM-2XRD-9HPA"
func GenerateInviteCode() (string, error) {
	n := constants.InviteCodeGroups * constants.InviteCodeGroupSize
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	var b strings.Builder
	for i, r := range raw {
		if i > 0 && i%constants.InviteCodeGroupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(inviteAlphabet[int(r)%len(inviteAlphabet)])
	}
	return b.String(), nil
}

// NormalizeInviteCode uppercases a user-typed code and restores its dashes
func NormalizeInviteCode(code string) string {
	var compact strings.Builder
	for _, r := range strings.ToUpper(code) {
		if r == '-' || r == ' ' {
			continue
		}
		compact.WriteRune(r)
	}

	s := compact.String()
	if len(s) != constants.InviteCodeGroups*constants.InviteCodeGroupSize {
		return s
	}
	groups := make([]string, constants.InviteCodeGroups)
	for i := range groups {
		groups[i] = s[i*constants.InviteCodeGroupSize : (i+1)*constants.InviteCodeGroupSize]
	}
	return strings.Join(groups, "-")
}
