package validator

import (
	"github.com/hbollon/go-edlib"

	"github.com/mailscreen/mailscreen/internal/mail/domain"
)

// suggestThreshold is the minimum similarity for a "did you mean" match.
const suggestThreshold = 0.7

// wellKnownDomains are the providers typos are matched against.
var wellKnownDomains = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"aol.com",
	"icloud.com",
	"protonmail.com",
	"proton.me",
	"live.com",
	"msn.com",
	"mail.com",
	"gmx.com",
	"zoho.com",
	"yandex.com",
	"fastmail.com",
}

// SuggestDomain returns the closest well-known provider for a likely
// misspelled domain. No suggestion is made for empty input, for domains that
// already are well-known, or when nothing is similar enough.
func (v *Validator) SuggestDomain(dom string) (string, bool) {
	cn := domain.ToASCII(domain.Normalize(dom))
	if cn == "" {
		return "", false
	}
	for _, known := range wellKnownDomains {
		if cn == known {
			return "", false
		}
	}
	match, err := edlib.FuzzySearchThreshold(cn, wellKnownDomains, suggestThreshold, edlib.Levenshtein)
	if err != nil || match == "" {
		return "", false
	}
	return match, true
}
