package intent

import (
	"regexp"
	"strings"

	"github.com/elliotchance/pie/v2"
)

type termSet struct {
	patterns []*regexp.Regexp
}

// newTermSet compiles terms into whole-word patterns so that "ok" does not
// match "book" and "or" does not match "for".
func newTermSet(terms ...string) termSet {
	return termSet{
		patterns: pie.Map(terms, func(term string) *regexp.Regexp {
			return regexp.MustCompile(`(?:^|[^a-z0-9])` + regexp.QuoteMeta(term) + `(?:$|[^a-z0-9])`)
		}),
	}
}

func (t termSet) in(text string) bool {
	return pie.Any(t.patterns, func(p *regexp.Regexp) bool {
		return p.MatchString(text)
	})
}

var (
	affirmations = newTermSet(
		"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "do it", "sounds good", "that works",
		"go ahead", "absolutely", "please do", "agreed", "deal", "let's do it", "lets do it",
	)
	negatedAffirmations = newTermSet("not sure", "not ok", "not okay", "no deal")

	multiOptionIndicators = newTermSet(
		"which option", "prefer", "choose between", "either", "or", "which one", "option a", "option b",
	)

	bridgeTerms = newTermSet(
		"bridge", "keeper", "$5", "5 dollar", "five dollar", "option b", "cheaper plan", "reduced plan",
	)
	extensionTerms = newTermSet(
		"extension", "extend", "premium", "14-day", "14 day", "fourteen day", "option a",
	)
	dollarAmount = regexp.MustCompile(`\$\s?\d+`)

	hardshipTerms = newTermSet(
		"no money", "don't have", "dont have", "can't afford", "cant afford", "cannot afford",
		"tight", "broke", "options", "lost my job", "struggling", "too expensive",
	)
	timeTerms = newTermSet(
		"friday", "next week", "few days", "pay later", "more time", "a week", "payday",
		"end of the month", "next month",
	)
	cancelTerms = newTermSet("cancel", "stop", "unsubscribe", "i'm done", "im done")
	infoTerms   = newTermSet("what", "how", "details", "tell me more", "included", "explain")

	updatePaymentTerms = newTermSet(
		"update my card", "new card", "other card", "different card", "update payment",
		"update my payment", "card details", "new payment method",
	)
	disputeTerms = newTermSet(
		"already paid", "wrong", "why am i charged", "mistake", "dispute", "double charged", "not authorized",
	)
	declineTerms = newTermSet(
		"no thanks", "no thank you", "not interested", "don't want", "dont want", "decline",
	)
)

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("’", "'", "‘", "'").Replace(s)

	return strings.Join(strings.Fields(s), " ")
}

func isAffirmation(msg string) bool {
	return affirmations.in(msg) && !negatedAffirmations.in(msg)
}

// namesOption reports whether the reply points at a concrete offer.
func namesOption(msg string) bool {
	return bridgeTerms.in(msg) || extensionTerms.in(msg) || dollarAmount.MatchString(msg)
}

// IsAmbiguous reports whether a bare "yes" answers a question that offered
// several options.
func IsAmbiguous(message, lastSystemMessage string) bool {
	msg := normalize(message)

	return isAffirmation(msg) &&
		!namesOption(msg) &&
		multiOptionIndicators.in(normalize(lastSystemMessage))
}
