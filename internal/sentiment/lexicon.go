package sentiment

import (
	"fmt"
	"math"
	"strings"

	"github.com/pscheid92/postpulse/internal/domain"
)

const (
	// normalizationAlpha dampens the raw valence sum into [-1, 1].
	normalizationAlpha = 15.0

	// negationDampener flips and weakens valence when a negator precedes
	// the word ("not great" reads mildly negative, not strongly positive).
	negationDampener = -0.74

	// boosterIncrement is the valence adjustment contributed by an
	// intensifier directly before a sentiment-bearing word.
	boosterIncrement = 0.293

	// exclamationEmphasis amplifies the sum per trailing "!" (capped).
	exclamationEmphasis = 0.292
	maxExclamations     = 4

	// negationWindow is how many preceding tokens are checked for a negator.
	negationWindow = 3

	// Compound thresholds for the three-way label split.
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// valence holds word sentiment ratings on a [-4, 4] scale.
var valence = map[string]float64{
	"good": 1.9, "great": 3.1, "awesome": 3.1, "amazing": 2.8, "excellent": 2.7,
	"fantastic": 2.6, "wonderful": 2.7, "love": 3.2, "loved": 2.9, "loves": 2.7,
	"like": 1.5, "liked": 1.8, "best": 3.2, "better": 1.9, "happy": 2.7,
	"glad": 2.0, "thanks": 1.9, "thank": 1.9, "win": 2.8, "winning": 2.4,
	"won": 2.7, "perfect": 2.7, "nice": 1.8, "cool": 1.3, "fun": 2.3,
	"enjoy": 2.2, "enjoyed": 2.3, "impressive": 2.3, "beautiful": 2.9,
	"brilliant": 2.8, "solid": 1.5, "fast": 1.1, "easy": 1.9, "useful": 1.9,
	"helpful": 1.9, "recommend": 1.7, "recommended": 1.7, "works": 1.4,
	"success": 2.7, "successful": 2.6, "improved": 1.8, "improvement": 1.6,
	"stable": 1.3, "reliable": 2.0, "safe": 1.8, "free": 1.6, "smooth": 1.5,

	"bad": -2.5, "terrible": -2.1, "awful": -2.0, "horrible": -2.5,
	"worst": -3.1, "worse": -2.1, "hate": -2.7, "hated": -3.2, "hates": -1.9,
	"sucks": -1.5, "broken": -1.8, "breaks": -1.5, "bug": -1.6, "bugs": -1.8,
	"buggy": -1.9, "fail": -2.5, "failed": -2.3, "failing": -2.2,
	"failure": -2.5, "crash": -2.2, "crashes": -2.1, "crashed": -2.0,
	"slow": -1.2, "annoying": -1.8, "useless": -1.8, "disappointed": -2.1,
	"disappointing": -2.2, "angry": -2.3, "sad": -2.1, "wrong": -1.7,
	"error": -1.6, "errors": -1.7, "problem": -1.6, "problems": -1.7,
	"issue": -1.1, "issues": -1.3, "scam": -2.6, "garbage": -2.2,
	"trash": -2.0, "ugly": -2.3, "stupid": -2.4, "dumb": -2.3, "poor": -2.1,
	"unstable": -1.7, "unreliable": -2.0, "difficult": -1.5, "hard": -0.4,
	"expensive": -0.9, "lost": -1.3, "losing": -1.9, "lose": -1.8,
}

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "neither": {}, "nor": {}, "nothing": {},
	"nobody": {}, "none": {}, "cannot": {}, "cant": {}, "can't": {},
	"dont": {}, "don't": {}, "doesnt": {}, "doesn't": {}, "didnt": {},
	"didn't": {}, "isnt": {}, "isn't": {}, "wasnt": {}, "wasn't": {},
	"wont": {}, "won't": {}, "wouldnt": {}, "wouldn't": {}, "without": {},
}

var boosters = map[string]float64{
	"very": boosterIncrement, "really": boosterIncrement,
	"extremely": boosterIncrement, "incredibly": boosterIncrement,
	"absolutely": boosterIncrement, "totally": boosterIncrement,
	"so": boosterIncrement * 0.5, "super": boosterIncrement,
	"slightly": -boosterIncrement, "somewhat": -boosterIncrement * 0.5,
	"barely": -boosterIncrement, "hardly": -boosterIncrement,
	"kinda": -boosterIncrement * 0.5, "marginally": -boosterIncrement,
}

// Lexicon is the deterministic rule-based sentiment model. It implements
// domain.LexiconModel over an embedded valence dictionary: no I/O, so the
// same normalized text always yields the same compound score.
type Lexicon struct{}

func NewLexicon() *Lexicon {
	return &Lexicon{}
}

// Score rates normalized text and returns a compound score in [-1, 1] with
// a positive/neutral/negative label. Empty text is an error so callers never
// persist a score computed from nothing.
func (l *Lexicon) Score(text string) (domain.LexiconResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.LexiconResult{}, fmt.Errorf("cannot score empty text")
	}

	tokens := tokenize(text)

	var sum float64
	for i, token := range tokens {
		v, ok := valence[token]
		if !ok {
			continue
		}

		if boost, ok := boosterBefore(tokens, i); ok {
			if v > 0 {
				v += boost
			} else {
				v -= boost
			}
		}

		if negatedBefore(tokens, i) {
			v *= negationDampener
		}

		sum += v
	}

	if sum != 0 {
		emphasis := exclamationEmphasis * math.Min(float64(strings.Count(text, "!")), maxExclamations)
		if sum > 0 {
			sum += emphasis
		} else {
			sum -= emphasis
		}
	}

	compound := sum / math.Sqrt(sum*sum+normalizationAlpha)

	return domain.LexiconResult{
		Label:    labelFor(compound),
		Compound: compound,
	}, nil
}

func labelFor(compound float64) string {
	switch {
	case compound >= positiveThreshold:
		return domain.LabelPositive
	case compound <= negativeThreshold:
		return domain.LabelNegative
	default:
		return domain.LabelNeutral
	}
}

// tokenize splits on whitespace and trims surrounding punctuation, keeping
// in-word apostrophes so contractions match the negator set.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		token := strings.TrimFunc(f, func(r rune) bool {
			return !isWordRune(r)
		})
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '\'' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func boosterBefore(tokens []string, i int) (float64, bool) {
	if i == 0 {
		return 0, false
	}
	boost, ok := boosters[tokens[i-1]]
	return boost, ok
}

func negatedBefore(tokens []string, i int) bool {
	start := i - negationWindow
	if start < 0 {
		start = 0
	}
	for _, token := range tokens[start:i] {
		if _, ok := negators[token]; ok {
			return true
		}
	}
	return false
}
