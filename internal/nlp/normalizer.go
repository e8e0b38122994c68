package nlp

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type phraseRule struct {
	tokens []string
	to     string
}

// Normalizer rewrites Hindi, romanized Hindi and chat shorthand into standard
// English agricultural vocabulary. Tokens without a rule pass through untouched.
type Normalizer struct {
	phrases []phraseRule
	tokens  map[string]string
}

// NewNormalizer builds a Normalizer from ordered rules. Values are resolved
// through the dictionary up front, so normalizing twice changes nothing.
func NewNormalizer(entries []DictEntry) (*Normalizer, error) {
	raw := make(map[string]string)
	var phraseKeys [][]string
	var phraseValues []string
	for _, e := range entries {
		key := strings.Fields(strings.ToLower(e.From))
		to := strings.Join(strings.Fields(e.To), " ")
		if len(key) == 0 || to == "" {
			return nil, fmt.Errorf("empty normalization rule %q -> %q", e.From, e.To)
		}
		if len(key) > 1 {
			phraseKeys = append(phraseKeys, key)
			phraseValues = append(phraseValues, to)
			continue
		}
		if _, dup := raw[key[0]]; !dup {
			raw[key[0]] = to
		}
	}

	n := &Normalizer{tokens: make(map[string]string, len(raw))}
	for k := range raw {
		resolved, err := resolveTokens(raw[k], raw, len(raw)+1)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", k, err)
		}
		n.tokens[k] = resolved
	}
	for i, key := range phraseKeys {
		resolved, err := resolveTokens(phraseValues[i], raw, len(raw)+1)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", strings.Join(key, " "), err)
		}
		n.phrases = append(n.phrases, phraseRule{tokens: key, to: resolved})
	}

	// A value that reintroduces a phrase word could form a new phrase on a second pass.
	phraseWords := make(map[string]struct{})
	for _, p := range n.phrases {
		for _, t := range p.tokens {
			phraseWords[t] = struct{}{}
		}
	}
	check := func(from, value string) error {
		for _, t := range strings.Fields(strings.ToLower(value)) {
			if _, ok := phraseWords[t]; ok {
				return fmt.Errorf("rule %q produces phrase word %q", from, t)
			}
		}
		return nil
	}
	for k, val := range n.tokens {
		if err := check(k, val); err != nil {
			return nil, err
		}
	}
	for _, p := range n.phrases {
		if err := check(strings.Join(p.tokens, " "), p.to); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// DefaultNormalizer uses the built-in agricultural dictionary.
func DefaultNormalizer() *Normalizer {
	n, err := NewNormalizer(defaultDictionary)
	if err != nil {
		panic(fmt.Sprintf("built-in normalization dictionary is invalid: %v", err))
	}
	return n
}

// resolveTokens maps each token of value through dict until nothing changes.
func resolveTokens(value string, dict map[string]string, depth int) (string, error) {
	if depth <= 0 {
		return "", fmt.Errorf("cyclic rule involving %q", value)
	}
	changed := false
	out := make([]string, 0, 4)
	for _, t := range strings.Fields(value) {
		if next, ok := dict[strings.ToLower(t)]; ok && next != strings.ToLower(t) {
			changed = true
			out = append(out, next)
			continue
		}
		out = append(out, t)
	}
	joined := strings.Join(out, " ")
	if !changed {
		return joined, nil
	}
	return resolveTokens(joined, dict, depth-1)
}

// Normalize applies phrase rules first, then single-token rules, and collapses whitespace.
func (n *Normalizer) Normalize(text string) string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); {
		if repl, width, ok := n.matchPhrase(fields[i:]); ok {
			out = append(out, repl)
			i += width
			continue
		}
		out = append(out, n.mapToken(fields[i]))
		i++
	}
	return strings.Join(out, " ")
}

func (n *Normalizer) matchPhrase(fields []string) (string, int, bool) {
	for _, p := range n.phrases {
		if len(fields) < len(p.tokens) {
			continue
		}
		var lead, trail string
		matched := true
		for j, want := range p.tokens {
			l, core, t := splitToken(fields[j])
			last := j == len(p.tokens)-1
			if strings.ToLower(core) != want || (j > 0 && l != "") || (!last && t != "") {
				matched = false
				break
			}
			if j == 0 {
				lead = l
			}
			if last {
				trail = t
			}
		}
		if matched {
			return lead + p.to + trail, len(p.tokens), true
		}
	}
	return "", 0, false
}

func (n *Normalizer) mapToken(tok string) string {
	lead, core, trail := splitToken(tok)
	if core == "" {
		return tok
	}
	if to, ok := n.tokens[strings.ToLower(core)]; ok {
		return lead + to + trail
	}
	return tok
}

// splitToken separates leading and trailing punctuation from the word itself.
func splitToken(tok string) (lead, core, trail string) {
	start := strings.IndexFunc(tok, func(r rune) bool { return !isEdgePunct(r) })
	if start < 0 {
		return tok, "", ""
	}
	end := strings.LastIndexFunc(tok, func(r rune) bool { return !isEdgePunct(r) })
	_, size := utf8.DecodeRuneInString(tok[end:])
	return tok[:start], tok[start : end+size], tok[end+size:]
}

func isEdgePunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
