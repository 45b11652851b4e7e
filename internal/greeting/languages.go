package greeting

import "sort"

// LanguageTable maps a language code to its greeting word.
// It is built once and never modified afterwards, so it can be shared
// between concurrent callers without locking.
type LanguageTable struct {
	words map[string]string
}

// DefaultLanguages returns the compiled-in language mapping.
func DefaultLanguages() map[string]string {
	return map[string]string{
		"en": "Hello",
		"es": "Hola",
		"fr": "Bonjour",
		"de": "Hallo",
		"it": "Ciao",
		"pt": "Olá",
		"ru": "Привет",
		"ja": "こんにちは",
		"zh": "你好",
	}
}

// NewLanguageTable copies words into a new immutable table.
func NewLanguageTable(words map[string]string) LanguageTable {
	copied := make(map[string]string, len(words))
	for code, word := range words {
		copied[code] = word
	}
	return LanguageTable{words: copied}
}

// Lookup returns the greeting word for code.
func (t LanguageTable) Lookup(code string) (string, bool) {
	word, ok := t.words[code]
	return word, ok
}

// Len returns the number of languages in the table.
func (t LanguageTable) Len() int {
	return len(t.words)
}

// Codes returns the language codes in sorted order.
func (t LanguageTable) Codes() []string {
	codes := make([]string, 0, len(t.words))
	for code := range t.words {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Map returns a copy of the table contents.
func (t LanguageTable) Map() map[string]string {
	out := make(map[string]string, len(t.words))
	for code, word := range t.words {
		out[code] = word
	}
	return out
}
