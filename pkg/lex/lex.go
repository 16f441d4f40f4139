// Package lex provides shared rune-scanning helpers for the query
// tokenizers: quote-aware token splitting and escape handling, factored
// out so the boolean query grammar and the SQL grammar don't each
// reimplement the same quoting rules.
package lex

import "strings"

// Token is one lexical unit: a literal run of text, or a single
// punctuation rune promoted to its own token (parens, commas, ...).
type Token struct {
	Text   string
	Quoted bool
}

// Scanner splits src into tokens, treating any rune in puncts as a
// standalone one-character token, runs of whitespace as separators, and
// '"'/'\'' delimited spans (with backslash escaping) as single quoted
// tokens whose surrounding quotes are stripped.
func Scanner(src string, puncts string) []Token {
	var toks []Token
	runes := []rune(src)
	i, n := 0, len(runes)

	for i < n {
		c := runes[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"' || c == '\'':
			text, next := scanQuoted(runes, i, c)
			toks = append(toks, Token{Text: text, Quoted: true})
			i = next
		case strings.ContainsRune(puncts, c):
			toks = append(toks, Token{Text: string(c)})
			i++
		default:
			start := i
			for i < n {
				c = runes[i]
				if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '"' || c == '\'' || strings.ContainsRune(puncts, c) {
					break
				}
				i++
			}
			toks = append(toks, Token{Text: string(runes[start:i])})
		}
	}
	return toks
}

// scanQuoted reads a quote-delimited span starting at runes[i] (which must
// be the opening quote rune), honouring backslash escapes, and returns
// the unescaped content plus the index just past the closing quote. An
// unterminated quote consumes to the end of input.
func scanQuoted(runes []rune, i int, quote rune) (string, int) {
	var b strings.Builder
	n := len(runes)
	i++ // skip opening quote
	for i < n {
		c := runes[i]
		if c == '\\' && i+1 < n {
			b.WriteRune(runes[i+1])
			i += 2
			continue
		}
		if c == quote {
			i++
			break
		}
		b.WriteRune(c)
		i++
	}
	return b.String(), i
}
