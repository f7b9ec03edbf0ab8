package search

import (
	"strings"
	"unicode"
)

// TokenType represents the type of a query token
type TokenType int

const (
	// TokenTypeTerm represents a regular search term
	TokenTypeTerm TokenType = iota
	// TokenTypePhrase represents a quoted phrase
	TokenTypePhrase
	// TokenTypeQualifier represents a key:value pair
	TokenTypeQualifier
)

// Token represents a parsed token from the query
type Token struct {
	Value string
	Type  TokenType
}

// ParsedQuery is a query string reduced to free text plus filters.
// Qualifiers recognized: level:h1 and document:<id>.
type ParsedQuery struct {
	Text       string
	Level      string
	DocumentID string
}

// QueryParser parses Google-style queries with quoted phrases and
// key:value qualifiers. Stateless, reusable across queries.
type QueryParser struct{}

// NewQueryParser creates a new query parser instance
func NewQueryParser() *QueryParser {
	return &QueryParser{}
}

// Parse tokenizes the query and folds recognized qualifiers into filters.
// Phrase tokens keep their words as free text; the scoring model has no
// phrase matching so the quotes only guard against qualifier parsing.
func (p *QueryParser) Parse(query string) ParsedQuery {
	var parsed ParsedQuery
	var terms []string

	for _, token := range p.Tokenize(query) {
		if token.Type != TokenTypeQualifier {
			terms = append(terms, token.Value)
			continue
		}

		key, value := p.SplitQualifier(token.Value)
		switch strings.ToLower(key) {
		case "level":
			parsed.Level = strings.ToLower(value)
		case "document", "doc":
			parsed.DocumentID = value
		default:
			// Unknown qualifier keys search as plain text
			terms = append(terms, token.Value)
		}
	}

	parsed.Text = strings.Join(terms, " ")
	return parsed
}

// Tokenize breaks a query string into tokens, respecting quotes.
// Uses rune-safe iteration to properly handle Unicode characters.
// Handles:
// - Quoted phrases: "cat on mat" → single PHRASE token
// - Qualifiers: level:h1 → QUALIFIER token
// - Regular terms: cat dog → separate TERM tokens
func (p *QueryParser) Tokenize(query string) []Token {
	var tokens []Token
	var current strings.Builder
	var inQuote bool
	var escaped bool

	query = strings.TrimSpace(query)

	for _, ch := range query {
		if escaped {
			current.WriteRune(ch)
			escaped = false
			continue
		}

		if ch == '\\' && inQuote {
			escaped = true
			continue
		}

		if ch == '"' {
			if inQuote {
				if current.Len() > 0 {
					tokens = append(tokens, Token{Value: current.String(), Type: TokenTypePhrase})
					current.Reset()
				}
				inQuote = false
			} else {
				if current.Len() > 0 {
					p.flushTerm(&tokens, &current)
				}
				inQuote = true
			}
			continue
		}

		if inQuote {
			current.WriteRune(ch)
			continue
		}

		if unicode.IsSpace(ch) {
			if current.Len() > 0 {
				p.flushTerm(&tokens, &current)
			}
			continue
		}

		current.WriteRune(ch)
	}

	if current.Len() > 0 {
		if inQuote {
			// Unclosed quote - treat as phrase anyway
			tokens = append(tokens, Token{Value: current.String(), Type: TokenTypePhrase})
		} else {
			p.flushTerm(&tokens, &current)
		}
	}

	return tokens
}

// flushTerm adds the current term to tokens and resets the builder
func (p *QueryParser) flushTerm(tokens *[]Token, current *strings.Builder) {
	value := current.String()
	tokenType := TokenTypeTerm
	if p.IsQualifier(value) {
		tokenType = TokenTypeQualifier
	}

	*tokens = append(*tokens, Token{Value: value, Type: tokenType})
	current.Reset()
}

// IsQualifier checks if a token matches the key:value pattern
func (p *QueryParser) IsQualifier(token string) bool {
	colonIdx := strings.Index(token, ":")
	if colonIdx == -1 || colonIdx == 0 || colonIdx == len(token)-1 {
		return false
	}

	if strings.Count(token, ":") > 1 {
		return false
	}

	key := token[:colonIdx]
	for _, ch := range key {
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' {
			return false
		}
	}

	return true
}

// SplitQualifier splits a qualifier token into (key, value)
func (p *QueryParser) SplitQualifier(qualifier string) (string, string) {
	parts := strings.SplitN(qualifier, ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}
