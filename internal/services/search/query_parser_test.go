package search

import (
	"reflect"
	"testing"
)

func TestQueryParser_Tokenize(t *testing.T) {
	parser := NewQueryParser()

	tests := []struct {
		name     string
		query    string
		expected []Token
	}{
		{
			name:  "Simple terms",
			query: "gradient descent",
			expected: []Token{
				{Value: "gradient", Type: TokenTypeTerm},
				{Value: "descent", Type: TokenTypeTerm},
			},
		},
		{
			name:  "Quoted phrase",
			query: `"incident response"`,
			expected: []Token{
				{Value: "incident response", Type: TokenTypePhrase},
			},
		},
		{
			name:  "Qualifier",
			query: "level:h1",
			expected: []Token{
				{Value: "level:h1", Type: TokenTypeQualifier},
			},
		},
		{
			name:  "Qualifier with search term",
			query: "level:h2 validation",
			expected: []Token{
				{Value: "level:h2", Type: TokenTypeQualifier},
				{Value: "validation", Type: TokenTypeTerm},
			},
		},
		{
			name:  "Unclosed quote treated as phrase",
			query: `"machine learning`,
			expected: []Token{
				{Value: "machine learning", Type: TokenTypePhrase},
			},
		},
		{
			name:  "Escaped quote inside phrase",
			query: `"say \"hi\""`,
			expected: []Token{
				{Value: `say "hi"`, Type: TokenTypePhrase},
			},
		},
		{
			name:  "Colon without key is a term",
			query: ":value",
			expected: []Token{
				{Value: ":value", Type: TokenTypeTerm},
			},
		},
		{
			name:  "Unicode terms",
			query: "машинное обучение",
			expected: []Token{
				{Value: "машинное", Type: TokenTypeTerm},
				{Value: "обучение", Type: TokenTypeTerm},
			},
		},
		{
			name:     "Empty query",
			query:    "   ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parser.Tokenize(tt.query)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokenize(%q) = %+v, want %+v", tt.query, got, tt.expected)
			}
		})
	}
}

func TestQueryParser_Parse(t *testing.T) {
	parser := NewQueryParser()

	tests := []struct {
		name     string
		query    string
		expected ParsedQuery
	}{
		{
			name:     "Plain text",
			query:    "gradient descent",
			expected: ParsedQuery{Text: "gradient descent"},
		},
		{
			name:     "Level qualifier",
			query:    "level:H1 optimization",
			expected: ParsedQuery{Text: "optimization", Level: "h1"},
		},
		{
			name:     "Document qualifier",
			query:    "document:doc_42 triage",
			expected: ParsedQuery{Text: "triage", DocumentID: "doc_42"},
		},
		{
			name:     "Doc shorthand",
			query:    "doc:doc_42",
			expected: ParsedQuery{DocumentID: "doc_42"},
		},
		{
			name:     "Unknown qualifier searched as text",
			query:    "author:smith triage",
			expected: ParsedQuery{Text: "author:smith triage"},
		},
		{
			name:     "Phrase words flattened into text",
			query:    `level:h2 "cross validation"`,
			expected: ParsedQuery{Text: "cross validation", Level: "h2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parser.Parse(tt.query)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.query, got, tt.expected)
			}
		})
	}
}

func TestQueryParser_IsQualifier(t *testing.T) {
	parser := NewQueryParser()

	valid := []string{"level:h1", "document:doc_42", "a:b"}
	for _, q := range valid {
		if !parser.IsQualifier(q) {
			t.Errorf("IsQualifier(%q) = false, want true", q)
		}
	}

	invalid := []string{"level:", ":h1", "a:b:c", "no-dash:x", "plain"}
	for _, q := range invalid {
		if parser.IsQualifier(q) {
			t.Errorf("IsQualifier(%q) = true, want false", q)
		}
	}
}
