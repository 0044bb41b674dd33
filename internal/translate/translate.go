// Package translate maps classifier labels to display script characters.
package translate

import "strings"

// Table maps symbol labels to display characters. The zero value is an
// empty table that returns every label unchanged.
type Table struct {
	forward map[string]string
	reverse map[string]string
}

// New builds a Table from label to symbol pairs.
func New(pairs map[string]string) *Table {
	t := &Table{
		forward: make(map[string]string, len(pairs)),
		reverse: make(map[string]string, len(pairs)),
	}
	for label, symbol := range pairs {
		t.forward[label] = symbol
		if prev, ok := t.reverse[symbol]; !ok || label < prev {
			t.reverse[symbol] = label
		}
	}
	return t
}

// Arabic returns the table for Egyptian plate labels.
func Arabic() *Table {
	return New(map[string]string{
		"1": "1", "2": "2", "3": "3", "4": "4", "5": "5",
		"6": "6", "7": "7", "8": "8", "9": "9",
		"Mem":  "م",
		"aen":  "ع",
		"alf":  "ا",
		"ba'":  "ب",
		"dal":  "د",
		"fa'":  "ف",
		"gem":  "ج",
		"ha'":  "هـ",
		"lam":  "ل",
		"noon": "ن",
		"qaf":  "ق",
		"ra'":  "ر",
		"sad":  "ص",
		"seen": "س",
		"ta'":  "ط",
		"waw":  "و",
		"ya'":  "ي",
	})
}

// Translate returns the symbol for label, or label itself when unmapped.
func (t *Table) Translate(label string) string {
	if s, ok := t.forward[label]; ok {
		return s
	}
	return label
}

// Reverse returns the label for symbol, or symbol itself when unmapped.
func (t *Table) Reverse(symbol string) string {
	if l, ok := t.reverse[symbol]; ok {
		return l
	}
	return symbol
}

// ReverseAll maps symbols back to labels in order.
func (t *Table) ReverseAll(symbols []string) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = t.Reverse(s)
	}
	return out
}

// TranslateAll translates labels in order.
func (t *Table) TranslateAll(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = t.Translate(l)
	}
	return out
}

// Join translates labels and joins the symbols with single spaces.
func (t *Table) Join(labels []string) string {
	return strings.Join(t.TranslateAll(labels), " ")
}
