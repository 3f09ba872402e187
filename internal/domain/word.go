package domain

import "strings"

// WordPair is a pinyin/English vocabulary pair.
// Pairs are identified only by their position in the word list.
type WordPair struct {
	Pinyin  string `json:"pinyin"`
	English string `json:"english"`
}

// NewWordPair trims both sides and rejects pairs with an empty side.
func NewWordPair(pinyin, english string) (WordPair, error) {
	p := WordPair{
		Pinyin:  strings.TrimSpace(pinyin),
		English: strings.TrimSpace(english),
	}
	if p.Pinyin == "" || p.English == "" {
		return WordPair{}, ErrEmptyPair
	}
	return p, nil
}
