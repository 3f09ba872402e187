package voice

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var umlautReplacer = strings.NewReplacer("ü", "u", "Ü", "U")

// Transliterate produces an approximate Latin reading for non-Chinese voices:
// tone marks are stripped, ü becomes u and Han characters become tone-less
// pinyin. The result is not phonetically exact.
func Transliterate(text string) string {
	text = umlautReplacer.Replace(text)
	text = hanToPinyin(text)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

func hanToPinyin(text string) string {
	hasHan := false
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			hasHan = true
			break
		}
	}
	if !hasHan {
		return text
	}

	args := pinyin.NewArgs()
	var b strings.Builder
	var run []rune
	flush := func() {
		if len(run) == 0 {
			return
		}
		b.WriteByte(' ')
		b.WriteString(strings.Join(pinyin.LazyPinyin(string(run), args), " "))
		b.WriteByte(' ')
		run = run[:0]
	}

	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			run = append(run, r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()

	return strings.Join(strings.Fields(b.String()), " ")
}
