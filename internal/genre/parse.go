package genre

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknown = errors.New("unknown genre")

var aliases = map[string]Genre{
	"wujue": WuJue, "五绝": WuJue, "5jue": WuJue,
	"qijue": QiJue, "七绝": QiJue, "7jue": QiJue,
	"wulv": WuLv, "五律": WuLv, "5lv": WuLv, "wülv": WuLv, "wulü": WuLv,
	"qilv": QiLv, "七律": QiLv, "7lv": QiLv, "qülv": QiLv, "qilü": QiLv,
}

// Lookup returns the genre whose Key matches name exactly (case-sensitive).
func Lookup(name string) (Genre, bool) {
	for _, g := range All() {
		if g.Key == name {
			return g, true
		}
	}
	return Genre{}, false
}

// Parse resolves a user supplied selector: an enum name (any case), a display
// name, or one of the accepted abbreviations, Chinese short names and pinyin
// spellings.
func Parse(s string) (Genre, error) {
	raw := strings.TrimSpace(s)
	if g, ok := Lookup(strings.ToUpper(raw)); ok {
		return g, nil
	}
	if g, ok := aliases[strings.ToLower(raw)]; ok {
		return g, nil
	}
	for _, g := range All() {
		if g.Name == raw {
			return g, nil
		}
	}
	return Genre{}, fmt.Errorf("%w: %q (try WUJUE/五绝, QIJUE/七绝, WULV/五律, QILV/七律)", ErrUnknown, raw)
}

// Aliases returns the accepted aliases for g, sorted.
func Aliases(g Genre) []string {
	var out []string
	for a, v := range aliases {
		if v == g {
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}
