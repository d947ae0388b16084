package schema

import "strings"

// strftime verb → Go reference layout fragment. Unknown verbs pass
// through literally so a format like "%Y-%m-%dT%H:%M:%S%z" resolves in
// one left-to-right scan.
var strftimeVerbs = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'f': "000000",
	'z': "-0700",
	'Z': "MST",
	'j': "002",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'p': "PM",
	'%': "%",
}

// Layout translates a strftime-style format ("%Y-%m-%d") into a Go
// time layout ("2006-01-02"). Formats already free of % verbs are
// returned unchanged, so Go layouts can be supplied directly.
func Layout(format string) string {
	if !strings.ContainsRune(format, '%') {
		return format
	}

	var b strings.Builder
	b.Grow(len(format) + 8)
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i == len(format)-1 {
			b.WriteByte(format[i])
			continue
		}
		i++
		if frag, ok := strftimeVerbs[format[i]]; ok {
			b.WriteString(frag)
		} else {
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
