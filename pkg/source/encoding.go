package source

import (
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/parquetry/parquetry/pkg/errors"
)

// decodeReader wraps r so that its bytes come out as UTF-8. The second
// return reports whether the caller must still validate UTF-8 itself,
// which is the case for encodings passed through untransformed.
func decodeReader(r io.Reader, name string) (io.Reader, bool, error) {
	enc, passthrough, err := lookupEncoding(name)
	if err != nil {
		return nil, false, err
	}
	if passthrough {
		return r, true, nil
	}
	return enc.NewDecoder().Reader(r), false, nil
}

func lookupEncoding(name string) (encoding.Encoding, bool, error) {
	switch normalizeEncoding(name) {
	case "", "utf8", "ascii":
		return nil, true, nil
	case "latin1", "iso88591":
		return charmap.ISO8859_1, false, nil
	case "windows1252", "cp1252":
		return charmap.Windows1252, false, nil
	case "utf16", "utf16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), false, nil
	case "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), false, nil
	default:
		return nil, false, errors.Newf(errors.ErrorTypeConfig, "unsupported encoding: %s", name)
	}
}

func normalizeEncoding(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "_", "")
	return name
}
