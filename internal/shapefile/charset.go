package shapefile

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// textDecoder converts raw DBF text to UTF-8.
type textDecoder struct {
	enc encoding.Encoding // nil means UTF-8 with a Latin-1 fallback
}

// codePageAliases maps the bare numbers ArcGIS writes into .cpg files to
// names htmlindex understands.
var codePageAliases = map[string]string{
	"65001":     "utf-8",
	"88591":     "iso-8859-1",
	"8859_1":    "iso-8859-1",
	"88592":     "iso-8859-2",
	"8859_2":    "iso-8859-2",
	"88595":     "iso-8859-5",
	"8859_5":    "iso-8859-5",
	"88597":     "iso-8859-7",
	"8859_7":    "iso-8859-7",
	"885915":    "iso-8859-15",
	"8859_15":   "iso-8859-15",
	"ansi 1251": "windows-1251",
	"ansi 1252": "windows-1252",
	"866":       "ibm866",
	"932":       "shift_jis",
	"936":       "gbk",
	"950":       "big5",
}

// loadCodePage reads the .cpg sidecar next to the shapefile, if any.
func loadCodePage(base string) (textDecoder, error) {
	for _, ext := range []string{".cpg", ".CPG"} {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			continue
		}
		return decoderFor(string(data))
	}
	return textDecoder{}, nil
}

// decoderFor resolves a code page label such as "UTF-8", "1252" or "88591".
func decoderFor(label string) (textDecoder, error) {
	name := strings.ToLower(strings.TrimSpace(label))
	if name == "" {
		return textDecoder{}, nil
	}
	if alias, ok := codePageAliases[name]; ok {
		name = alias
	} else if len(name) == 4 && strings.HasPrefix(name, "125") {
		name = "windows-" + name
	}
	if name == "utf-8" || name == "utf8" {
		return textDecoder{}, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return textDecoder{}, eris.Wrapf(err, "shapefile: unsupported code page %q", label)
	}
	return textDecoder{enc: enc}, nil
}

// decode returns s as UTF-8.
func (d textDecoder) decode(s string) string {
	if d.enc == nil {
		if utf8.ValidString(s) {
			return s
		}
		out, err := charmap.ISO8859_1.NewDecoder().String(s)
		if err != nil {
			return s
		}
		return out
	}
	out, err := d.enc.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}
