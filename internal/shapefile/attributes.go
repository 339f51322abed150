package shapefile

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/sells-group/geoconvert/internal/feature"
)

// schema builds the collection fields from the DBF header.
func schema(fields []shp.Field) []feature.Field {
	out := make([]feature.Field, len(fields))
	for i, f := range fields {
		out[i] = feature.Field{
			Name:      strings.TrimRight(f.String(), "\x00"),
			Type:      f.Fieldtype,
			Size:      f.Size,
			Precision: f.Precision,
		}
	}
	return out
}

// parseValue converts a raw DBF cell into a typed value. Blank cells are nil.
func parseValue(f feature.Field, raw string) any {
	val := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if val == "" {
		return nil
	}

	switch f.Type {
	case 'N':
		if f.Precision == 0 {
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				return n
			}
		}
		return parseFloat(val)
	case 'F':
		return parseFloat(val)
	case 'L':
		switch val {
		case "T", "t", "Y", "y":
			return true
		case "F", "f", "N", "n":
			return false
		default:
			return nil
		}
	case 'D':
		if len(val) == 8 && isDigits(val) {
			return val[0:4] + "-" + val[4:6] + "-" + val[6:8]
		}
		return nil
	default:
		return val
	}
}

// parseFloat returns nil for unparsable numbers such as the "*****" overflow marker.
func parseFloat(val string) any {
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil
	}
	return v
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
