package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hlop3z/tabula/internal/alerr"
)

// CanonicalValue renders a scalar default as the plain string used for
// comparison and rendering. A nil value reports ok=false.
func CanonicalValue(v any) (s string, ok bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.FormatInt(int64(x), 10), true
	case int8:
		return strconv.FormatInt(int64(x), 10), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

// ParseBool accepts the boolean spellings used by SQL defaults.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, true
	case "0", "f", "false", "n", "no", "off":
		return false, true
	}
	return false, false
}

// CheckDefault verifies that a declared default is compatible with the SQL type.
func CheckDefault(sqlType string, v any) *alerr.Error {
	if v == nil {
		return nil
	}
	switch v.(type) {
	case map[string]any, []any:
		return alerr.New(alerr.ErrTypeMismatchVal, "default must be a scalar value").
			With("type", sqlType)
	}

	s, _ := CanonicalValue(v)
	fail := func() *alerr.Error {
		return alerr.Newf(alerr.ErrTypeMismatchVal, "default %q is not compatible with %s", s, sqlType)
	}

	switch FamilyOf(sqlType) {
	case FamilyInteger:
		if _, ok := v.(bool); ok {
			return fail()
		}
		if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if ferr != nil || f != float64(int64(f)) {
				return fail()
			}
		}
	case FamilyNumeric:
		if _, ok := v.(bool); ok {
			return fail()
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return fail()
		}
	case FamilyBoolean:
		if _, ok := ParseBool(s); !ok {
			return fail()
		}
	}
	return nil
}
