package secret

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

// ErrMissingEnv is matched by errors from ExpandEnvStrict.
var ErrMissingEnv = errors.New("secret: missing required environment variables")

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// MissingEnvError lists the variables ExpandEnvStrict could not resolve.
type MissingEnvError struct {
	Keys []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingEnv.Error(), strings.Join(e.Keys, ", "))
}

func (e *MissingEnvError) Unwrap() error { return ErrMissingEnv }

// ExpandEnvStrict expands environment variables in s.
//
// Semantics:
//   - `$VAR` and `${VAR}` are expanded from the environment.
//   - `${VAR}` with VAR unset is an error listing every missing name.
//   - `$$` emits a literal `$`.
func ExpandEnvStrict(s string) (string, error) {
	var missing []string
	for _, match := range envVarPattern.FindAllStringSubmatch(strings.ReplaceAll(s, "$$", ""), -1) {
		key := match[1]
		if _, ok := os.LookupEnv(key); !ok && !slices.Contains(missing, key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", &MissingEnvError{Keys: missing}
	}

	return os.Expand(s, func(name string) string {
		if name == "$" {
			return "$"
		}
		return os.Getenv(name)
	}), nil
}

// ExpandAll expands each non-empty value in place.
// Values are left untouched if any expansion fails.
func ExpandAll(values ...*string) error {
	expanded := make([]string, len(values))
	for i, v := range values {
		if v == nil || *v == "" {
			continue
		}
		out, err := ExpandEnvStrict(*v)
		if err != nil {
			return err
		}
		expanded[i] = out
	}
	for i, v := range values {
		if v != nil && *v != "" {
			*v = expanded[i]
		}
	}
	return nil
}
