package echidna

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrEmptyWhitelist is returned when a function filter would leave the
// fuzzer with nothing to call.
var ErrEmptyWhitelist = errors.New("whitelist filter with no functions would permit no calls")

// Options is an ordered set of Echidna configuration keys. Echidna reads
// a YAML mapping, so ordering carries no semantics, but a deterministic
// order keeps generated files diffable and testable.
type Options struct {
	keys   []string
	values map[string]interface{}
}

// NewOptions creates an empty option set
func NewOptions() *Options {
	return &Options{values: make(map[string]interface{})}
}

// OptionsFromMap builds an option set from a decoded JSON object,
// ordering keys alphabetically for determinism
func OptionsFromMap(m map[string]interface{}) *Options {
	opts := NewOptions()

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		opts.Set(key, m[key])
	}
	return opts
}

// Set adds or replaces an option, preserving first-insertion order
func (o *Options) Set(key string, value interface{}) *Options {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

// Len returns the number of options
func (o *Options) Len() int {
	return len(o.keys)
}

// Keys returns the option keys in serialization order
func (o *Options) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Marshal renders the options in Echidna's configuration format: one
// `key: value` line per option, booleans lowercased, lists as JSON
// arrays (valid YAML flow sequences), scalars verbatim.
func (o *Options) Marshal() ([]byte, error) {
	var b strings.Builder

	for _, key := range o.keys {
		formatted, err := formatValue(o.values[key])
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", key, err)
		}
		fmt.Fprintf(&b, "%s: %s\n", key, formatted)
	}

	return []byte(b.String()), nil
}

// WriteFile serializes the options and writes them to path, creating
// parent directories as needed
func (o *Options) WriteFile(path string) error {
	data, err := o.Marshal()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func formatValue(value interface{}) (string, error) {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		// JSON numbers decode as float64; keep integral values integral
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		// Lists and nested objects serialize as JSON, which YAML accepts
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// FilterOptions builds the configuration fragment restricting which
// functions Echidna may call. Signature syntax is not validated here;
// Echidna reports malformed entries itself.
func FilterOptions(filterList []string, blacklist bool) (*Options, error) {
	if !blacklist && len(filterList) == 0 {
		return nil, ErrEmptyWhitelist
	}

	opts := NewOptions()
	opts.Set("filterBlacklist", blacklist)
	opts.Set("filterFunctions", filterList)
	return opts, nil
}
