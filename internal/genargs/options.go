package genargs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	invopopSchema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultCompileCommandsPattern is the label pattern exported when
// export_compile_commands is enabled without an explicit pattern.
const DefaultCompileCommandsPattern = "//*"

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports an option set that cannot be rendered.
type ConfigurationError struct {
	Keys []string // offending keys, sorted; empty when the problem is not key-specific
	Err  error
}

func (e *ConfigurationError) Error() string {
	if len(e.Keys) > 0 {
		return fmt.Sprintf("configuration error: unrecognized option(s) %s", strings.Join(e.Keys, ", "))
	}
	if e.Err != nil {
		return "configuration error: " + e.Err.Error()
	}
	return ErrConfiguration.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// OptionSet is the untyped option map read from config files and flags.
type OptionSet map[string]any

// Options lists every recognized option. Build renders them in field order.
type Options struct {
	Root                         string `json:"root,omitempty" jsonschema:"minLength=1"`
	Dotfile                      string `json:"dotfile,omitempty" jsonschema:"minLength=1"`
	Args                         string `json:"args,omitempty"`
	IDE                          string `json:"ide,omitempty" jsonschema:"enum=json,enum=vs,enum=vs2019,enum=vs2022,enum=xcode,enum=qtcreator,enum=eclipse"`
	ExportCompileCommands        bool   `json:"export_compile_commands,omitempty"`
	ExportCompileCommandsPattern string `json:"export_compile_commands_pattern,omitempty" jsonschema:"minLength=1"`
	Check                        bool   `json:"check,omitempty"`
}

// DefaultOptions returns the option set gnconf uses when none is configured.
func DefaultOptions() OptionSet {
	return OptionSet{"export_compile_commands": true}
}

// marshalFunc renders the reflected schema; tests may replace it.
var marshalFunc = func(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func reflectOptions() *invopopSchema.Schema {
	reflector := invopopSchema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&Options{})
}

// Schema returns the JSON schema for Options as indented JSON.
func Schema() (string, error) {
	data, err := marshalFunc(reflectOptions())
	if err != nil {
		return "", fmt.Errorf("options schema: %w", err)
	}
	return string(data), nil
}

// Keys returns the recognized option names in render order.
func Keys() []string {
	s := reflectOptions()
	keys := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Decode validates set and converts it into Options.
func Decode(set OptionSet) (Options, error) {
	var opts Options
	if len(set) == 0 {
		return opts, nil
	}

	s := reflectOptions()
	var unknown []string
	for k := range set {
		if _, ok := s.Properties.Get(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return opts, &ConfigurationError{Keys: unknown}
	}

	raw, err := json.Marshal(map[string]any(set))
	if err != nil {
		return opts, &ConfigurationError{Err: fmt.Errorf("options are not representable: %w", err)}
	}
	schemaStr, err := Schema()
	if err != nil {
		return opts, &ConfigurationError{Err: err}
	}
	if err := validateAgainstSchema(raw, schemaStr); err != nil {
		return opts, &ConfigurationError{Err: err}
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, &ConfigurationError{Err: fmt.Errorf("decode options: %w", err)}
	}
	if opts.ExportCompileCommandsPattern != "" && !opts.ExportCompileCommands {
		return opts, &ConfigurationError{Err: errors.New("export_compile_commands_pattern requires export_compile_commands: true")}
	}
	return opts, nil
}

func validateAgainstSchema(input json.RawMessage, schemaStr string) error {
	schema, err := jsonschema.CompileString("options.json", schemaStr)
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	var data any
	if err := json.Unmarshal(input, &data); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}
	if err := schema.Validate(data); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ParseOptionFlags converts repeated key=value flag values into an OptionSet.
// "true" and "false" become booleans; everything else stays a string.
func ParseOptionFlags(pairs []string) (OptionSet, error) {
	set := OptionSet{}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &ConfigurationError{Err: fmt.Errorf("option %q: want key=value", p)}
		}
		switch strings.ToLower(value) {
		case "true":
			set[key] = true
		case "false":
			set[key] = false
		default:
			set[key] = value
		}
	}
	return set, nil
}

// Merge returns a new set with overrides applied on top of base.
func Merge(base, overrides OptionSet) OptionSet {
	out := make(OptionSet, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
