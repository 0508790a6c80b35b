package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/takumiyoshikawa/avro-to-json/internal/converter"
)

type Overrides struct {
	FlattenNullableUnions     *bool `yaml:"flatten_nullable_unions,omitempty" jsonschema:"description=Collapse a union of null and one other type into that type."`
	AdditionalPropertiesFalse *bool `yaml:"additional_properties_false,omitempty" jsonschema:"description=Emit additionalProperties: false on every record."`
	OmitEmptyRequired         *bool `yaml:"omit_empty_required,omitempty" jsonschema:"description=Drop the required key from records whose fields are all nullable."`
	JavaTypeHints             *bool `yaml:"java_type_hints,omitempty" jsonschema:"description=Emit javaType hints for logical types."`
}

type Registry struct {
	URL               string `yaml:"url,omitempty" jsonschema:"description=Schema registry base URL (e.g. http://localhost:8081)."`
	Username          string `yaml:"username,omitempty" jsonschema:"description=Basic auth user name."`
	Password          string `yaml:"password,omitempty" jsonschema:"description=Basic auth password."`
	TimeoutSeconds    int    `yaml:"timeout_seconds,omitempty" jsonschema:"minimum=0,description=Per-request timeout in seconds. Defaults to 10 if omitted." default:"10"`
	RequestsPerSecond int    `yaml:"requests_per_second,omitempty" jsonschema:"minimum=0,description=Maximum registry requests per second. 0 disables rate limiting."`
}

// Timeout returns the request timeout; zero lets the client pick its default.
func (r Registry) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

type Profile struct {
	Preset    string    `yaml:"preset,omitempty" jsonschema:"enum=pojo-optimized,enum=strict,description=Base option set. Defaults to pojo-optimized." default:"pojo-optimized"`
	Draft     string    `yaml:"draft,omitempty" jsonschema:"enum=draft-07,enum=draft-2020-12,description=Target JSON Schema draft. Defaults to draft-07." default:"draft-07"`
	Overrides Overrides `yaml:"overrides,omitempty" jsonschema:"description=Per-toggle overrides applied after the preset."`
	Registry  Registry  `yaml:"registry,omitempty" jsonschema:"description=Schema registry connection used for --subject inputs."`
}

func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (p *Profile) Validate() error {
	if _, err := converter.Preset(p.Preset); err != nil {
		return err
	}

	if p.Registry.TimeoutSeconds < 0 {
		return fmt.Errorf("registry.timeout_seconds must be >= 0, got %d", p.Registry.TimeoutSeconds)
	}

	if p.Registry.RequestsPerSecond < 0 {
		return fmt.Errorf("registry.requests_per_second must be >= 0, got %d", p.Registry.RequestsPerSecond)
	}

	return nil
}

// Options resolves the profile into converter options: the preset first,
// then the draft, then each override that is set.
func (p *Profile) Options() (converter.Options, error) {
	opts, err := converter.Preset(p.Preset)
	if err != nil {
		return converter.Options{}, err
	}

	if p.Draft != "" {
		opts = opts.WithDraft(converter.ParseDraft(p.Draft))
	}

	o := p.Overrides
	if o.FlattenNullableUnions != nil {
		opts = opts.WithFlattenNullableUnions(*o.FlattenNullableUnions)
	}
	if o.AdditionalPropertiesFalse != nil {
		opts = opts.WithAdditionalPropertiesFalse(*o.AdditionalPropertiesFalse)
	}
	if o.OmitEmptyRequired != nil {
		opts = opts.WithOmitEmptyRequired(*o.OmitEmptyRequired)
	}
	if o.JavaTypeHints != nil {
		opts = opts.WithJavaTypeHints(*o.JavaTypeHints)
	}

	return opts, nil
}
