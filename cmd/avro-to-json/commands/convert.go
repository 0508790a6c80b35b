package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/takumiyoshikawa/avro-to-json/internal/config"
	"github.com/takumiyoshikawa/avro-to-json/internal/converter"
	"github.com/takumiyoshikawa/avro-to-json/internal/registry"
	"github.com/takumiyoshikawa/avro-to-json/internal/source"
)

const (
	defaultProfileFile = "avro-to-json.yml"
	outputSuffix       = ".schema.json"

	envRegistryURL      = "AVRO_TO_JSON_REGISTRY_URL"
	envRegistryUsername = "AVRO_TO_JSON_REGISTRY_USERNAME"
	envRegistryPassword = "AVRO_TO_JSON_REGISTRY_PASSWORD"
)

type convertFlags struct {
	output     string
	outputDir  string
	configPath string
	strict     bool
	draft      string
	lenient    bool
	jobs       int

	flattenNullableUnions     bool
	additionalPropertiesFalse bool
	omitEmptyRequired         bool
	javaTypeHints             bool

	registryURL      string
	registryUser     string
	registryPassword string
	subjects         []string
	version          string
}

func NewConvertCmd(g *globals) *cobra.Command {
	f := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert [schema.avsc ...]",
		Short: "Convert Avro schemas to JSON Schema",
		Long: `Convert Avro schema files, or subjects fetched from a schema registry,
into JSON Schema documents.

Options are resolved in this order: the preset (pojo-optimized unless the
profile or --strict says otherwise), the draft, the profile overrides and
finally the per-toggle flags. A profile is read from --config, or from
avro-to-json.yml in the current directory when present.

Registry settings fall back to AVRO_TO_JSON_REGISTRY_URL,
AVRO_TO_JSON_REGISTRY_USERNAME and AVRO_TO_JSON_REGISTRY_PASSWORD, which may
also be set in a .env file.`,
		Example: `  avro-to-json convert user.avsc
  avro-to-json convert --strict --draft draft-2020-12 -o user.schema.json user.avsc
  avro-to-json convert --output-dir schemas/ avro/*.avsc
  avro-to-json convert --registry http://localhost:8081 --subject orders-value --version 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, g, f, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "Output file for a single input (default: stdout)")
	flags.StringVar(&f.outputDir, "output-dir", "", "Directory receiving one <name>.schema.json per input")
	flags.StringVarP(&f.configPath, "config", "c", "", "Conversion profile (default: ./avro-to-json.yml when present)")
	flags.BoolVar(&f.strict, "strict", false, "Use the strict preset instead of pojo-optimized")
	flags.StringVar(&f.draft, "draft", "", "JSON Schema draft: draft-07 or draft-2020-12")
	flags.BoolVar(&f.lenient, "lenient", false, "Repair malformed schema JSON (comments, trailing commas, single quotes)")
	flags.IntVarP(&f.jobs, "jobs", "j", 0, "Number of inputs converted concurrently (default: number of CPUs)")

	flags.BoolVar(&f.flattenNullableUnions, "flatten-nullable-unions", false, "Collapse [\"null\", X] unions into X")
	flags.BoolVar(&f.additionalPropertiesFalse, "additional-properties-false", false, "Emit additionalProperties: false on records")
	flags.BoolVar(&f.omitEmptyRequired, "omit-empty-required", false, "Drop empty required arrays")
	flags.BoolVar(&f.javaTypeHints, "java-type-hints", false, "Emit javaType hints for logical types")

	flags.StringVar(&f.registryURL, "registry", "", "Schema registry URL (env: "+envRegistryURL+")")
	flags.StringVar(&f.registryUser, "registry-user", "", "Schema registry user name (env: "+envRegistryUsername+")")
	flags.StringVar(&f.registryPassword, "registry-password", "", "Schema registry password (env: "+envRegistryPassword+")")
	flags.StringArrayVar(&f.subjects, "subject", nil, "Registry subject to convert (repeatable)")
	flags.StringVar(&f.version, "version", registry.LatestVersion, "Subject version: latest or a positive integer")

	cmd.MarkFlagsMutuallyExclusive("output", "output-dir")

	return cmd
}

func runConvert(cmd *cobra.Command, g *globals, f *convertFlags, args []string) error {
	log := g.logger()

	switch {
	case len(args) == 0 && len(f.subjects) == 0:
		return errors.New("no input: pass schema files or --subject")
	case len(args) > 0 && len(f.subjects) > 0:
		return errors.New("schema files and --subject cannot be combined")
	}

	inputs := make([]source.Input, 0, len(args)+len(f.subjects))
	for _, path := range args {
		inputs = append(inputs, source.FileInput(path))
	}
	for _, subject := range f.subjects {
		inputs = append(inputs, source.SubjectInput(subject, f.version))
	}
	if f.output != "" && len(inputs) > 1 {
		return fmt.Errorf("--output takes a single input, got %d; use --output-dir", len(inputs))
	}

	profile, err := loadProfile(f.configPath)
	if err != nil {
		return err
	}
	opts, err := resolveOptions(cmd, f, profile, log)
	if err != nil {
		return err
	}
	log.Debug("resolved options",
		zap.Stringer("draft", opts.Draft),
		zap.Bool("flattenNullableUnions", opts.FlattenNullableUnions),
		zap.Bool("additionalPropertiesFalse", opts.AdditionalPropertiesFalse),
		zap.Bool("omitEmptyRequired", opts.OmitEmptyRequired),
		zap.Bool("javaTypeHints", opts.JavaTypeHints),
	)

	loader := &source.Loader{Lenient: f.lenient, Logger: log}
	if len(f.subjects) > 0 {
		client, err := newRegistryClient(f, profile, log)
		if err != nil {
			return err
		}
		loader.Registry = client
	}

	var outputPaths []string
	if f.outputDir != "" {
		outputPaths, err = outputFiles(f.outputDir, inputs)
		if err != nil {
			return err
		}
	}

	conv := converter.New(opts, converter.WithLogger(log))
	results := make([]string, len(inputs))

	jobs := f.jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	eg, ctx := errgroup.WithContext(cmd.Context())
	eg.SetLimit(jobs)
	for i, in := range inputs {
		eg.Go(func() error {
			text, err := loader.Load(ctx, in)
			if err != nil {
				return err
			}
			out, err := conv.Convert(text)
			if err != nil {
				return fmt.Errorf("converting %s: %w", in, err)
			}
			if outputPaths != nil {
				if err := writeOutput(outputPaths[i], []byte(out+"\n")); err != nil {
					return err
				}
				log.Info("converted", zap.Stringer("input", in), zap.String("output", outputPaths[i]))
				return nil
			}
			results[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	switch {
	case outputPaths != nil:
		return nil
	case f.output != "":
		if err := writeOutput(f.output, []byte(results[0]+"\n")); err != nil {
			return err
		}
		log.Info("converted", zap.Stringer("input", inputs[0]), zap.String("output", f.output))
		return nil
	default:
		w := cmd.OutOrStdout()
		for _, out := range results {
			if _, err := fmt.Fprintln(w, out); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
		return nil
	}
}

func loadProfile(path string) (*config.Profile, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultProfileFile); err == nil {
		return config.Load(defaultProfileFile)
	}
	return &config.Profile{}, nil
}

// resolveOptions layers the command line over the profile. Toggle flags
// only apply when given explicitly.
func resolveOptions(cmd *cobra.Command, f *convertFlags, profile *config.Profile, log *zap.Logger) (converter.Options, error) {
	p := *profile
	flags := cmd.Flags()

	if f.strict {
		p.Preset = converter.PresetStrict
	}
	if flags.Changed("draft") {
		p.Draft = f.draft
	}
	if p.Draft != "" && converter.ParseDraft(p.Draft).String() != p.Draft {
		log.Warn("unknown draft, using draft-07", zap.String("draft", p.Draft))
	}

	opts, err := p.Options()
	if err != nil {
		return converter.Options{}, err
	}

	if flags.Changed("flatten-nullable-unions") {
		opts = opts.WithFlattenNullableUnions(f.flattenNullableUnions)
	}
	if flags.Changed("additional-properties-false") {
		opts = opts.WithAdditionalPropertiesFalse(f.additionalPropertiesFalse)
	}
	if flags.Changed("omit-empty-required") {
		opts = opts.WithOmitEmptyRequired(f.omitEmptyRequired)
	}
	if flags.Changed("java-type-hints") {
		opts = opts.WithJavaTypeHints(f.javaTypeHints)
	}
	return opts, nil
}

func newRegistryClient(f *convertFlags, profile *config.Profile, log *zap.Logger) (*registry.Client, error) {
	url := firstNonEmpty(f.registryURL, os.Getenv(envRegistryURL), profile.Registry.URL)
	if url == "" {
		return nil, fmt.Errorf("--subject needs a schema registry: pass --registry or set %s", envRegistryURL)
	}
	return registry.NewClient(registry.Config{
		URL:               url,
		Username:          firstNonEmpty(f.registryUser, os.Getenv(envRegistryUsername), profile.Registry.Username),
		Password:          firstNonEmpty(f.registryPassword, os.Getenv(envRegistryPassword), profile.Registry.Password),
		Timeout:           profile.Registry.Timeout(),
		RequestsPerSecond: profile.Registry.RequestsPerSecond,
		Logger:            log,
	})
}

// outputFiles names one output file per input inside dir and rejects inputs
// that would overwrite each other.
func outputFiles(dir string, inputs []source.Input) ([]string, error) {
	sanitize := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	paths := make([]string, len(inputs))
	seen := make(map[string]source.Input, len(inputs))
	for i, in := range inputs {
		name := sanitize.Replace(in.Name()) + outputSuffix
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("inputs %s and %s both map to %s", prev, in, name)
		}
		seen[name] = in
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
