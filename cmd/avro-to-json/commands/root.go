package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/takumiyoshikawa/avro-to-json/internal/logger"
)

const envFile = ".env"

// globals are the persistent flags shared by every subcommand.
type globals struct {
	verbose bool
	log     *zap.Logger
}

func (g *globals) logger() *zap.Logger {
	if g.log == nil {
		return zap.NewNop()
	}
	return g.log
}

func NewRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "avro-to-json",
		Short: "Convert Avro schemas into JSON Schema documents",
		Long: `avro-to-json converts Avro schemas (.avsc files or schema registry subjects)
into JSON Schema (draft-07 or draft 2020-12) for validation, documentation
and code generation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logger.Info
			if g.verbose {
				level = logger.Debug
			}
			l, err := logger.New(logger.Config{Level: level})
			if err != nil {
				return err
			}
			g.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.log != nil {
				_ = g.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewConvertCmd(g))
	cmd.AddCommand(NewProfileSchemaCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func Execute() {
	if err := loadEnvFile(envFile); err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// loadEnvFile loads path into the environment when it exists. Variables
// already set win over the file.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
