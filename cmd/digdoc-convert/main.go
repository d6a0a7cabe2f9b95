// Command digdoc-convert walks a directory of RDF-format metadata files and
// converts each one to METS, certifying round-trip equivalence along the way.
package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nainya/digdoc/internal/logger"
	"github.com/nainya/digdoc/internal/metrics"
	"github.com/nainya/digdoc/pkg/convert"
	"github.com/nainya/digdoc/pkg/fileformat"
	"github.com/nainya/digdoc/pkg/ruleset"
)

const (
	defaultBasePath    = "/var/lib/digdoc/metadata"
	defaultRuleSetPath = "/etc/digdoc/ruleset.xml"
)

var (
	flagBasePath       string
	flagRuleSetPath    string
	flagNonInteractive bool
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digdoc-convert",
		Short: "Convert RDF-format metadata to METS, certifying round-trip equivalence",
		Long: `digdoc-convert walks a directory of meta.xml files, backs each one up,
reads it through the RDF adapter, writes it through the METS adapter, and
certifies the round trip with the content, equals and tokenizer validators.

If --base-path or --rule-set are omitted, you are prompted for them
interactively.`,
		RunE: runConvert,
	}

	cmd.Flags().StringVar(&flagBasePath, "base-path", "", "directory to walk recursively for meta.xml files")
	cmd.Flags().StringVar(&flagRuleSetPath, "rule-set", "", "path to the rule-set XML file")
	cmd.Flags().BoolVar(&flagNonInteractive, "non-interactive", false, "use the default instead of prompting when a flag is missing")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger()
	m := metrics.NewMetrics()

	basePath, err := resolveSetting(flagBasePath, "base path for metadata", defaultBasePath)
	if err != nil {
		return fmt.Errorf("digdoc-convert: %w", err)
	}
	ruleSetPath, err := resolveSetting(flagRuleSetPath, "rule-set path", defaultRuleSetPath)
	if err != nil {
		return fmt.Errorf("digdoc-convert: %w", err)
	}

	rs, err := ruleset.LoadFromFile(ruleSetPath)
	if err != nil {
		log.Fatal("failed to load rule set").Str("path", ruleSetPath).Err(err).Send()
		return err
	}

	driver := &convert.Driver{
		RuleSet: rs,
		NewRDF:  newRDFFormat,
		NewMETS: newMETSFormat,
		Log:     log,
		Metrics: m,
	}

	results, err := driver.RunDirectory(basePath)
	if err != nil {
		log.Error("directory walk failed").Str("path", basePath).Err(err).Send()
	}

	committed, rolledBack, ughs := 0, 0, 0
	for _, r := range results {
		switch r.Outcome {
		case "commit":
			committed++
		case "rollback":
			rolledBack++
		case "ugh":
			ughs++
		}
	}

	successColor := color.New(color.FgGreen, color.Bold)
	warnColor := color.New(color.FgYellow)
	errColor := color.New(color.FgRed)

	fmt.Printf("processed %d file(s): ", len(results))
	successColor.Printf("%d committed", committed)
	fmt.Print(", ")
	warnColor.Printf("%d rolled back", rolledBack)
	fmt.Print(", ")
	errColor.Printf("%d adapter errors", ughs)
	fmt.Println()
	return err
}

// resolveSetting returns flagValue if set; otherwise, unless --non-interactive
// was passed, prompts the operator with def as the suggested default.
func resolveSetting(flagValue, message, def string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if flagNonInteractive {
		return def, nil
	}

	answer := def
	prompt := &survey.Input{
		Message: message + ":",
		Default: def,
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", err
	}
	return answer, nil
}

// newRDFFormat and newMETSFormat are placeholders for the concrete RDF and
// METS/MODS adapters, which are external collaborators behind the
// fileformat.FileFormat boundary (see pkg/fileformat) and out of scope for
// the core model and driver built here.
func newRDFFormat(rs *ruleset.RuleSet) fileformat.FileFormat {
	panic("digdoc-convert: no RDF fileformat.FileFormat adapter is registered")
}

func newMETSFormat(rs *ruleset.RuleSet) fileformat.FileFormat {
	panic("digdoc-convert: no METS fileformat.FileFormat adapter is registered")
}
