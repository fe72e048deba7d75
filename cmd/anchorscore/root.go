package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Propgic/internal/property"
	"github.com/MikeSquared-Agency/Propgic/internal/scoring"
)

type options struct {
	profile     string
	mode        string
	format      string
	profilesDir string
	criteria    bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "anchorscore",
		Short:         "Score property attribute records against weighted rubric profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.profilesDir, "profiles-dir", "", "directory of extra rubric profiles (*.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine decisions to stderr")

	root.AddCommand(newScoreCmd(opts), newProfilesCmd(opts))
	return root
}

func newScoreCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Score an attribute record read from FILE (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "anchor-v1", "rubric profile name or alias")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "strict", "aggregation mode (strict|renormalized)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format (text|json)")
	cmd.Flags().BoolVar(&opts.criteria, "criteria", false, "include per-criterion scores in text output")
	return cmd
}

func newProfilesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the available rubric profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadRegistry(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range reg.Profiles() {
				fmt.Fprintf(out, "%s\t%d criteria", p.Name, len(p.Criteria))
				if len(p.Aliases) > 0 {
					fmt.Fprintf(out, "\taliases: %s", strings.Join(p.Aliases, ", "))
				}
				fmt.Fprintln(out)
				if p.Description != "" {
					fmt.Fprintf(out, "  %s\n", p.Description)
				}
				for _, t := range p.Tiers {
					bound := "below"
					if t.Min != nil {
						bound = ">= " + t.Min.String()
					}
					fmt.Fprintf(out, "  %-14s %-8s %s\n", t.Label, bound, t.Verdict)
				}
			}
			return nil
		},
	}
}

func runScore(cmd *cobra.Command, opts *options, path string) error {
	mode, err := scoring.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}

	attrs, err := readAttributes(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(opts)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	engine := scoring.NewEngine(reg, scoring.Options{DefaultMode: mode}, logger)

	result, err := engine.Evaluate(attrs, opts.profile, mode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	writeText(out, result, opts.criteria)
	return nil
}

func readAttributes(stdin io.Reader, path string) (*property.Attributes, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read attributes: %w", err)
	}
	var attrs property.Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parse attributes: %w", err)
	}
	return &attrs, nil
}

func loadRegistry(opts *options) (*scoring.Registry, error) {
	reg, err := scoring.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	if opts.profilesDir != "" {
		if err := reg.LoadDir(opts.profilesDir); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func writeText(w io.Writer, r *scoring.AnalysisResult, withCriteria bool) {
	fmt.Fprintf(w, "Profile:        %s (%s)\n", r.Profile, r.Mode)
	fmt.Fprintf(w, "Score:          %s\n", r.Score.StringFixed(2))
	fmt.Fprintf(w, "Coverage:       %s%%\n", r.Coverage.Shift(2).StringFixed(0))
	fmt.Fprintf(w, "Tier:           %s\n", r.Tier)
	fmt.Fprintf(w, "Verdict:        %s\n", r.Verdict)
	fmt.Fprintf(w, "Recommendation: %s\n", r.Recommendation)

	fmt.Fprintln(w, "\nStrengths:")
	for _, s := range r.Strengths {
		fmt.Fprintf(w, "  + %s\n", s)
	}
	fmt.Fprintln(w, "\nRisks:")
	for _, s := range r.Risks {
		fmt.Fprintf(w, "  - %s\n", s)
	}

	if !withCriteria {
		return
	}
	fmt.Fprintln(w, "\nCriteria:")
	for _, c := range r.Criteria {
		score := "unknown"
		if c.Available {
			score = c.Score.StringFixed(0)
		}
		fmt.Fprintf(w, "  %-34s %6s  x %s\n", c.Name, score, c.Weight.String())
	}
}
