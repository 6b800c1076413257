package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/modtool/pkg/config"
	"github.com/ssargent/modtool/pkg/modfile"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [job-name]...",
	Short: "Run the jobs listed in the config file",
	Long: `Run the jobs listed in the config file in order. With job names, only
those jobs run. The first failing job stops the run.

Example:
  modtool run --config modtool.yaml
  modtool run misc --config modtool.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.GetConfig()
		jobs, err := selectJobs(cfg.Jobs, args)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			cmd.Printf("No jobs configured\n")
			return nil
		}

		logger := container.GetLogger()
		p := container.NewProcessor()
		for _, job := range jobs {
			logger.Info("running job", zap.String("job", job.Name), zap.String("mode", job.Mode))
			if err := runJob(p, cfg, job, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("job %s: %w", job.Name, err)
			}
		}

		cmd.Printf("Completed %d jobs\n", len(jobs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func selectJobs(jobs []config.Job, names []string) ([]config.Job, error) {
	if len(names) == 0 {
		return jobs, nil
	}

	byName := make(map[string]config.Job, len(jobs))
	for _, job := range jobs {
		byName[job.Name] = job
	}

	selected := make([]config.Job, 0, len(names))
	for _, name := range names {
		job, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown job %q", name)
		}
		selected = append(selected, job)
	}
	return selected, nil
}

// runJob executes one configured job. Dump jobs without an output write to
// stdout; split jobs without an output write to the mods directory.
func runJob(p *modfile.Processor, cfg *config.Config, job config.Job, stdout io.Writer) error {
	if err := job.Validate(); err != nil {
		return err
	}

	switch job.Mode {
	case config.ModeSplit:
		dir := job.Output
		if dir == "" {
			dir = cfg.ModsDir
		}
		_, err := p.SplitFile(job.Input, modfile.SplitConfig{
			Directory: dir,
			Prefix:    job.Prefix,
			Atomic:    job.Atomic,
		})
		return err

	case config.ModeDump:
		if job.Output != "" {
			_, err := p.DumpFile(job.Input, job.Output)
			return err
		}
		data, err := modfile.ReadFile(job.Input)
		if err != nil {
			return err
		}
		_, err = p.Dump(data, stdout)
		return err

	case config.ModeJoin:
		if err := os.MkdirAll(filepath.Dir(job.Output), 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		_, err := p.JoinFiles(job.Output, job.Inputs...)
		return err

	case config.ModeApply:
		_, err := p.ApplyFiles(job.Image, job.Output, job.Base, job.Input)
		return err
	}

	return fmt.Errorf("%w: unknown mode %q", config.ErrInvalidJob, job.Mode)
}
