// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* and Print* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplayProgress], [DisplayOutputs], [PrintRunConfig].
//
//   - Format* functions return a formatted string without performing I/O.
//     Examples: [FormatProgressLine].

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/pmip/dmcompare/internal/config"
	"github.com/pmip/dmcompare/internal/format"
	"github.com/pmip/dmcompare/internal/ui"
)

// PrintRunConfig prints the settings that shape the results of a run.
func PrintRunConfig(cfg config.AppConfig, out io.Writer) {
	st := ui.GetCurrentTheme().Styles()
	line := func(label, value string) {
		fmt.Fprintf(out, "%s %s\n", padLabel(st, label+":", 14), st.Value.Render(value))
	}

	fmt.Fprintln(out, st.Title.Render("--- Data-model comparison ---"))
	line("Version tag", cfg.VersionTag)
	line("Result store", cfg.StorePath)
	line("Output dir", cfg.OutDir)
	if cfg.Reuse {
		line("Averaging", "reusing stored results")
		return
	}
	if cfg.MonteCarlo {
		line("Averaging", fmt.Sprintf("Monte Carlo, %d iterations of %d years, %s errors", cfg.Iterations, cfg.Years, cfg.ErrorModel))
		line("Seed", fmt.Sprintf("%d", cfg.Seed))
	} else {
		line("Averaging", "plain deltas")
	}
	workers := "unlimited"
	if cfg.Workers > 0 {
		workers = fmt.Sprintf("%d", cfg.Workers)
	}
	line("Workers", workers)
}

// DisplayOutputs lists the files written by the run.
func DisplayOutputs(out io.Writer, paths []string, elapsed time.Duration) {
	st := ui.GetCurrentTheme().Styles()
	fmt.Fprintf(out, "\n%s\n", st.Title.Render(fmt.Sprintf("--- %d files written in %s ---", len(paths), format.FormatExecutionDuration(elapsed))))
	for _, p := range paths {
		fmt.Fprintf(out, "%s %s\n", st.Success.Render("✓"), st.Value.Render(p))
	}
}
