package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const separator = "========================================================"

// SummaryFileName is the name of the summary figure report for version.
func SummaryFileName(version string) string {
	return "IPCC_Fig3.44_numerical_values_" + version + ".txt"
}

// ScatterFileName is the name of the land versus ocean report for version.
func ScatterFileName(version string) string {
	return "IPCC_Fig3.2a_numerical_values_" + version + ".txt"
}

func writeHeader(w io.Writer, figure, creator string) {
	fmt.Fprintf(w, "Numerical values for IPCC AR6 WGI chapter 3 Figure %s\n", figure)
	fmt.Fprintf(w, "Creator: %s\n", creator)
	fmt.Fprintln(w, separator)
}

// WriteSummary writes the numeric content of the summary panels.
func WriteSummary(w io.Writer, creator string, panels []PanelData) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, "3_44", creator)
	for _, p := range panels {
		fmt.Fprintf(bw, "region: %s; variable: %s, period: %s\n", p.Panel.Region, p.Panel.Variable, p.Panel.Period)
		fmt.Fprintf(bw, "reconstruction data set: %s\n", p.DatasetLabel)
		if p.Globe {
			fmt.Fprintf(bw, "reconstructions, assessed range: %7.2f to %7.2f \n", p.Band[0], p.Band[1])
		} else {
			fmt.Fprintf(bw, "reconstructions, average (std): %7.2f (%7.2f) \n", p.Reconstruction.Mean, p.Reconstruction.Std)
		}
		fmt.Fprintln(bw, "model results - average (std)")
		for _, m := range p.Models {
			fmt.Fprintf(bw, "%20s, %7.2f (%5.2f)\n", m.Label, m.Value, m.Err)
		}
		fmt.Fprintf(bw, "%20s: %7.2f \n", "Ensemble mean PMIP3-CMIP5", p.EnsemblePMIP3)
		fmt.Fprintf(bw, "%20s: %7.2f \n", "Ensemble mean PMIP4-CMIP6", p.EnsemblePMIP4)
		fmt.Fprintln(bw, separator)
	}
	return bw.Flush()
}

// WriteScatter writes the numeric content of the land versus ocean figure.
func WriteScatter(w io.Writer, creator string, d ScatterData) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, "3_2a", creator)
	fmt.Fprintf(bw, "region: %s\n", d.Region.Name)
	fmt.Fprintf(bw, "Continental reconstructions from : %s\n", d.LandLabel)
	fmt.Fprintf(bw, "MAT %s - PI anomaly, average (standard deviation), in degC \n", d.Figure.Period)
	fmt.Fprintf(bw, "%7.2f (%7.2f) \n", d.Land.Mean, d.Land.Std)
	fmt.Fprintf(bw, "Marine reconstructions from : %s \n", d.OceanLabel)
	fmt.Fprintf(bw, "MAT %s - PI anomaly, average (standard deviation), in degC \n", d.Figure.Period)
	fmt.Fprintf(bw, "%7.2f (%7.2f) \n", d.Ocean.Mean, d.Ocean.Std)
	fmt.Fprintln(bw, "model results (model output only taken over reconstruction sites)")
	fmt.Fprintln(bw, "model name, average (std) over land, average (std) over oceans")
	for _, m := range d.Models {
		fmt.Fprintf(bw, "%20s, %7.2f (%5.2f), %7.2f (%5.2f)\n", m.Label, m.Land.Mean, m.Land.Std, m.Ocean.Mean, m.Ocean.Std)
	}
	fmt.Fprintln(bw, "=====================================")
	return bw.Flush()
}

// WriteFile creates path, including its directory, and fills it with fn.
func WriteFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
