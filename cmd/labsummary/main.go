// labsummary is stage 2 of the workshop: descriptive prevalence and burden
// statistics over the cleaned lab files, with accompanying plots.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/openwash/labkit/labdata"

	_ "github.com/openwash/labkit/compileinfoprint"
)

func main() {
	var microPath, tacPath, outDir string
	var preview bool

	flag.StringVar(&microPath, "micro", "", "Path to micro_clean.csv from labclean.")
	flag.StringVar(&tacPath, "tac", "", "Path to tac_clean.csv from labclean.")
	flag.StringVar(&outDir, "out", "", "Directory for prevalence.csv, burden.csv, and the plots.")
	flag.BoolVar(&preview, "preview", false, "Print terminal histograms of the log10 burden distributions.")
	flag.Parse()

	fmt.Fprintln(os.Stderr, strings.Join(os.Args, " "))

	if microPath == "" || tacPath == "" || outDir == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalln(err)
	}

	samples, err := labdata.ReadSamples(microPath)
	if err != nil {
		log.Fatalln(err)
	}

	detections, err := labdata.ReadDetections(tacPath)
	if err != nil {
		log.Fatalln(err)
	}

	var prevalence []PrevalenceRow

	culture, err := CulturePrevalence(samples)
	if err != nil {
		log.Fatalln(err)
	}
	prevalence = append(prevalence, culture...)

	esbl, err := ESBLPrevalence(samples)
	if err != nil {
		log.Fatalln(err)
	}
	prevalence = append(prevalence, esbl...)

	tacPrevalence, err := TACPrevalence(detections)
	if err != nil {
		log.Fatalln(err)
	}
	prevalence = append(prevalence, tacPrevalence...)

	burden, err := BurdenSummary(samples)
	if err != nil {
		log.Fatalln(err)
	}

	if err := writeCSV(filepath.Join(outDir, "prevalence.csv"), &prevalence); err != nil {
		log.Fatalln(err)
	}

	if err := writeCSV(filepath.Join(outDir, "burden.csv"), &burden); err != nil {
		log.Fatalln(err)
	}

	// One histogram per sample type, plus the TAC prevalence bars.
	for _, row := range burden {
		values := log10ByType(samples)[row.SampleType]
		name := filepath.Join(outDir, fmt.Sprintf("burden_%s.png", row.SampleType))
		if err := PlotBurdenHistogram(name, fmt.Sprintf("log10 MPN, %s", row.SampleType), values); err != nil {
			log.Fatalln(err)
		}

		if preview {
			fmt.Printf("\nlog10 MPN, %s (n=%d):\n", row.SampleType, row.N)
			if err := PreviewHistogram(os.Stdout, values); err != nil {
				log.Fatalln(err)
			}
		}
	}

	if err := PlotPrevalenceBars(filepath.Join(outDir, "tac_prevalence.png"), tacPrevalence); err != nil {
		log.Fatalln(err)
	}

	// Echo the prevalence table so the workshop can eyeball it without
	// opening the CSV.
	fmt.Println(strings.Join([]string{"Scope", "Stratum", "Detected", "Assayed", "Prevalence", "Lower95", "Upper95"}, "\t"))
	for _, row := range prevalence {
		fmt.Printf("%s\t%s\t%d\t%d\t%.3f\t%.3f\t%.3f\n", row.Scope, row.Stratum, row.Detected, row.Assayed, row.Prevalence, row.Lower95, row.Upper95)
	}
}

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.Marshal(rows, f)
}
