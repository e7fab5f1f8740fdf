// labmerge is stage 3 of the workshop: it joins the cleaned lab results to
// the household survey and runs the course's t-tests and regression.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	labkit "github.com/openwash/labkit"
	"github.com/openwash/labkit/labdata"
	"github.com/openwash/labkit/surveys"

	_ "github.com/openwash/labkit/compileinfoprint"
)

func main() {
	var microPath, surveyPath, outDir, sampleType string

	flag.StringVar(&microPath, "micro", "", "Path to micro_clean.csv from labclean.")
	flag.StringVar(&surveyPath, "survey", "", "Path to the household survey CSV.")
	flag.StringVar(&outDir, "out", "", "Directory for merged.csv, unmatched.csv, ttests.csv, and regression.csv.")
	flag.StringVar(&sampleType, "sample_type", labdata.TypeWater, "Sample type whose log10 MPN is the outcome for the t-tests and regression. Burden units differ across types, so inference is within one type.")
	flag.Parse()

	fmt.Fprintln(os.Stderr, strings.Join(os.Args, " "))

	if microPath == "" || surveyPath == "" || outDir == "" {
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

	f, err := os.Open(labkit.ExpandHome(surveyPath))
	if err != nil {
		log.Fatalln(err)
	}

	households, err := surveys.Load(f)
	f.Close()
	if err != nil {
		log.Fatalln(err)
	}

	byID, err := surveys.Index(households)
	if err != nil {
		log.Fatalln(err)
	}

	merged, unmatched := Merge(samples, byID)
	log.Printf("Merged %d lab rows onto %d households; %d rows had no matching household\n", len(merged), len(households), len(unmatched))

	if err := writeCSV(filepath.Join(outDir, "merged.csv"), &merged); err != nil {
		log.Fatalln(err)
	}

	if err := labdata.WriteSamples(filepath.Join(outDir, "unmatched.csv"), unmatched); err != nil {
		log.Fatalln(err)
	}

	tests, err := ExposureTTests(merged, sampleType)
	if err != nil {
		log.Fatalln(err)
	}

	fisher, err := ESBLFisher(merged)
	if err != nil {
		log.Println(err) // an all-null ESBL column is not fatal
	} else {
		tests = append(tests, fisher)
	}

	if err := writeCSV(filepath.Join(outDir, "ttests.csv"), &tests); err != nil {
		log.Fatalln(err)
	}

	regression, err := Regression(merged, sampleType)
	if err != nil {
		log.Fatalln(err)
	}

	if err := writeCSV(filepath.Join(outDir, "regression.csv"), &regression); err != nil {
		log.Fatalln(err)
	}

	// Echo the results the way the workshop slides present them.
	fmt.Println(strings.Join([]string{"Outcome", "Exposure", "Method", "N0", "N1", "Mean0", "Mean1", "Statistic", "P"}, "\t"))
	for _, row := range tests {
		fmt.Printf("%s\t%s\t%s\t%d\t%d\t%.3f\t%.3f\t%.3f\t%.4g\n", row.Outcome, row.Exposure, row.Method, row.N0, row.N1, row.Mean0, row.Mean1, row.Statistic, row.P)
	}

	fmt.Println(strings.Join([]string{"Term", "Beta", "StdErr", "T", "P"}, "\t"))
	for _, row := range regression {
		fmt.Printf("%s\t%.4f\t%.4f\t%.3f\t%.4g\n", row.Term, row.Beta, row.StdErr, row.T, row.P)
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
