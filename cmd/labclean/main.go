// labclean is stage 1 of the workshop: it cleans the raw microbiology and
// TAC exports into the analysis files consumed by labsummary and labmerge.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openwash/labkit/labdata"
	"github.com/openwash/labkit/mpn"
	"github.com/openwash/labkit/tac"

	_ "github.com/openwash/labkit/compileinfoprint"
)

func main() {
	var microPath, tacPath, outDir, mpnTablePath string
	var ctCutoff float64

	flag.StringVar(&microPath, "micro", "", "Path to the raw microbiology CSV export.")
	flag.StringVar(&tacPath, "tac", "", "Path to the raw TAC CSV export.")
	flag.StringVar(&outDir, "out", "", "Directory for micro_clean.csv, tac_clean.csv, and rejects.csv.")
	flag.StringVar(&mpnTablePath, "mpn_table", "", "(Optional) Vendor MPN lookup table CSV. When absent, MPN is computed by maximum likelihood.")
	flag.Float64Var(&ctCutoff, "ct_cutoff", tac.DefaultCtCutoff, "Ct value at or above which a TAC well is not a detection.")
	flag.Parse()

	fmt.Fprintln(os.Stderr, strings.Join(os.Args, " "))

	if microPath == "" || tacPath == "" || outDir == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalln(err)
	}

	estimate := mpn.Tray2000
	if mpnTablePath != "" {
		table, err := ImportMPNTable(mpnTablePath)
		if err != nil {
			log.Fatalln(err)
		}
		estimate = table.Estimate
		log.Printf("Using the vendor MPN table from %s\n", mpnTablePath)
	}

	var rejects []Reject

	samples, microRejects, err := CleanMicro(microPath, estimate)
	if err != nil {
		log.Fatalln(err)
	}
	rejects = append(rejects, microRejects...)

	detections, tacRejects, err := CleanTAC(tacPath, ctCutoff)
	if err != nil {
		log.Fatalln(err)
	}
	rejects = append(rejects, tacRejects...)

	// Stable output order makes the cleaned files diffable between runs.
	sort.Slice(samples, func(i, j int) bool { return samples[i].SampleID < samples[j].SampleID })
	sort.Slice(detections, func(i, j int) bool {
		if detections[i].SampleID != detections[j].SampleID {
			return detections[i].SampleID < detections[j].SampleID
		}
		return detections[i].Target < detections[j].Target
	})

	if err := labdata.WriteSamples(filepath.Join(outDir, "micro_clean.csv"), samples); err != nil {
		log.Fatalln(err)
	}

	if err := labdata.WriteDetections(filepath.Join(outDir, "tac_clean.csv"), detections); err != nil {
		log.Fatalln(err)
	}

	if err := WriteRejects(filepath.Join(outDir, "rejects.csv"), rejects); err != nil {
		log.Fatalln(err)
	}

	log.Printf("Cleaned %d culture samples and %d TAC wells; rejected %d records\n", len(samples), len(detections), len(rejects))
}
