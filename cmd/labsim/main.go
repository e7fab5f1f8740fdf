// labsim generates the simulated survey, microbiology, and TAC inputs that
// the workshop's three stages run on. The draws are seeded so every
// participant starts from the same files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/openwash/labkit/surveys"

	_ "github.com/openwash/labkit/compileinfoprint"
)

func main() {
	var households, samplesPerHousehold int
	var seed uint64
	var outDir string

	flag.IntVar(&households, "households", 60, "Number of households to simulate.")
	flag.IntVar(&samplesPerHousehold, "samples_per_household", 3, "Environmental samples collected per household, cycling through water, soil, and hand rinse.")
	flag.Uint64Var(&seed, "seed", 2023, "Random seed.")
	flag.StringVar(&outDir, "out", "", "Directory for survey.csv, micro_raw.csv, and tac_raw.csv.")
	flag.Parse()

	fmt.Fprintln(os.Stderr, strings.Join(os.Args, " "))

	if outDir == "" || households < 1 || samplesPerHousehold < 1 {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalln(err)
	}

	sim := Generate(households, samplesPerHousehold, seed)

	if err := writeCSV(filepath.Join(outDir, "survey.csv"), &sim.Households); err != nil {
		log.Fatalln(err)
	}

	if err := writeCSV(filepath.Join(outDir, "micro_raw.csv"), &sim.Micro); err != nil {
		log.Fatalln(err)
	}

	if err := writeCSV(filepath.Join(outDir, "tac_raw.csv"), &sim.TAC); err != nil {
		log.Fatalln(err)
	}

	log.Printf("Simulated %d households, %d culture samples, %d TAC wells\n", len(sim.Households), len(sim.Micro), len(sim.TAC))
}

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.Marshal(rows, f)
}

// Simulation holds the three generated tables.
type Simulation struct {
	Households []surveys.Household
	Micro      []MicroRow
	TAC        []TACRow
}
