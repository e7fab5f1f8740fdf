package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/montanaflynn/stats"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/openwash/labkit/describe"
	"github.com/openwash/labkit/labdata"
)

type PrevalenceRow struct {
	Scope      string  `csv:"scope"`
	Stratum    string  `csv:"stratum"`
	Detected   int     `csv:"detected"`
	Assayed    int     `csv:"assayed"`
	Prevalence float64 `csv:"prevalence"`
	Lower95    float64 `csv:"lower95"`
	Upper95    float64 `csv:"upper95"`
}

type BurdenRow struct {
	SampleType string  `csv:"sample_type"`
	Units      string  `csv:"units"`
	N          int     `csv:"n"`
	Mean       float64 `csv:"mean_log10"`
	SD         float64 `csv:"sd_log10"`
	Median     float64 `csv:"median_log10"`
	IQR        float64 `csv:"iqr_log10"`
}

// CulturePrevalence treats any non-censored-low sample as a detection: an
// all-negative tray is the only way a sample counts as culture-negative.
func CulturePrevalence(samples []labdata.Sample) ([]PrevalenceRow, error) {
	detected := make(map[string]int)
	assayed := make(map[string]int)

	for _, s := range samples {
		assayed[s.SampleType]++
		if s.Censoring != "below_lod" {
			detected[s.SampleType]++
		}
	}

	return prevalenceRows("culture", detected, assayed)
}

// ESBLPrevalence covers only the samples where the ESBL plate was read;
// a null result is missing, not negative.
func ESBLPrevalence(samples []labdata.Sample) ([]PrevalenceRow, error) {
	detected := make(map[string]int)
	assayed := make(map[string]int)

	for _, s := range samples {
		if !s.ESBL.Valid {
			continue
		}
		assayed[s.SampleType]++
		if s.ESBL.Int64 == 1 {
			detected[s.SampleType]++
		}
	}

	return prevalenceRows("esbl", detected, assayed)
}

func TACPrevalence(detections []labdata.Detection) ([]PrevalenceRow, error) {
	detected := make(map[string]int)
	assayed := make(map[string]int)

	for _, d := range detections {
		assayed[d.Target]++
		if d.Detected == 1 {
			detected[d.Target]++
		}
	}

	return prevalenceRows("tac", detected, assayed)
}

func prevalenceRows(scope string, detected, assayed map[string]int) ([]PrevalenceRow, error) {
	strata := make([]string, 0, len(assayed))
	for stratum := range assayed {
		strata = append(strata, stratum)
	}
	sort.Strings(strata)

	out := make([]PrevalenceRow, 0, len(strata))
	for _, stratum := range strata {
		p, err := describe.NewPrevalence(detected[stratum], assayed[stratum])
		if err != nil {
			return nil, err
		}

		out = append(out, PrevalenceRow{
			Scope:      scope,
			Stratum:    stratum,
			Detected:   p.Detected,
			Assayed:    p.Assayed,
			Prevalence: p.Proportion,
			Lower95:    p.Lower,
			Upper95:    p.Upper,
		})
	}

	return out, nil
}

func log10ByType(samples []labdata.Sample) map[string][]float64 {
	out := make(map[string][]float64)
	for _, s := range samples {
		out[s.SampleType] = append(out[s.SampleType], s.Log10MPN)
	}
	return out
}

// BurdenSummary describes the log10 MPN distribution per sample type, with
// censored values included at their substituted levels.
func BurdenSummary(samples []labdata.Sample) ([]BurdenRow, error) {
	values := log10ByType(samples)
	units := make(map[string]string)
	for _, s := range samples {
		units[s.SampleType] = s.Units
	}

	types := make([]string, 0, len(values))
	for sampleType := range values {
		types = append(types, sampleType)
	}
	sort.Strings(types)

	out := make([]BurdenRow, 0, len(types))
	for _, sampleType := range types {
		data := values[sampleType]

		mean, err := stats.Mean(data)
		if err != nil {
			return nil, err
		}

		sd := 0.0
		if len(data) > 1 {
			if sd, err = stats.StandardDeviationSample(data); err != nil {
				return nil, err
			}
		}

		median, err := stats.Median(data)
		if err != nil {
			return nil, err
		}

		iqr := 0.0
		if len(data) > 3 {
			if iqr, err = stats.InterQuartileRange(data); err != nil {
				return nil, err
			}
		}

		out = append(out, BurdenRow{
			SampleType: sampleType,
			Units:      units[sampleType],
			N:          len(data),
			Mean:       mean,
			SD:         sd,
			Median:     median,
			IQR:        iqr,
		})
	}

	return out, nil
}

type bin struct {
	Low, High float64
	Count     int
}

func binValues(values []float64, n int) []bin {
	min, max := values[0], values[0]
	for _, v := range values {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	if min == max {
		return []bin{{Low: min, High: max, Count: len(values)}}
	}

	width := (max - min) / float64(n)
	bins := make([]bin, n)
	for i := range bins {
		bins[i].Low = min + float64(i)*width
		bins[i].High = bins[i].Low + width
	}

	for _, v := range values {
		i := int((v - min) / width)
		if i >= n {
			i = n - 1 // max lands in the last bin
		}
		bins[i].Count++
	}

	return bins
}

func PlotBurdenHistogram(path, title string, values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("no values to plot for %s", title)
	}

	bins := binValues(values, 10)

	bars := make([]chart.Value, 0, len(bins))
	for _, b := range bins {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%.1f", b.Low),
			Value: float64(b.Count),
		})
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    640,
		Height:   360,
		BarWidth: 40,
		Bars:     bars,
	}

	return renderPNG(graph.Render, path)
}

func PlotPrevalenceBars(path string, rows []PrevalenceRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("no prevalence rows to plot")
	}

	bars := make([]chart.Value, 0, len(rows))
	for _, row := range rows {
		bars = append(bars, chart.Value{
			Label: row.Stratum,
			Value: row.Prevalence,
		})
	}

	graph := chart.BarChart{
		Title:    "TAC target prevalence",
		Width:    800,
		Height:   360,
		BarWidth: 60,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Bars: bars,
	}

	return renderPNG(graph.Render, path)
}

func renderPNG(render func(chart.RendererProvider, io.Writer) error, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return render(chart.PNG, f)
}

// PreviewHistogram prints a quick terminal histogram so the distribution can
// be sanity-checked before anyone opens the PNGs.
func PreviewHistogram(w io.Writer, values []float64) error {
	hist := histogram.Hist(10, values)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}
