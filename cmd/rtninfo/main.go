// Command rtninfo loads model files and prints their metadata, self-test
// outcome and harmonic distortion at a test tone.
//
// Usage:
//
//	rtninfo [flags] model.json ...
//
// Examples:
//
//	rtninfo models/*.json
//	rtninfo -freq 220 -level -6 -sr 44100 crunch.json
//	rtninfo -archs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-rtneural/dsp/filter/biquad"
	"github.com/cwbudde/algo-rtneural/dsp/gain"
	"github.com/cwbudde/algo-rtneural/internal/logging"
	"github.com/cwbudde/algo-rtneural/measure/thd"
	"github.com/cwbudde/algo-rtneural/model"
	"go.uber.org/zap"
)

type options struct {
	sampleRate float64
	threshold  float64
	freq       float64
	levelDB    float64
	noTHD      bool
}

type row struct {
	path       string
	arch       model.Arch
	skip       bool
	inGainDB   float64
	outGainDB  float64
	rate       float64
	validation bool
	thd        *thd.Result
	gainDB     float64
	err        error
}

func main() {
	var opts options
	flag.Float64Var(&opts.sampleRate, "sr", 48000, "processing sample rate in Hz")
	flag.Float64Var(&opts.threshold, "threshold", 1e-5, "self-test error threshold")
	flag.Float64Var(&opts.freq, "freq", 1000, "test tone frequency in Hz")
	flag.Float64Var(&opts.levelDB, "level", -12, "test tone level in dBFS")
	flag.BoolVar(&opts.noTHD, "no-thd", false, "skip the distortion measurement")
	archs := flag.Bool("archs", false, "list supported architectures")
	logLevel := flag.String("log", "warn", "log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rtninfo [flags] model.json ...\n\n")
		fmt.Fprintf(os.Stderr, "Loads each model, runs its self-test and measures THD.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *archs {
		printArchs(os.Stdout)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loader, err := model.NewLoader(
		model.WithLogger(logger),
		model.WithSampleRate(opts.sampleRate),
		model.WithSelfTestThreshold(opts.threshold),
		model.WithCacheSize(0),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	rows := make([]row, 0, flag.NArg())
	failed := false
	for _, path := range flag.Args() {
		r := inspect(context.Background(), loader, path, opts)
		if r.err != nil {
			failed = true
			logger.Debug("inspect failed", zap.String("path", path), zap.Error(r.err))
		}
		rows = append(rows, r)
	}

	if err := writeTable(os.Stdout, rows); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(ctx context.Context, loader *model.Loader, path string, opts options) row {
	r := row{path: path}

	desc, err := model.ReadDescription(path)
	if err != nil {
		r.err = err
		return r
	}
	r.validation = desc.HasValidation()

	m, err := loader.Load(ctx, path)
	if err != nil {
		r.err = err
		return r
	}
	defer m.Close()

	r.arch = m.Arch()
	r.skip = m.InputSkip()
	r.inGainDB = m.InputGainDB()
	r.outGainDB = m.OutputGainDB()
	r.rate = m.SampleRate()

	if opts.noTHD {
		return r
	}
	amp := gain.DBToLinear(opts.levelDB)
	res, err := thd.Measure(m, thd.Config{
		SampleRate: opts.sampleRate,
		Frequency:  opts.freq,
		Amplitude:  amp,
	})
	if err != nil {
		r.err = err
		return r
	}
	r.thd = &res
	r.gainDB = gain.LinearToDB(res.Level / amp)
	return r
}

func writeTable(w io.Writer, rows []row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Model\tArch\tSkip\tIn [dB]\tOut [dB]\tRate\tSelf-test\tGain [dB]\tTHD [%%]\tSINAD [dB]\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "-----\t----\t----\t-------\t--------\t----\t---------\t---------\t-------\t----------\n"); err != nil {
		return err
	}

	for _, r := range rows {
		if r.err != nil {
			if _, err := fmt.Fprintf(tw, "%s\terror: %s\t\t\t\t\t\t\t\t\n", r.path, describe(r.err)); err != nil {
				return err
			}
			continue
		}

		rate := "-"
		if r.rate > 0 {
			rate = fmt.Sprintf("%.0f", r.rate)
		}
		selfTest := "none"
		if r.validation {
			selfTest = "pass"
		}
		gainCol, thdCol, sinadCol := "-", "-", "-"
		if r.thd != nil {
			gainCol = fmt.Sprintf("%.2f", r.gainDB)
			thdCol = fmt.Sprintf("%.4f", r.thd.THD*100)
			sinadCol = formatDB(r.thd.SINAD)
		}

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%t\t%.2f\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			r.path, r.arch, r.skip, r.inGainDB, r.outGainDB, rate, selfTest, gainCol, thdCol, sinadCol,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func describe(err error) string {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	if kind := model.ErrorKind(err); kind != "unknown" {
		return kind
	}
	return err.Error()
}

func formatDB(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.1f", v)
}

func printArchs(w io.Writer) {
	for _, a := range model.Architectures() {
		fmt.Fprintf(w, "%s\t%d params\n", a, a.Params())
	}
	fmt.Fprintf(w, "biquad kernel: %s\n", biquad.Kernel())
}
