// Command flightprobe samples the head of a monthly CSV and prints each
// column's inferred type and target table. Use it to vet a file before a
// full run, since the first ingested batch fixes the schema.
//
// Example:
//
//	flightprobe -file=data/On_Time_..._2019_1.csv -bytes=262144
package main

import (
	"flag"
	"fmt"
	"os"

	"flightdb/internal/probe"
)

func main() {
	var (
		path     string
		maxBytes int
	)
	flag.StringVar(&path, "file", "", "CSV file to sample")
	flag.IntVar(&maxBytes, "bytes", 1<<20, "maximum bytes to sample")
	flag.Parse()

	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: flightprobe -file=<csv> [-bytes=N]")
		os.Exit(2)
	}

	rep, err := probe.Run(probe.Options{Path: path, MaxBytes: maxBytes})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(rep.Summary())
}
