package main

import (
	"encoding/csv"
	"fmt"
	"os"
)

// readCSV reads path and returns its header row plus every data row,
// mirroring go-strats/cmd/probe's loadCSV split between header lookup
// and row data.
func readCSV(path string) (rows [][]string, headers []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, nil, fmt.Errorf("%s: expected at least a header row", path)
	}
	return records[1:], records[0], nil
}
