package main

import (
	"encoding/json"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// diffJSON renders the differences between two JSON documents. modified is
// false when they are equal.
func diffJSON(expected, actual []byte) (diff string, modified bool, err error) {
	delta, err := gojsondiff.New().Compare(expected, actual)
	if err != nil {
		return "", false, err
	}
	if !delta.Modified() {
		return "", false, nil
	}
	var left interface{}
	if err := json.Unmarshal(expected, &left); err != nil {
		return "", true, err
	}
	asciiFmt := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       false,
	})
	diff, err = asciiFmt.Format(delta)
	return diff, true, err
}
