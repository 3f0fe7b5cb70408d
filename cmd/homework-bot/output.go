package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/tbourn/homework-bot/internal/jsoncodec"
)

// output renders command results as an aligned table or as JSON.
type output struct {
	jsonMode bool
	w        io.Writer
}

func newOutput(w io.Writer, jsonMode bool) *output {
	return &output{jsonMode: jsonMode, w: w}
}

func (o *output) print(headers []string, rows [][]string, jsonData any) error {
	if o.jsonMode {
		return o.json(jsonData)
	}
	return o.table(headers, rows)
}

func (o *output) table(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func (o *output) json(v any) error {
	b, err := jsoncodec.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(o.w, string(b))
	return err
}
