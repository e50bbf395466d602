package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonResult is the envelope every subcommand prints (§6 wire contract):
// {ok, result?, error?, error_details?}.
type jsonResult struct {
	OK           bool        `json:"ok"`
	Result       interface{} `json:"result,omitempty"`
	Error        string      `json:"error,omitempty"`
	ErrorDetails interface{} `json:"error_details,omitempty"`
}

// emitResult prints result as the JSON envelope when jsonMode is set,
// otherwise falls back to a plain human-readable rendering, and returns
// an error cobra should surface as a non-zero exit code.
func emitResult(jsonMode bool, result interface{}) error {
	if jsonMode {
		return writeEnvelope(os.Stdout, jsonResult{OK: true, Result: result})
	}
	return printHuman(result)
}

// emitError prints an error envelope and returns it so cobra's RunE can
// propagate a non-zero exit without double-printing.
func emitError(jsonMode bool, err error, details interface{}) error {
	if jsonMode {
		_ = writeEnvelope(os.Stdout, jsonResult{OK: false, Error: err.Error(), ErrorDetails: details})
		return silentError{err}
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return silentError{err}
}

func writeEnvelope(w *os.File, v jsonResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHuman(result interface{}) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// silentError lets RunE return a non-nil error (so cobra exits non-zero)
// without cobra or main also printing an "Error: ..." line; emitError has
// already printed the JSON/human error envelope.
type silentError struct{ err error }

func (s silentError) Error() string { return s.err.Error() }
