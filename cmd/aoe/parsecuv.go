package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/abogadosonline/aoe-api/internal/cuv"
	"github.com/spf13/cobra"
)

var parseCUVCmd = &cobra.Command{
	Use:   "parse-cuv [file]",
	Short: "Print the vehicle data found in a CUV (PDF or extracted text)",
	Example: `  aoe parse-cuv certificado.pdf
  aoe parse-cuv certificado.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runParseCUV,
}

func runParseCUV(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	text := string(data)
	if bytes.HasPrefix(data, []byte("%PDF")) {
		if text, err = cuv.ExtractText(data); err != nil {
			return fmt.Errorf("failed to read pdf: %w", err)
		}
	}

	res := cuv.Parse(text)
	if res.Empty() {
		return fmt.Errorf("no vehicle data found in %s", args[0])
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
