// Command reportbook renders YAML report definitions into CSV, JSON or XLSX
// files without running the HTTP server.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/locvowork/reportbook/internal/logger"
	"github.com/locvowork/reportbook/internal/service"
	"github.com/locvowork/reportbook/internal/source"
	"github.com/locvowork/reportbook/pkg/export"
	"github.com/locvowork/reportbook/pkg/workbook"
)

var (
	definitionPath string
	dataPath       string
	sourcesPath    string
	format         string
	outputPath     string
	sheetName      string
	locale         string
	pretty         bool
	noStyles       bool
	skipHidden     bool
	logLevel       string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reportbook",
		Short: "Render report definitions into spreadsheet files",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitLogging("", logLevel)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a definition against a JSON data file",
		Long: `render loads a YAML report definition, binds its sections to the record
sets in the JSON data file (an object keyed by source name) and writes the
export.`,
		Args: cobra.NoArgs,
		RunE: runRender,
	}
	renderCmd.Flags().StringVarP(&definitionPath, "definition", "d", "", "YAML report definition (required)")
	renderCmd.Flags().StringVarP(&dataPath, "input", "i", "", "JSON data file keyed by source name")
	renderCmd.Flags().StringVar(&sourcesPath, "sources", "", "YAML sources file (static sources only)")
	renderCmd.Flags().StringVarP(&format, "format", "f", string(export.DefaultFormat), "Output format: xlsx, csv, json")
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	renderCmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet to export for csv and json")
	renderCmd.Flags().StringVar(&locale, "locale", "", "Document language recorded in xlsx output")
	renderCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	renderCmd.Flags().BoolVar(&noStyles, "no-styles", false, "Omit styles from xlsx output")
	renderCmd.Flags().BoolVar(&skipHidden, "skip-hidden", false, "Drop hidden rows from csv and json output")
	_ = renderCmd.MarkFlagRequired("definition")

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the rendered workbook model as JSON",
		Args:  cobra.NoArgs,
		RunE:  runDump,
	}
	dumpCmd.Flags().StringVarP(&definitionPath, "definition", "d", "", "YAML report definition (required)")
	dumpCmd.Flags().StringVarP(&dataPath, "input", "i", "", "JSON data file keyed by source name")
	_ = dumpCmd.MarkFlagRequired("definition")

	formatsCmd := &cobra.Command{
		Use:   "formats",
		Short: "List export formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := export.NewDispatcher()
			for _, f := range d.Formats() {
				mt, _ := d.MediaType(f)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", f, mt)
			}
			return nil
		},
	}

	rootCmd.AddCommand(renderCmd, dumpCmd, formatsCmd)
	return rootCmd
}

func buildRequest() (service.ExportRequest, *source.Registry, error) {
	def, err := os.ReadFile(definitionPath)
	if err != nil {
		return service.ExportRequest{}, nil, fmt.Errorf("read definition: %w", err)
	}
	data, err := readData(dataPath)
	if err != nil {
		return service.ExportRequest{}, nil, err
	}

	reg := source.NewRegistry()
	if sourcesPath != "" {
		cfg, err := source.LoadConfigFile(sourcesPath)
		if err != nil {
			return service.ExportRequest{}, nil, err
		}
		if err := cfg.Register(reg, source.Clients{}); err != nil {
			return service.ExportRequest{}, nil, err
		}
	}

	req := service.ExportRequest{
		Definition: string(def),
		Data:       data,
		Format:     format,
		SheetName:  sheetName,
		Locale:     locale,
		Filename:   outputPath,
	}
	if noStyles {
		req.IncludeStyles = export.Bool(false)
	}
	if skipHidden {
		req.IncludeHidden = export.Bool(false)
	}
	if pretty {
		req.Extra = map[string]string{"pretty": "true"}
	}
	return req, reg, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	req, reg, err := buildRequest()
	if err != nil {
		return err
	}
	svc := service.NewReportService(reg, nil, service.Config{})
	res, err := svc.Export(context.Background(), req)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), res.Data)
}

func runDump(cmd *cobra.Command, args []string) error {
	req, reg, err := buildRequest()
	if err != nil {
		return err
	}
	svc := service.NewReportService(reg, nil, service.Config{})
	wb, err := svc.Render(context.Background(), req)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	out, err := json.MarshalIndent(workbook.ToData(wb), "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), out)
}

// readData decodes the data file, keeping numbers exact.
func readData(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return data, nil
}

func writeOutput(stdout io.Writer, data []byte) error {
	if outputPath == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
