package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iho/finmodel/internal/adapter/export"
	"github.com/iho/finmodel/internal/adapter/http/dto"
	"github.com/iho/finmodel/internal/domain"
)

func calcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculation run operations",
	}

	cmd.AddCommand(
		calcRunCmd(),
		calcHistoryCmd(),
		calcActiveCmd(),
		calcShowCmd(),
		calcRestoreCmd(),
		calcCompareCmd(),
		calcExportCmd(),
	)

	return cmd
}

func projectPath(projectID, calcType string) (string, error) {
	if _, err := domain.ParseCalculationType(calcType); err != nil {
		return "", err
	}
	return fmt.Sprintf("/api/v1/projects/%s/calculations/%s", url.PathEscape(projectID), calcType), nil
}

func calcRunCmd() *cobra.Command {
	var (
		reason  string
		horizon int
		async   bool
	)

	cmd := &cobra.Command{
		Use:   "run <project-id> <amortization|depreciation|kpi>",
		Short: "Run a calculation and store a new version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := projectPath(args[0], args[1])
			if err != nil {
				return err
			}
			if async {
				path += "?async=true"
			}

			body, _, err := call(http.MethodPost, path, dto.CalculateRequest{ChangeReason: reason, HorizonMonths: horizon})
			if err != nil {
				return err
			}
			return printRaw(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Change reason stored with the run")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "Depreciation horizon in months (0 uses the project horizon)")
	cmd.Flags().BoolVar(&async, "async", false, "Return immediately with the running run")

	return cmd
}

func calcHistoryCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history <project-id> <type>",
		Short: "List stored runs, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := projectPath(args[0], args[1])
			if err != nil {
				return err
			}

			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			body, _, err := call(http.MethodGet, path+"?"+q.Encode(), nil)
			if err != nil {
				return err
			}
			return printRaw(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Runs to skip")

	return cmd
}

func calcActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active <project-id> <type>",
		Short: "Show the active run of a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := projectPath(args[0], args[1])
			if err != nil {
				return err
			}

			body, _, err := call(http.MethodGet, path+"/active", nil)
			if err != nil {
				return err
			}
			return printRaw(cmd.OutOrStdout(), body)
		},
	}
}

func calcShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run with its output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _, err := call(http.MethodGet, "/api/v1/runs/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			return printRaw(cmd.OutOrStdout(), body)
		},
	}
}

func calcRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <run-id>",
		Short: "Make a completed run the active one again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _, err := call(http.MethodPost, "/api/v1/runs/"+url.PathEscape(args[0])+"/restore", nil)
			if err != nil {
				return err
			}
			return printRaw(cmd.OutOrStdout(), body)
		},
	}
}

func calcCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <base-run-id> <target-run-id>",
		Short: "Diff the outputs of two runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("a", args[0])
			q.Set("b", args[1])

			body, _, err := call(http.MethodGet, "/api/v1/runs/compare?"+q.Encode(), nil)
			if err != nil {
				return err
			}
			return printRaw(cmd.OutOrStdout(), body)
		},
	}
}

func calcExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Download a run as CSV or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			path := fmt.Sprintf("/api/v1/runs/%s/export?format=%s", url.PathEscape(args[0]), f)
			body, _, err := call(http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(body), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Export format (csv or xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout when empty)")

	return cmd
}
