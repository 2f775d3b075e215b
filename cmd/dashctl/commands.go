package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/export"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/shared/config"
)

const cliUser = "cli"

type options struct {
	baseURL   string
	tokenFile string
	timeout   time.Duration
}

func newRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &options{}

	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Resume dashboard command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "api", cfg.APIBaseURL, "tailoring API base URL")
	root.PersistentFlags().StringVar(&opts.tokenFile, "token-file", defaultTokenFile(), "where credentials are kept")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", cfg.APITimeout, "per-request timeout")

	root.AddCommand(
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newListCommand(opts),
		newExportCommand(opts),
	)
	return root
}

func (o *options) client(tokens apiclient.TokenStore) (*apiclient.Client, error) {
	c, err := apiclient.New(o.baseURL,
		apiclient.WithTimeout(o.timeout),
		apiclient.WithUserAgent("dashctl"),
	)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return c, nil
	}
	return c.WithTokens(tokens), nil
}

func (o *options) signedIn() (*apiclient.Client, error) {
	tokens, err := openTokenFile(o.tokenFile)
	if err != nil {
		return nil, err
	}
	if tokens.empty() {
		return nil, errors.New("not signed in, run dashctl login first")
	}
	return o.client(tokens)
}

func newLoginCommand(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("DASHCTL_PASSWORD")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--email and --password (or DASHCTL_PASSWORD) are required")
			}
			c, err := opts.client(nil)
			if err != nil {
				return err
			}
			res, err := c.Login(cmd.Context(), strings.ToLower(strings.TrimSpace(email)), password)
			if err != nil {
				return err
			}
			tokens, err := openTokenFile(opts.tokenFile)
			if err != nil {
				return err
			}
			if err := tokens.SaveTokens(cmd.Context(), res.TokenPair); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", res.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := openTokenFile(opts.tokenFile)
			if err != nil {
				return err
			}
			if !tokens.empty() {
				if c, err := opts.client(tokens); err == nil {
					_ = c.Logout(cmd.Context())
				}
			}
			return tokens.ClearTokens(cmd.Context())
		},
	}
}

func newListCommand(opts *options) *cobra.Command {
	var jobID string
	cmd := &cobra.Command{
		Use:       "list resumes|jobs|blocks|workshops|tailored",
		Short:     "List entities",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"resumes", "jobs", "blocks", "workshops", "tailored"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.signedIn()
			if err != nil {
				return err
			}
			rows, err := listRows(cmd, c, args[0], jobID)
			if err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "only tailored resumes for this job")
	return cmd
}

func listRows(cmd *cobra.Command, c *apiclient.Client, kind, jobID string) ([][]string, error) {
	ctx := cmd.Context()
	rows := [][]string{}
	switch kind {
	case "resumes":
		items, err := c.ListResumes(ctx)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{"ID", "TITLE", "MASTER", "UPDATED"})
		for _, r := range items {
			master := ""
			if r.IsMaster {
				master = "yes"
			}
			rows = append(rows, []string{r.ID, r.Title, master, stamp(r.UpdatedAt)})
		}
	case "jobs":
		items, err := c.ListJobs(ctx)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{"ID", "TITLE", "COMPANY", "UPDATED"})
		for _, j := range items {
			rows = append(rows, []string{j.ID, j.Title, j.Company, stamp(j.UpdatedAt)})
		}
	case "blocks":
		items, err := c.ListBlocks(ctx, apiclient.BlockFilter{Limit: 200})
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{"ID", "TYPE", "TAGS", "CONTENT"})
		for _, b := range items {
			rows = append(rows, []string{b.ID, b.BlockType, strings.Join(b.Tags, ","), truncate(b.Content, 60)})
		}
	case "workshops":
		items, err := c.ListWorkshops(ctx)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{"ID", "JOB", "STATUS", "PENDING", "UPDATED"})
		for _, w := range items {
			rows = append(rows, []string{w.ID, firstNonEmpty(w.JobTitle, w.JobID), w.Status, fmt.Sprint(len(w.PendingDiffs)), stamp(w.UpdatedAt)})
		}
	case "tailored":
		items, err := c.ListTailored(ctx, jobID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{"ID", "RESUME", "JOB", "SCORE", "UPDATED"})
		for _, t := range items {
			rows = append(rows, []string{t.ID, t.ResumeID, t.JobID, fmt.Sprintf("%.0f", t.MatchScore), stamp(t.UpdatedAt)})
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return rows, nil
}

func newExportCommand(opts *options) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export workshop|tailored <id>",
		Short: "Download a workshop or tailored resume",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			c, err := opts.signedIn()
			if err != nil {
				return err
			}
			svc := export.NewService(querycache.New(0), nil, nil)

			var file apiclient.ExportFile
			switch args[0] {
			case "workshop":
				file, err = svc.Workshop(cmd.Context(), c, cliUser, args[1], f)
			case "tailored":
				file, err = svc.Tailored(cmd.Context(), c, cliUser, args[1], f)
			default:
				return fmt.Errorf("unknown kind %q", args[0])
			}
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = cmd.OutOrStdout().Write(file.Data)
				return err
			}
			if out == "" {
				out = file.Filename
			}
			if err := os.WriteFile(out, file.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(file.Data))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(export.FormatPDF), "pdf, docx or txt")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path, - for stdout")
	return cmd
}

func writeTable(w io.Writer, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".dashctl-tokens.json"
	}
	return filepath.Join(dir, "dashctl", "tokens.json")
}
