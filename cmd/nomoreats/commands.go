package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nomoreats/builder/internal/backend"
	"github.com/nomoreats/builder/internal/builder"
	"github.com/nomoreats/builder/internal/config"
	"github.com/nomoreats/builder/internal/export"
	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/render"
	"github.com/nomoreats/builder/internal/sections"
	"github.com/nomoreats/builder/internal/storage"
)

var loadConfig = config.Load

// newService wires a Service against the configured backend and local store.
// The returned func releases the store.
var newService = func(cfg config.Config) (*builder.Service, func(), error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	logger := setupLogging(cfg.Log.Level)
	client := backend.New(cfg.Backend.BaseURL, cfg.BackendTimeout())
	svc := builder.NewService(client, store, serviceOptions(cfg, logger))
	return svc, func() { store.Close() }, nil
}

// identity resolves the owner from --owner or the configured identity.
func identity(cmd *cobra.Command, cfg config.Config) (builder.Identity, error) {
	id := builder.Identity{OwnerID: cfg.Identity.OwnerID, Email: cfg.Identity.Email}
	if o, _ := cmd.Flags().GetString("owner"); o != "" && o != id.OwnerID {
		id = builder.Identity{OwnerID: o}
	}
	if id.OwnerID == "" {
		return id, errors.New("no owner: pass --owner or run `nomoreats config set identity.owner_id <id>`")
	}
	return id, nil
}

// noticeError reports err with its user-facing message.
func noticeError(err error) error {
	return errors.New(builder.Notice(err))
}

// loadProfileFile reads a profile from a YAML or JSON file.
func loadProfileFile(path string) (profile.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("reading profile: %w", err)
	}
	var p profile.Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}

func parseSections(list string) ([]sections.ID, error) {
	var ids []sections.ID
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, ok := sections.ParseID(s)
		if !ok {
			return nil, fmt.Errorf("unknown section %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// openSession opens a session for the --field flag and, when --file is
// given, replaces its content with the file's profile.
func openSession(cmd *cobra.Command, cfg config.Config, svc *builder.Service) (*builder.Session, error) {
	id, err := identity(cmd, cfg)
	if err != nil {
		return nil, err
	}
	field, _ := cmd.Flags().GetString("field")
	file, _ := cmd.Flags().GetString("file")

	var fromFile *profile.Profile
	if file != "" {
		p, err := loadProfileFile(file)
		if err != nil {
			return nil, err
		}
		if field == "" {
			field = string(p.ProfessionalField)
		}
		fromFile = &p
	}

	sess, err := svc.Open(cmd.Context(), id, sections.ParseField(field))
	if err != nil {
		return nil, noticeError(err)
	}
	if fromFile != nil {
		sess.Replace(*fromFile)
	}
	return sess, nil
}

// --- fields ---

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List professional fields and whether each can be opened",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		id, err := identity(cmd, cfg)
		if err != nil {
			return err
		}
		svc, done, err := newService(cfg)
		if err != nil {
			return err
		}
		defer done()

		limits, err := svc.Limits(cmd.Context(), id.OwnerID)
		if err != nil {
			printWarning("could not load limits: %s", builder.Notice(err))
		}
		out := cmd.OutOrStdout()
		for _, f := range limits.Picker() {
			state := colorize(styleSuccess, "available")
			switch {
			case f.Used:
				state = colorize(styleStep, "in use")
			case f.Locked:
				state = colorize(styleError, "locked")
			}
			fmt.Fprintf(out, "%-14s %-26s %s\n", f.Field, colorize(styleBold, f.Label), state)
		}
		return nil
	},
}

// --- limits ---

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show tailoring credits and field usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		id, err := identity(cmd, cfg)
		if err != nil {
			return err
		}
		svc, done, err := newService(cfg)
		if err != nil {
			return err
		}
		defer done()

		limits, err := svc.Limits(cmd.Context(), id.OwnerID)
		if err != nil {
			return fmt.Errorf("loading limits: %s", builder.Notice(err))
		}
		used := make([]string, len(limits.UsedFields))
		for i, f := range limits.UsedFields {
			used[i] = sections.Label(f)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Tailoring credits: %d\n", limits.Credits())
		fmt.Fprintf(out, "Fields in use:     %d of %d\n", len(limits.UsedFields), limits.FieldLimit)
		if len(used) > 0 {
			fmt.Fprintf(out, "                   %s\n", strings.Join(used, ", "))
		}
		return nil
	},
}

// --- preview ---

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a profile as the live document preview",
	Long: `Render a profile as the live document preview.

Without --file the stored profile for --field is loaded from the backend.

Examples:
  nomoreats preview --field tech
  nomoreats preview --file ada.yaml --sections summary,experience,skills
  nomoreats preview --file ada.json --html preview.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		field, _ := cmd.Flags().GetString("field")
		list, _ := cmd.Flags().GetString("sections")
		htmlPath, _ := cmd.Flags().GetString("html")
		asText, _ := cmd.Flags().GetBool("text")
		width, _ := cmd.Flags().GetInt("width")

		var doc render.Document
		if file != "" {
			p, err := loadProfileFile(file)
			if err != nil {
				return err
			}
			if field != "" {
				p.ProfessionalField = sections.Field(field)
			}
			p = profile.Normalize(p)
			active := sections.SectionsFor(p.ProfessionalField)
			if list != "" {
				if active, err = parseSections(list); err != nil {
					return err
				}
			}
			doc = render.Render(p, active, cfg.RenderOptions())
		} else {
			svc, done, err := newService(cfg)
			if err != nil {
				return err
			}
			defer done()
			sess, err := openSession(cmd, cfg, svc)
			if err != nil {
				return err
			}
			defer svc.Close(sess.ID())
			if list != "" {
				ids, err := parseSections(list)
				if err != nil {
					return err
				}
				doc = render.Render(sess.Profile(), ids, svc.RenderOptions())
			} else {
				doc = sess.Document()
			}
		}

		switch {
		case htmlPath != "":
			f, err := os.Create(htmlPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", htmlPath, err)
			}
			defer f.Close()
			if err := render.WriteHTML(f, doc, render.Viewport{}); err != nil {
				return err
			}
			printSuccess("Preview written to %s", htmlPath)
			return nil
		case asText:
			return render.WriteText(cmd.OutOrStdout(), doc)
		default:
			fmt.Fprintln(cmd.OutOrStdout(), render.Terminal(doc, width))
			return nil
		}
	},
}

func init() {
	previewCmd.Flags().String("file", "", "profile file (.yaml, .yml or .json)")
	previewCmd.Flags().String("field", "", "professional field (default: the profile's, else general)")
	previewCmd.Flags().String("sections", "", "comma-separated active sections in display order")
	previewCmd.Flags().String("html", "", "write an HTML preview to this path")
	previewCmd.Flags().Bool("text", false, "print plain text instead of the boxed page")
	previewCmd.Flags().Int("width", 100, "terminal width for the boxed page")
}

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Export a profile through the generation service",
	Long: `Export a profile through the generation service.

Examples:
  nomoreats generate --field tech
  nomoreats generate --file ada.yaml --out ./exports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out")
		if err := checkTextFlag(cmd, outDir); err != nil {
			return err
		}

		svc, done, err := newService(cfg)
		if err != nil {
			return err
		}
		defer done()
		sess, err := openSession(cmd, cfg, svc)
		if err != nil {
			return err
		}
		defer svc.Close(sess.ID())

		printStep("Generating %s resume...", sections.Label(sess.Field()))
		res, err := sess.Generate(cmd.Context())
		if err != nil {
			return noticeError(err)
		}
		return deliver(cmd, svc, sess, res, outDir)
	},
}

func init() {
	generateCmd.Flags().String("file", "", "profile file to export instead of the stored one")
	generateCmd.Flags().String("field", "", "professional field")
	generateCmd.Flags().String("out", "", "download the document into this directory")
	generateCmd.Flags().Bool("text", false, "print the downloaded document's text (needs --out)")
}

// --- tailor ---

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Export a resume tailored to a job description (uses one credit)",
	Long: `Export a resume tailored to a job description. Each call uses one
tailoring credit.

Examples:
  nomoreats tailor --field tech --job posting.txt
  pbpaste | nomoreats tailor --field tech --job - --out ./exports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		jobPath, _ := cmd.Flags().GetString("job")
		outDir, _ := cmd.Flags().GetString("out")
		if err := checkTextFlag(cmd, outDir); err != nil {
			return err
		}

		var jd []byte
		switch jobPath {
		case "":
			return errors.New("--job is required")
		case "-":
			jd, err = io.ReadAll(cmd.InOrStdin())
		default:
			jd, err = os.ReadFile(jobPath)
		}
		if err != nil {
			return fmt.Errorf("reading job description: %w", err)
		}

		svc, done, err := newService(cfg)
		if err != nil {
			return err
		}
		defer done()
		sess, err := openSession(cmd, cfg, svc)
		if err != nil {
			return err
		}
		defer svc.Close(sess.ID())

		printStep("Tailoring %s resume...", sections.Label(sess.Field()))
		res, err := sess.Tailor(cmd.Context(), string(jd))
		if err != nil {
			return noticeError(err)
		}
		if res.RemainingCredits != nil {
			printStatus("Credits left", "%d", *res.RemainingCredits)
		}
		return deliver(cmd, svc, sess, res, outDir)
	},
}

func init() {
	tailorCmd.Flags().String("field", "", "professional field")
	tailorCmd.Flags().String("job", "", "job description file, or - for stdin")
	tailorCmd.Flags().String("out", "", "download the document into this directory")
	tailorCmd.Flags().Bool("text", false, "print the downloaded document's text (needs --out)")
}

func checkTextFlag(cmd *cobra.Command, outDir string) error {
	if asText, _ := cmd.Flags().GetBool("text"); asText && outDir == "" {
		return errors.New("--text needs --out")
	}
	return nil
}

// deliver prints the document locator, or downloads it when outDir is set.
// With --text the extracted text of the saved document follows.
func deliver(cmd *cobra.Command, svc *builder.Service, sess *builder.Session, res builder.Result, outDir string) error {
	if outDir == "" {
		fmt.Fprintln(cmd.OutOrStdout(), res.Locator)
		return nil
	}
	d, err := svc.Download(cmd.Context(), sess, res, outDir)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", res.Locator, err)
	}
	printSuccess("Saved %s (%s)", d.Path, pages(d.Info.Pages))

	if asText, _ := cmd.Flags().GetBool("text"); asText {
		data, err := os.ReadFile(d.Path)
		if err != nil {
			return err
		}
		text, err := export.Text(data)
		if err != nil {
			printWarning("could not extract text: %v", err)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.ReplaceAll(text, "\f", "\n"))
	}
	return nil
}

func pages(n int) string {
	if n == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", n)
}

// --- resumes ---

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "List saved resumes across fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		id, err := identity(cmd, cfg)
		if err != nil {
			return err
		}
		svc, done, err := newService(cfg)
		if err != nil {
			return err
		}
		defer done()

		listing, err := svc.ListResumes(cmd.Context(), id.OwnerID)
		if err != nil {
			return noticeError(err)
		}
		out := cmd.OutOrStdout()
		if len(listing.Resumes) == 0 {
			fmt.Fprintln(out, "No saved resumes yet.")
		}
		for _, r := range listing.Resumes {
			fmt.Fprintf(out, "%s  %s\n", colorize(styleBold, r.Label), colorize(styleMuted, r.Filename))
			fmt.Fprintf(out, "  %s\n", r.Summary)
		}
		if listing.Credits != nil {
			fmt.Fprintf(out, "\nTailoring credits: %d\n", *listing.Credits)
		}
		return nil
	},
}

// --- exports ---

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List recent exports recorded by the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newAPIClient(cfg)
		if err != nil {
			return err
		}
		path := fmt.Sprintf("/exports?limit=%d", limit)
		if o, _ := cmd.Flags().GetString("owner"); o != "" {
			path += "&owner_id=" + url.QueryEscape(o)
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}
		var list []storage.Export
		if err := decodeJSON(resp, &list); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No exports found.")
			return nil
		}
		for _, e := range list {
			detail := e.Kind
			if e.PageCount > 0 {
				detail += ", " + pages(e.PageCount)
			}
			fmt.Fprintf(out, "%s  %-10s %s (%s)\n",
				colorize(styleStep, e.CreatedAt.Format("2006-01-02 15:04")),
				e.Field,
				e.PDFURL,
				detail,
			)
		}
		return nil
	},
}

func init() {
	exportsCmd.Flags().Int("limit", 20, "maximum number of exports to list")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s %s\n", colorize(styleBold, k.Key), k.Value, colorize(styleMuted, "("+k.EnvVar+")"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
