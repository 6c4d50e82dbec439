// Command docloom converts word-processing packages to semantic plain
// text and back. Extraction produces markup plus a style map, manifest,
// and fidelity ledger; rendering assembles a new package from those
// pieces.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/DocLoom/core/extract"
	"github.com/FocuswithJustin/DocLoom/core/ir"
	"github.com/FocuswithJustin/DocLoom/core/manifest"
	"github.com/FocuswithJustin/DocLoom/core/markup"
	"github.com/FocuswithJustin/DocLoom/core/opc"
	"github.com/FocuswithJustin/DocLoom/core/styles"
	"github.com/FocuswithJustin/DocLoom/core/template"
	"github.com/FocuswithJustin/DocLoom/core/writer"
	"github.com/FocuswithJustin/DocLoom/internal/logging"
	"github.com/FocuswithJustin/DocLoom/internal/report"
	"github.com/FocuswithJustin/DocLoom/internal/validation"
)

const version = "0.1.0"

// CLI defines the command-line interface for docloom.
var CLI struct {
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`
	ReportDB  string `name:"report-db" type:"path" help:"SQLite database for run records (disabled when empty)"`

	Extract ExtractCmd `cmd:"" help:"Extract markup, style map, manifest, and ledger from a package"`
	Render  RenderCmd  `cmd:"" help:"Render markup back into a package"`
	Styles  StylesCmd  `cmd:"" help:"Show the resolved style mappings of a package"`
	Report  ReportCmd  `cmd:"" help:"List recorded conversion runs"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ExtractCmd converts a package to markup and sidecars.
type ExtractCmd struct {
	Path    string `arg:"" help:"Package to extract" type:"existingfile"`
	Out     string `short:"o" help:"Markup output path (default: input with .txt)" type:"path"`
	Sidecar string `help:"Directory for style map, manifest, and ledger (default: alongside output)" type:"path"`

	NoHeader     bool `name:"no-header" help:"Do not promote the first title to a document header"`
	NoTables     bool `name:"no-tables" help:"Drop tables instead of converting them"`
	NoFormatting bool `name:"no-formatting" help:"Flatten bold/italic/monospace spans"`
}

func (c *ExtractCmd) Run() error {
	start := time.Now()
	out := c.Out
	if out == "" {
		out = replaceExt(c.Path, ".txt")
	}
	sidecarDir := c.Sidecar
	if sidecarDir == "" {
		sidecarDir = filepath.Dir(out)
	}
	if err := validation.ValidatePath(out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if err := checkInputKind(c.Path, validation.KindPackage); err != nil {
		return err
	}
	logging.ConversionStart("extract", c.Path)

	a, err := opc.Open(c.Path)
	if err != nil {
		return err
	}
	src, err := extract.NewArchiveSource(a)
	if err != nil {
		return err
	}
	opts := extract.DefaultOptions()
	opts.IncludeHeader = !c.NoHeader
	opts.ExtractTables = !c.NoTables
	opts.PreserveFormatting = !c.NoFormatting

	res, err := extract.Extract(src, opts)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, []byte(res.Markup), 0o644); err != nil {
		return fmt.Errorf("writing markup: %w", err)
	}
	if err := writeSidecars(sidecarDir, baseName(out), res); err != nil {
		return err
	}

	logging.ConversionDone("extract", string(res.Ledger.Class), len(res.Ledger.Diagnostics), time.Since(start))
	fmt.Println(res.Ledger.Summary())
	return recordRun("extract", c.Path, out, res.Ledger)
}

func writeSidecars(dir, base string, res *extract.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating sidecar directory: %w", err)
	}
	manifestJSON, err := res.Manifest.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, base+".manifest.json"), manifestJSON, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	styleYAML, err := res.Map.ToYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, base+".styles.yaml"), styleYAML, 0o644); err != nil {
		return fmt.Errorf("writing style map: %w", err)
	}
	ledgerJSON, err := res.Ledger.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, base+".ledger.json"), ledgerJSON, 0o644); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	return nil
}

// RenderCmd assembles a package from markup text.
type RenderCmd struct {
	Path     string `arg:"" help:"Markup file to render" type:"existingfile"`
	Out      string `short:"o" help:"Package output path (default: input with .docx)" type:"path"`
	Template string `help:"Template package to build on (default: built-in)" type:"existingfile"`
	Manifest string `help:"Manifest sidecar for fragment splicing" type:"existingfile"`
	StyleMap string `name:"style-map" help:"Style map sidecar" type:"existingfile"`

	NoSidecars bool `name:"no-sidecars" help:"Do not embed sidecars into the package"`
}

func (c *RenderCmd) Run() error {
	start := time.Now()
	out := c.Out
	if out == "" {
		out = replaceExt(c.Path, ".docx")
	}
	if err := validation.ValidatePath(out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if err := checkInputKind(c.Path, validation.KindMarkup); err != nil {
		return err
	}
	logging.ConversionStart("render", c.Path)

	text, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("reading markup: %w", err)
	}
	doc, err := markup.Parse(string(text))
	if err != nil {
		return err
	}

	tpl := template.Minimal()
	if c.Template != "" {
		tpl, err = template.Load(c.Template)
		if err != nil {
			return err
		}
	}

	var man *manifest.Manifest
	if c.Manifest != "" {
		data, err := os.ReadFile(c.Manifest)
		if err != nil {
			return fmt.Errorf("reading manifest: %w", err)
		}
		man, err = manifest.Parse(data)
		if err != nil {
			return err
		}
	}

	var sm *styles.StyleMap
	if c.StyleMap != "" {
		data, err := os.ReadFile(c.StyleMap)
		if err != nil {
			return fmt.Errorf("reading style map: %w", err)
		}
		sm, err = styles.ParseStyleMap(data)
		if err != nil {
			return err
		}
	}

	opts := writer.DefaultOptions()
	opts.EmbedSidecars = !c.NoSidecars
	res, err := writer.WriteWith(doc, tpl, man, sm, opts)
	if err != nil {
		return err
	}
	if err := res.Archive.WriteFile(out); err != nil {
		return err
	}

	logging.ConversionDone("render", string(res.Ledger.Class), len(res.Ledger.Diagnostics), time.Since(start))
	fmt.Println(res.Ledger.Summary())
	return recordRun("render", c.Path, out, res.Ledger)
}

// StylesCmd prints the resolved style mappings of a package.
type StylesCmd struct {
	Path string `arg:"" help:"Package to inspect" type:"existingfile"`
}

func (c *StylesCmd) Run() error {
	a, err := opc.Open(c.Path)
	if err != nil {
		return err
	}
	stylesXML, err := a.StylesXML()
	if err != nil {
		return err
	}
	sheet, err := styles.ParseStyles(stylesXML)
	if err != nil {
		return err
	}
	sm, notes := styles.MapStyles(sheet)

	for _, id := range sheet.IDs() {
		st, _ := sheet.Get(id)
		role := sm.Role(id)
		if r, ok := sm.Character[id]; ok {
			role = r
		}
		fmt.Printf("%-24s %-28s %s\n", id, st.Name, role)
	}
	for _, note := range notes {
		fmt.Println("note:", note)
	}
	return nil
}

// ReportCmd lists recorded conversion runs.
type ReportCmd struct {
	Limit int `default:"20" help:"Number of runs to show"`
}

func (c *ReportCmd) Run() error {
	if CLI.ReportDB == "" {
		return fmt.Errorf("no report database configured, pass --report-db")
	}
	store, err := report.Open(CLI.ReportDB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(c.Limit)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Printf("%s  %-8s %-4s %3d diag  %s -> %s\n",
			run.StartedAt.Format(time.RFC3339), run.Direction, run.Class, run.Diagnostics, run.Input, run.Output)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("docloom %s (sqlite driver: %s)\n", version, report.DriverType())
	return nil
}

func recordRun(direction, input, output string, ledger *ir.Ledger) error {
	if CLI.ReportDB == "" {
		return nil
	}
	store, err := report.Open(CLI.ReportDB)
	if err != nil {
		return err
	}
	defer store.Close()

	ledgerJSON, err := ledger.ToJSON()
	if err != nil {
		return err
	}
	_, err = store.Record(report.Run{
		Direction:   direction,
		Input:       input,
		Output:      output,
		Class:       string(ledger.Class),
		Diagnostics: len(ledger.Diagnostics),
		Ledger:      string(ledgerJSON),
	})
	return err
}

// checkInputKind sniffs the input file and rejects it when it is not
// the kind the command expects, or when a package is oversized.
func checkInputKind(path string, want validation.InputKind) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if want == validation.KindPackage {
		info, err := f.Stat()
		if err != nil {
			return err
		}
		if err := validation.ValidatePackageSize(info.Size()); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	kind, err := validation.DetectInput(f)
	if err != nil {
		return err
	}
	if kind != want {
		return fmt.Errorf("%s: expected %s input, detected %s", path, want, kind)
	}
	return nil
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("docloom"),
		kong.Description("DocLoom - round-trip document/markup conversion"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
