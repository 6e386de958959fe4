package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/raine/places-collector/config"
	"github.com/raine/places-collector/internal/catalog"
	"github.com/raine/places-collector/internal/collector"
	"github.com/raine/places-collector/internal/export"
	"github.com/raine/places-collector/internal/places"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type options struct {
	apiKey         string
	municipalities string
	categories     []string
	requester      string
	format         string
	output         string
}

func main() {
	key := flag.String("key", "", "Google Places API key (defaults to GOOGLE_PLACES_API_KEY)")
	municipalities := flag.String("municipios", "", "Comma-separated municipalities")
	categories := flag.String("categorias", "", "Comma-separated category ids or labels, or \"all\"")
	requester := flag.String("nome", "", "Requester name, used in the output file name")
	format := flag.String("formato", "xlsx", "Output format: xlsx, csv or sqlite")
	output := flag.String("saida", "", "Output path (defaults to resultado_<nome>.<formato>)")
	interactive := flag.Bool("i", false, "Fill in the options with an interactive form")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fatal("%v", err)
	}

	level := cfg.LogLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cat, err := catalog.Load(cfg.CategoryLocale)
	if err != nil {
		fatal("%v", err)
	}

	opts := options{
		apiKey:         *key,
		municipalities: *municipalities,
		requester:      *requester,
		format:         *format,
		output:         *output,
	}
	if opts.apiKey == "" {
		opts.apiKey = cfg.PlacesAPIKey
	}
	if *categories != "" {
		opts.categories = strings.Split(*categories, ",")
	}

	missingInput := opts.municipalities == "" || len(opts.categories) == 0 || opts.requester == ""
	if *interactive || (missingInput && isInteractiveTerminal()) {
		if err := runForm(&opts, cat); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Cancelled.")
				os.Exit(1)
			}
			fatal("%v", err)
		}
	}

	categoryIDs, err := cat.Resolve(opts.categories)
	if err != nil {
		fatal("%v", err)
	}
	exportFormat, err := export.ParseFormat(opts.format)
	if err != nil {
		fatal("%v", err)
	}

	req := collector.Request{
		Municipalities: collector.ParseMunicipalities(opts.municipalities),
		Categories:     categoryIDs,
		APIKey:         opts.apiKey,
	}
	if err := req.Validate(cat); err != nil {
		fatal("%v", err)
	}

	path := opts.output
	if path == "" {
		path = export.FileName(opts.requester, exportFormat)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := places.NewClient(cfg.Places)
	c := collector.New(client, client, cat)

	fmt.Println(titleStyle.Render(fmt.Sprintf("Collecting %d categories in %d municipalities",
		len(req.Categories), len(req.Municipalities))))

	rs, runErr := c.Run(ctx, req, printProgress)
	if rs == nil {
		fatal("%v", runErr)
	}
	if runErr != nil {
		fmt.Println(failStyle.Render(fmt.Sprintf("Interrupted: %v. Writing partial results.", runErr)))
	}

	// The run context may be cancelled already; the export must still finish.
	if err := export.WriteFile(context.Background(), path, exportFormat, rs); err != nil {
		fatal("%v", err)
	}

	printSummary(rs, path)
	if runErr != nil {
		os.Exit(1)
	}
}

func printProgress(ev collector.Event) {
	prefix := fmt.Sprintf("[%d/%d]", ev.Index, ev.Total)
	switch ev.Kind {
	case collector.PairStarted:
		fmt.Println(pendingStyle.Render(fmt.Sprintf("%s %s em %s...", prefix, ev.CategoryLabel, ev.Municipality)))
	case collector.PairFinished:
		fmt.Println(okStyle.Render(fmt.Sprintf("%s %s em %s: %d", prefix, ev.CategoryLabel, ev.Municipality, ev.Rows)))
	case collector.PairFailed:
		fmt.Println(failStyle.Render(fmt.Sprintf("%s %s em %s failed: %v", prefix, ev.CategoryLabel, ev.Municipality, ev.Err)))
	}
}

func printSummary(rs *collector.ResultSet, path string) {
	s := rs.Summary()
	fmt.Println()
	fmt.Println(okStyle.Bold(true).Render(fmt.Sprintf("✓ %d rows written", s.Rows)))
	fmt.Println(pendingStyle.Render("  " + path))
	fmt.Printf("  with phone: %d, with website: %d, failed searches: %d, took %s\n",
		s.WithPhone, s.WithWebsite, s.Failures, rs.Duration().Round(time.Millisecond))
	for _, f := range rs.Failures {
		fmt.Println(failStyle.Render(fmt.Sprintf("  %s em %s: %v", f.Category, f.Municipality, f.Err)))
	}
}

func runForm(opts *options, cat *catalog.Catalog) error {
	var chosen []string
	selected := make(map[string]bool)
	if ids, err := cat.Resolve(opts.categories); err == nil {
		chosen = ids
		for _, id := range ids {
			selected[id] = true
		}
	}

	categoryOptions := make([]huh.Option[string], 0, cat.Len())
	for _, c := range cat.Categories() {
		categoryOptions = append(categoryOptions, huh.NewOption(c.Label, c.ID).Selected(selected[c.ID]))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Google Places API key").
				EchoMode(huh.EchoModePassword).
				Value(&opts.apiKey).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("API key is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Municípios").
				Description("Separados por vírgula, por exemplo: São Paulo, Campinas").
				Value(&opts.municipalities).
				Validate(func(s string) error {
					if len(collector.ParseMunicipalities(s)) == 0 {
						return errors.New("informe pelo menos um município")
					}
					return nil
				}),
			huh.NewInput().
				Title("Seu nome").
				Value(&opts.requester).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("o nome é obrigatório")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Categorias").
				Options(categoryOptions...).
				Value(&chosen).
				Height(15).
				Validate(func(ids []string) error {
					if len(ids) == 0 {
						return errors.New("selecione pelo menos uma categoria")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Formato").
				Options(huh.NewOptions(string(export.FormatXLSX), string(export.FormatCSV), string(export.FormatSQLite))...).
				Value(&opts.format),
		),
	).WithTheme(huh.ThemeBase16())

	if err := form.Run(); err != nil {
		return err
	}
	opts.categories = chosen
	return nil
}

func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func fatal(format string, args ...any) {
	log.Error().Msgf(format, args...)
	os.Exit(1)
}
