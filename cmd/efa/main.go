package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mobil-koeln/efa-cli/internal/api"
	"github.com/mobil-koeln/efa-cli/internal/cache"
	"github.com/mobil-koeln/efa-cli/internal/config"
	"github.com/mobil-koeln/efa-cli/internal/departures"
	"github.com/mobil-koeln/efa-cli/internal/logging"
	"github.com/mobil-koeln/efa-cli/internal/models"
	"github.com/mobil-koeln/efa-cli/internal/output"
	"github.com/mobil-koeln/efa-cli/internal/server"
	"github.com/mobil-koeln/efa-cli/internal/tui"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "efa",
	Short: "CLI for real-time departures from EFA journey planners",
	Long: `efa is a command-line interface for real-time public transport
departures from EFA (Elektronische Fahrplanauskunft) installations,
by default the RVV in Regensburg.

Features:
  - Departure boards for any stop, with line, direction and type filters
  - Stop search by name
  - Summary of the next reachable departure per stop
  - HTTP state API and Prometheus metrics for configured stops
  - JSON output for scripting
  - Response caching (file or Redis) for repeated queries

Quick Start:
  1. Launch TUI:             efa (or efa tui)
  2. Search for a stop:      efa search "Regensburg Hbf"
  3. Show departures:        efa departures de:09362:12009
  4. Next departure:         efa next de:09362:12009
  5. Serve configured stops: efa serve`,
	Version:           version,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is provided, launch TUI
		if len(args) == 0 {
			return runTUI(cmd, args)
		}
		return cmd.Help()
	},
}

// Global flags
var (
	flagConfig   string
	flagColor    string
	flagNoCache  bool
	flagJSON     bool
	flagRawJSON  bool
	flagLogLevel string
)

// Departures flags
var (
	flagDate      string
	flagTime      string
	flagLimit     int
	flagTypes     []string
	flagLine      string
	flagDirection string
	flagWatch     bool
)

// Next flags
var flagWalkingTime int

// cfg is loaded once before any command runs
var cfg *config.Config

func init() {
	rootCmd.AddCommand(departuresCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default: config.yaml in ., $XDG_CONFIG_HOME/efa, ~/.config/efa)")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Disable response caching")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagRawJSON, "raw-json", false, "Output raw API response")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	// Departures-specific flags
	departuresCmd.Flags().StringVarP(&flagDate, "date", "d", "", "Date (DD.MM.YYYY or YYYY-MM-DD)")
	departuresCmd.Flags().StringVarP(&flagTime, "time", "t", "", "Time (HH:MM)")
	departuresCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "Maximum number of departures (server default when 0)")
	departuresCmd.Flags().StringSliceVarP(&flagTypes, "types", "m", nil, "Filter by transport types (suburban,subway,tram,bus,ferry,express,regional)")
	departuresCmd.Flags().StringVarP(&flagLine, "line", "l", "", "Filter by line (exact match)")
	departuresCmd.Flags().StringVar(&flagDirection, "direction", "", "Filter by direction (substring match)")
	departuresCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch mode: refresh every scan_interval")

	// Next-specific flags
	nextCmd.Flags().IntVar(&flagWalkingTime, "walking-time", -1, "Minutes needed to reach the stop (default from config, else 1)")
}

// setup loads the configuration and installs the global logger
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	cfg = loaded

	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	return logging.Setup(os.Stderr, level, cfg.Log.Format)
}

// createClient creates an API client for the configured EFA installation.
// The returned func releases the cache backend.
func createClient(ctx context.Context, cached bool, extra ...api.ClientOption) (*api.Client, func(), error) {
	opts := []api.ClientOption{
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithTimeout(cfg.API.Timeout),
		api.WithUserAgent("efa-cli/" + version),
	}
	opts = append(opts, extra...)
	closer := func() {}

	if cached && !flagNoCache {
		switch cfg.Cache.Backend {
		case config.CacheFile:
			fc, err := cache.NewFileCache(cfg.Cache.Dir, cfg.Cache.TTL)
			if err != nil {
				log.Warn().Err(err).Str("dir", cfg.Cache.Dir).Msg("file cache unavailable")
				break
			}
			opts = append(opts, api.WithCache(fc))
		case config.CacheRedis:
			rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
				Addr:     cfg.Cache.RedisAddr,
				Password: cfg.Cache.RedisPassword,
				DB:       cfg.Cache.RedisDB,
				TTL:      cfg.Cache.TTL,
			})
			if err != nil {
				log.Warn().Err(err).Msg("redis cache unavailable")
				break
			}
			opts = append(opts, api.WithCache(rc))
			closer = func() { _ = rc.Close() }
		}
	}

	client, err := api.NewClient(opts...)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, closer, nil
}

// getColorMode returns the color mode based on flag
func getColorMode() output.ColorMode {
	return output.ParseColorMode(flagColor)
}

var departuresCmd = &cobra.Command{
	Use:   "departures <stop_id>",
	Short: "Show departures at a stop",
	Long: `Show upcoming departures at a stop, ordered by planned time.

The stop is given as an EFA stop id, e.g. de:09362:12009.
Use 'efa search <name>' to find stop ids.

Filtering:
  --line, -l <line>      Filter by line (exact match, e.g. 1, RB51)
  --direction <dest>     Filter by direction (substring match)
  --types, -m <types>    Filter by transport types

Examples:
  efa departures de:09362:12009                    # All departures
  efa departures de:09362:12009 --types bus        # Only buses
  efa departures de:09362:12009 --line 1           # Only line 1
  efa departures de:09362:12009 --direction Klinikum
  efa departures de:09362:12009 -d 01.03.2024 -t 12:00
  efa departures de:09362:12009 --watch            # Refresh every scan_interval`,
	Args: cobra.ExactArgs(1),
	RunE: runDepartures,
}

var nextCmd = &cobra.Command{
	Use:   "next <stop_id|name>",
	Short: "Show the next reachable departure at a stop",
	Long: `Show the summary of the next departure that can still be reached
on foot, e.g. "Next 1 Wernerwerkstraße at 13:07".

A configured stop can be given by stop id or by name, in which case its
walking time and transport type switches apply.

Examples:
  efa next de:09362:12009
  efa next Hauptbahnhof --json
  efa next de:09362:12009 --walking-time 5`,
	Args: cobra.ExactArgs(1),
	RunE: runNext,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for stops by name",
	Long: `Search for stops by name.

Example:
  efa search "Regensburg Hbf"
  efa search Arnulfsplatz`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll configured stops and serve their state over HTTP",
	Long: `Poll every configured stop each scan_interval and serve the
sensor states over HTTP.

Routes:
  GET  /healthz
  GET  /api/states
  GET  /api/states/<entity_id>
  POST /api/update
  GET  /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive full-screen TUI",
	Long: `Launch an interactive full-screen terminal UI for searching
stops and browsing their departures. Configured stops are preloaded.

Keyboard:
  Tab            Cycle focus between panels
  j/k or arrows  Navigate lists
  Enter          Select / confirm
  Space          Toggle filter
  Esc            Go back
  /              Jump to search
  q              Quit`,
	RunE: runTUI,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the file response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached responses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := cache.NewFileCache(cfg.Cache.Dir, cfg.Cache.TTL)
		if err != nil {
			return err
		}
		if err := fc.Clear(); err != nil {
			return fmt.Errorf("clear cache %s: %w", fc.Dir(), err)
		}
		fmt.Printf("Cleared %s\n", fc.Dir())
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired cached responses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := cache.NewFileCache(cfg.Cache.Dir, cfg.Cache.TTL)
		if err != nil {
			return err
		}
		if err := fc.Cleanup(); err != nil {
			return fmt.Errorf("prune cache %s: %w", fc.Dir(), err)
		}
		fmt.Printf("Pruned %s\n", fc.Dir())
		return nil
	},
}

func runDepartures(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	stopID := args[0]

	types, err := parseTypes(flagTypes)
	if err != nil {
		return err
	}

	client, closeCache, err := createClient(ctx, !flagWatch)
	if err != nil {
		return err
	}
	defer closeCache()

	req := api.DepartureMonitorRequest{
		StopID: stopID,
		Limit:  flagLimit,
	}

	// Parse date/time if provided
	if flagDate != "" || flagTime != "" {
		req.DateTime, err = parseDateTime(flagDate, flagTime, time.Now().In(client.Timezone()))
		if err != nil {
			return err
		}
	}

	// Raw JSON output
	if flagRawJSON {
		raw, err := client.GetDepartureMonitorRaw(ctx, req)
		if err != nil {
			return err
		}
		return printPrettyJSON(os.Stdout, raw)
	}

	fetcher := departures.NewFetcher(client)
	load := func(ctx context.Context) (models.DepartureList, error) {
		list, err := fetcher.Load(ctx, req)
		if err != nil {
			return nil, err
		}
		return filterDepartures(list, flagLine, flagDirection, types), nil
	}

	// Watch mode
	if flagWatch {
		return runWatch(ctx, cfg.ScanInterval, func(ctx context.Context) error {
			list, err := load(ctx)
			if err != nil {
				return err
			}
			opts := output.TableOptions{
				Colors: output.NewColors(getColorMode()),
				Now:    time.Now(),
			}
			output.RenderHeader(os.Stdout, stopID, opts.Now, opts)
			output.RenderStopEvents(os.Stdout, list, opts)
			return nil
		})
	}

	list, err := load(ctx)
	if err != nil {
		return err
	}

	// JSON output
	if flagJSON {
		return printJSON(os.Stdout, list)
	}

	output.RenderStopEvents(os.Stdout, list, output.TableOptions{
		Colors:   output.NewColors(getColorMode()),
		ShowType: len(types) != 1,
		Now:      time.Now(),
	})
	return nil
}

func runNext(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sensorCfg := sensorFor(args[0])
	if flagWalkingTime >= 0 {
		sensorCfg.WalkingTime = time.Duration(flagWalkingTime) * time.Minute
	}

	client, closeCache, err := createClient(ctx, true)
	if err != nil {
		return err
	}
	defer closeCache()

	sensor := departures.NewSensor(sensorCfg, departures.NewFetcher(client))
	sensor.Update(ctx)

	if flagJSON {
		return printJSON(os.Stdout, map[string]any{
			"entity_id":  sensor.EntityID(),
			"state":      sensor.State(),
			"attributes": sensor.Attributes(),
		})
	}

	fmt.Println(sensor.State())
	return nil
}

// sensorFor returns the configured sensor matching a stop id or name, or a
// default sensor for an unconfigured stop id.
func sensorFor(stop string) departures.SensorConfig {
	for _, sc := range cfg.Sensors() {
		if sc.StopID == stop || strings.EqualFold(sc.Name, stop) {
			return sc
		}
	}
	return departures.SensorConfig{
		StopID:      stop,
		WalkingTime: departures.DefaultWalkingTime,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := args[0]

	client, closeCache, err := createClient(ctx, true)
	if err != nil {
		return err
	}
	defer closeCache()

	// Raw JSON output
	if flagRawJSON {
		raw, err := client.SearchStopsRaw(ctx, query)
		if err != nil {
			return err
		}
		return printPrettyJSON(os.Stdout, raw)
	}

	locations, err := client.SearchStops(ctx, query)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, locations)
	}

	output.RenderLocations(os.Stdout, locations, output.TableOptions{
		Colors: output.NewColors(getColorMode()),
	})
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	if len(cfg.Departures) == 0 {
		return errors.New("no departures configured, add at least one stop under 'departures' in the config file")
	}

	ctx, stop := output.SignalContext(cmd.Context())
	defer stop()

	// Polling never uses the response cache
	client, _, err := createClient(ctx, false)
	if err != nil {
		return err
	}
	fetcher := departures.NewFetcher(client)

	sensors := make([]*departures.Sensor, 0, len(cfg.Departures))
	for _, sc := range cfg.Sensors() {
		sensors = append(sensors, departures.NewSensor(sc, fetcher))
	}
	poller := departures.NewPoller(sensors, cfg.ScanInterval)
	srv := server.New(poller)

	go poller.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Log lines would corrupt the alternate screen
	quiet := zerolog.Nop()

	client, closeCache, err := createClient(cmd.Context(), false, api.WithLogger(quiet))
	if err != nil {
		return err
	}
	defer closeCache()

	fetcher := departures.NewFetcher(client, departures.WithFetcherLogger(quiet))

	stops := make([]models.Location, 0, len(cfg.Departures))
	for _, stop := range cfg.Departures {
		stops = append(stops, models.Location{ID: stop.StopID, Name: stop.Name, Type: "stop"})
	}

	opts := []tui.Option{tui.WithStops(stops)}
	if flagLimit > 0 {
		opts = append(opts, tui.WithLimit(flagLimit))
	}

	p := tea.NewProgram(tui.New(client, fetcher, opts...), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// runWatch runs a continuous refresh loop for watch mode
func runWatch(ctx context.Context, interval time.Duration, fetchAndRender func(context.Context) error) error {
	ctx, stop := output.SignalContext(ctx)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Hide cursor during watch mode
	output.HideCursor(os.Stdout)
	defer output.ShowCursor(os.Stdout)

	for {
		output.ClearScreen(os.Stdout)
		fmt.Printf("Next refresh in %s | Press Ctrl+C to exit\n", interval)

		if err := fetchAndRender(ctx); err != nil && ctx.Err() == nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			output.ClearScreen(os.Stdout)
			fmt.Println("Watch mode ended.")
			return nil
		}
	}
}

// filterDepartures keeps departures matching line (exact, case-insensitive),
// direction (substring, case-insensitive) and types. Empty filters match
// everything.
func filterDepartures(list models.DepartureList, line, direction string, types map[models.TransportType]bool) models.DepartureList {
	if line == "" && direction == "" && len(types) == 0 {
		return list
	}

	direction = strings.ToLower(direction)
	filtered := make(models.DepartureList, 0, len(list))
	for _, event := range list {
		if line != "" && !strings.EqualFold(event.TransportationLine, line) {
			continue
		}
		if direction != "" && !strings.Contains(strings.ToLower(event.Direction), direction) {
			continue
		}
		if len(types) > 0 && !types[event.TransportType] {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered
}

// parseTypes parses --types values into a set
func parseTypes(values []string) (map[models.TransportType]bool, error) {
	if len(values) == 0 {
		return nil, nil
	}

	types := make(map[models.TransportType]bool, len(values))
	for _, v := range values {
		tt, ok := models.ParseTransportType(strings.ToLower(strings.TrimSpace(v)))
		if !ok {
			names := make([]string, 0, len(models.TransportTypes))
			for _, t := range models.TransportTypes {
				names = append(names, string(t))
			}
			return nil, api.ErrInvalidFormat("types", "one of "+strings.Join(names, ", "))
		}
		types[tt] = true
	}
	return types, nil
}

var dateLayouts = []string{"2006-01-02", "2.1.2006", "2.1.06"}

var timeLayouts = []string{"15:04", "15.04", "1504"}

// parseDateTime combines date and time flags with now for the parts that are
// left empty. A date without year ("01.03.") uses the current year.
func parseDateTime(dateStr, timeStr string, now time.Time) (time.Time, error) {
	loc := now.Location()
	year, month, day := now.Date()
	hour, minute := now.Hour(), now.Minute()

	if dateStr != "" {
		d, err := parseWithLayouts(dateStr, dateLayouts, loc)
		if err != nil {
			d, err = parseWithLayouts(strings.TrimSuffix(dateStr, ".")+"."+fmt.Sprint(year), []string{"2.1.2006"}, loc)
		}
		if err != nil {
			return time.Time{}, api.ErrInvalidFormat("date", "DD.MM.YYYY or YYYY-MM-DD")
		}
		year, month, day = d.Date()
	}

	if timeStr != "" {
		t, err := parseWithLayouts(timeStr, timeLayouts, loc)
		if err != nil {
			return time.Time{}, api.ErrInvalidFormat("time", "HH:MM")
		}
		hour, minute = t.Hour(), t.Minute()
	}

	return time.Date(year, month, day, hour, minute, 0, 0, loc), nil
}

func parseWithLayouts(s string, layouts []string, loc *time.Location) (time.Time, error) {
	var lastErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, strings.TrimSpace(s), loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPrettyJSON(w io.Writer, data []byte) error {
	var pretty any
	if err := json.Unmarshal(data, &pretty); err != nil {
		// If we can't parse it, just print raw
		_, _ = fmt.Fprintln(w, string(data))
		return err
	}
	return printJSON(w, pretty)
}
