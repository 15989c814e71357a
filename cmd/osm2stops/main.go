package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/LdDl/osm2stops"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type ctxKey int

const loggerKey ctxKey = 0

func loggerFromContext(ctx context.Context) *charmlog.Logger {
	if l, ok := ctx.Value(loggerKey).(*charmlog.Logger); ok {
		return l
	}
	return charmlog.Default()
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "osm2stops",
		Short:        "Splice bus stops into road network graph",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := osm2stops.NewLogger(os.Stderr, level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey, logger))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.AddCommand(newInsertCmd())
	root.AddCommand(newCheckCmd())
	return root
}

func newInsertCmd() *cobra.Command {
	var (
		configFile  string
		graphFile   string
		stopsFile   string
		stopIDProp  string
		stopIDTag   string
		tagStr      string
		out         string
		format      string
		projection  string
		splice      bool
		keepShape   bool
		noPruning   bool
		maxDistance float64
		checkRoute  bool
	)
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert stops into the graph and export results",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			cfg := osm2stops.DefaultConfig()
			if configFile != "" {
				loaded, err := osm2stops.LoadConfig(configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			flags := cmd.Flags()
			if flags.Changed("file") || configFile == "" {
				cfg.Input.Graph = graphFile
			}
			if flags.Changed("stops") {
				cfg.Input.Stops = stopsFile
			}
			if flags.Changed("stop-id-property") {
				cfg.Input.StopIDProperty = stopIDProp
			}
			if flags.Changed("stop-id-tag") {
				cfg.Input.StopIDTag = stopIDTag
			}
			if flags.Changed("tags") {
				cfg.Input.Tags = strings.Split(tagStr, ",")
			}
			if flags.Changed("out") {
				cfg.Output.Prefix = out
			}
			if flags.Changed("format") {
				cfg.Output.Format = format
			}
			if flags.Changed("projection") {
				cfg.Projection = osm2stops.Projection(projection)
			}
			if flags.Changed("splice") {
				cfg.Insert.Splice = splice
			}
			if flags.Changed("keep-shape") {
				cfg.Insert.KeepShape = keepShape
			}
			if flags.Changed("no-pruning") {
				cfg.Insert.BoundPruning = !noPruning
			}
			if flags.Changed("max-distance") {
				cfg.Insert.MaxDistance = maxDistance
			}
			if flags.Changed("route") {
				cfg.CheckRoute = checkRoute
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			summary, err := osm2stops.Run(cfg, logger)
			if err != nil {
				logger.Error("Can't process stops", "err", err)
				return err
			}
			fmt.Println(summary.Connectivity)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "YAML configuration file (flags override its values)")
	flags.StringVar(&graphFile, "file", "my_graph.osm.pbf", "Graph file: *.osm, *.xml, *.osm.pbf or *.geojson")
	flags.StringVar(&stopsFile, "stops", "", "GeoJSON file with stops (Point features). Bus stops of OSM file are used when empty")
	flags.StringVar(&stopIDProp, "stop-id-property", "id", "Property of stop features holding identifier")
	flags.StringVar(&stopIDTag, "stop-id-tag", "", "OSM tag of bus stops holding identifier (e.g. 'ref')")
	flags.StringVar(&tagStr, "tags", strings.Join(osm2stops.DefaultDriveTags, ","), "Set of needed `highway` values (separated by commas)")
	flags.StringVar(&out, "out", "out", "Prefix of output files")
	flags.StringVar(&format, "format", "geojson", "Format of output files. Expected values: geojson / csv")
	flags.StringVar(&projection, "projection", string(osm2stops.PROJECTION_EPSG3857), "Planar projection for processing. Expected values: epsg3857 / none")
	flags.BoolVar(&splice, "splice", true, "Split nearest edges (false: snap stops only)")
	flags.BoolVar(&keepShape, "keep-shape", false, "Keep original polyline shape of split edges")
	flags.BoolVar(&noPruning, "no-pruning", false, "Disable bounding box pruning of nearest edge search")
	flags.Float64Var(&maxDistance, "max-distance", 0, "Skip stops farther than this distance from any edge (0: no cutoff)")
	flags.BoolVar(&checkRoute, "route", false, "Check that consecutive stops are reachable")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		graphFile string
		stopsFile string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check connectivity of exported graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			data, err := os.ReadFile(graphFile)
			if err != nil {
				return err
			}
			graph, err := osm2stops.ImportGraphGeoJSON(data, osm2stops.PROJECTION_NONE)
			if err != nil {
				return err
			}
			var results []osm2stops.InsertionResult
			if stopsFile != "" {
				data, err = os.ReadFile(stopsFile)
				if err != nil {
					return err
				}
				results, err = osm2stops.ImportResultsGeoJSON(data, osm2stops.PROJECTION_NONE)
				if err != nil {
					return err
				}
			}
			report := osm2stops.CheckConnectivity(graph, results)
			report.Log(logger)
			fmt.Println(report)
			return nil
		},
	}
	cmd.Flags().StringVar(&graphFile, "graph", "out_edges.geojson", "GeoJSON graph file")
	cmd.Flags().StringVar(&stopsFile, "stops", "", "GeoJSON stops file produced by 'insert'")
	return cmd
}
