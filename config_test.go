package osm2stops

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "conf.yaml")
	if err := os.WriteFile(fname, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return fname
}

func TestLoadConfig(t *testing.T) {
	fname := writeConfig(t, `
input:
  graph: city.osm.pbf
  stop_id_tag: ref
  tags: [primary, secondary]
output:
  prefix: result
  format: csv
insert:
  keep_shape: true
  max_distance: 50
projection: none
check_route: true
`)
	cfg, err := LoadConfig(fname)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Input.Graph != "city.osm.pbf" || cfg.Output.Format != "csv" || cfg.Output.Prefix != "result" {
		t.Errorf("Wrong config values: %+v", cfg)
	}
	// Defaults survive for missing keys
	if !cfg.Insert.Splice || !cfg.Insert.BoundPruning {
		t.Errorf("Splice and bound pruning should stay enabled by default")
	}
	if cfg.Input.StopIDProperty != "id" {
		t.Errorf("Default stop identifier property should be 'id', but got '%s'", cfg.Input.StopIDProperty)
	}
	if !cfg.CheckRoute || !cfg.Insert.KeepShape || cfg.Insert.MaxDistance != 50 {
		t.Errorf("Wrong insert values: %+v", cfg.Insert)
	}
	osmCfg := cfg.OsmConfiguration()
	if osmCfg.Projection != PROJECTION_NONE || osmCfg.StopIDTag != "ref" || !osmCfg.CheckTag("secondary") || osmCfg.CheckTag("residential") {
		t.Errorf("Wrong OSM configuration: %+v", osmCfg)
	}
	inserter := NewInserter(cfg.InserterOptions()...)
	if !inserter.keepShape || inserter.maxDistance != 50 {
		t.Errorf("Inserter options should follow config: %s", inserter)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	cases := []string{
		"input:\n  graph: city.osm\noutput:\n  format: shp\n",
		"output:\n  prefix: result\n",
		"input:\n  graph: city.osm\nprojection: epsg4326\n",
		"input:\n  graph: city.osm\ninsert:\n  max_distance: -1\n",
	}
	for i, content := range cases {
		if _, err := LoadConfig(writeConfig(t, content)); err == nil {
			t.Errorf("Config #%d should be rejected", i)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Errorf("Missing file should cause an error")
	}
}
