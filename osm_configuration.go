package osm2stops

// OsmConfiguration allows to filter ways by certain tags from OSM data
type OsmConfiguration struct {
	EntityName string // Currrently we support 'highway' only
	Tags       []string
	// Tag of bus stop node which should be used as its identifier. Sequential number is used when empty or missing
	StopIDTag  string
	Projection Projection
}

var (
	// DefaultDriveTags is set of `highway` values for drivable network
	DefaultDriveTags = []string{
		"motorway", "motorway_link",
		"trunk", "trunk_link",
		"primary", "primary_link",
		"secondary", "secondary_link",
		"tertiary", "tertiary_link",
		"residential", "living_street", "unclassified", "road",
	}
	// onewayDefaultByHighway holds `highway` values which are oneway when `oneway` tag is missing
	onewayDefaultByHighway = map[string]struct{}{
		"motorway": {},
	}
	// junctionTypes holds `junction` values which imply oneway
	junctionTypes = map[string]struct{}{
		"roundabout": {},
		"circular":   {},
	}
)

// DefaultOsmConfiguration returns configuration for drivable network in Web Mercator
func DefaultOsmConfiguration() *OsmConfiguration {
	tags := make([]string, len(DefaultDriveTags))
	copy(tags, DefaultDriveTags)
	return &OsmConfiguration{
		EntityName: "highway",
		Tags:       tags,
		Projection: PROJECTION_EPSG3857,
	}
}

// CheckTag checks if incoming tag is represented in configuration
func (cfg *OsmConfiguration) CheckTag(tag string) bool {
	for i := range cfg.Tags {
		if cfg.Tags[i] == tag {
			return true
		}
	}
	return false
}
