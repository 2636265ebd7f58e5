package types

// PlanEntry is one app of a resolved install plan. Dependencies holds the
// BucketApp keys of its direct dependencies.
type PlanEntry struct {
	App          BucketApp
	Manifest     Manifest
	Dependencies []string
}

type PlanFile struct {
	Architecture Architecture    `yaml:"architecture"`
	Entries      []PlanFileEntry `yaml:"entries"`
}

type PlanFileEntry struct {
	Name      string   `yaml:"name"`
	Bucket    string   `yaml:"bucket"`
	Version   string   `yaml:"version"`
	DependsOn []string `yaml:"depends_on,omitempty"`
	URLs      []string `yaml:"urls,omitempty"`
}
