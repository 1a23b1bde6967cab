package config

// Moltfile represents the structure of the molt.yaml configuration file.
type Moltfile struct {
	Version string                `yaml:"version"`
	Entry   string                `yaml:"entry"`
	Root    string                `yaml:"root"`
	Watch   *WatchDTO             `yaml:"watch"`
	Modules map[string]*ModuleDTO `yaml:"modules"`
}

// WatchDTO represents the watch section of the configuration.
type WatchDTO struct {
	Debounce   string   `yaml:"debounce"`
	Extensions []string `yaml:"extensions"`
	Ignore     []string `yaml:"ignore"`
}

// ModuleDTO represents a module declaration in the configuration.
type ModuleDTO struct {
	Kind      string   `yaml:"kind"`
	Files     []string `yaml:"files"`
	DependsOn []string `yaml:"dependsOn"`
}
