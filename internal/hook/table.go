package hook

import "sort"

// ConfigReader is the slice of the config store the hook table reads.
type ConfigReader interface {
	GetStringSlice(path string) []string
}

// PluginLister reports installed, non-ignored plugin names.
type PluginLister interface {
	Installed() []string
}

// Table resolves the hook snippets configured for a path and stage.
type Table struct {
	Config  ConfigReader
	Plugins PluginLister
}

// Commands returns the user's hooks for path and stage followed by each
// installed plugin's hooks, plugins in name order.
func (t *Table) Commands(path string, stage Stage) []string {
	if t == nil || t.Config == nil {
		return nil
	}
	suffix := path + "." + string(stage)
	cmds := append([]string(nil), t.Config.GetStringSlice("hooks."+suffix)...)

	if t.Plugins == nil {
		return cmds
	}
	names := append([]string(nil), t.Plugins.Installed()...)
	sort.Strings(names)
	for _, name := range names {
		cmds = append(cmds, t.Config.GetStringSlice("plugins."+name+".hooks."+suffix)...)
	}
	return cmds
}
