package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScriptOptions describes how script files are turned into tasks
type ScriptOptions struct {
	Dir         string
	Extension   string   // e.g. ".ts"
	Interpreter string   // e.g. "deno"
	Args        []string // e.g. ["run", "-A"], script path appended last
	LogLimit    int
}

// scriptIDPrefix keeps synthesized ids out of the declared namespace
const scriptIDPrefix = "script_"

// LoadFile parses a task document. JSON and YAML are accepted, chosen by
// file extension. A missing or unparseable document yields an empty set
// together with the error, so script discovery can still populate the
// supervisor.
func LoadFile(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var descs []Descriptor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &descs)
	default:
		err = json.Unmarshal(data, &descs)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	for i := range descs {
		policy, perr := ParseRestartPolicy(string(descs[i].RestartPolicy))
		if perr != nil {
			return nil, fmt.Errorf("task %s: %w", descs[i].ID, perr)
		}
		descs[i].RestartPolicy = policy
	}
	return descs, nil
}

// ScanScripts builds one synthetic descriptor per matching file in the
// scripts directory. The scan is non-recursive and ordered by file name.
func ScanScripts(opts ScriptOptions) ([]Descriptor, error) {
	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		return nil, err
	}

	var descs []Descriptor
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), opts.Extension) {
			continue
		}
		descs = append(descs, scriptDescriptor(entry.Name(), opts))
	}

	sort.Slice(descs, func(i, j int) bool { return descs[i].ID < descs[j].ID })
	return descs, nil
}

func scriptDescriptor(fileName string, opts ScriptOptions) Descriptor {
	stem := strings.TrimSuffix(fileName, opts.Extension)
	args := make([]string, 0, len(opts.Args)+1)
	args = append(args, opts.Args...)
	args = append(args, filepath.Join(opts.Dir, fileName))

	return Descriptor{
		ID:            scriptIDPrefix + stem,
		Name:          stem,
		Command:       opts.Interpreter,
		Args:          args,
		Cwd:           opts.Dir,
		Autostart:     false,
		Group:         "Scripts",
		LogLimit:      opts.LogLimit,
		RestartPolicy: RestartNever,
	}
}

// LoadResult is the outcome of assembling the full task set
type LoadResult struct {
	Tasks    []Descriptor
	Warnings []string
}

// Load combines the declared task document with the scripts directory.
// Duplicate ids are skipped, first registration wins; each skip is
// reported as a warning rather than an error.
func Load(tasksPath string, scripts ScriptOptions) LoadResult {
	var res LoadResult

	declared, err := LoadFile(tasksPath)
	if err != nil && !os.IsNotExist(err) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("task document: %v", err))
	}

	seen := make(map[string]bool)
	add := func(d Descriptor) {
		if err := d.Validate(); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			return
		}
		if seen[d.ID] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("duplicate task id %q skipped", d.ID))
			return
		}
		seen[d.ID] = true
		res.Tasks = append(res.Tasks, d)
	}

	for _, d := range declared {
		add(d)
	}

	if scripts.Dir != "" {
		found, err := ScanScripts(scripts)
		if err != nil && !os.IsNotExist(err) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("scripts dir: %v", err))
		}
		for _, d := range found {
			add(d)
		}
	}

	return res
}
