package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/jsgraph/app"
	"github.com/ludo-technologies/jsgraph/internal/config"
	"github.com/ludo-technologies/jsgraph/internal/constants"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

type initOptions struct {
	force       bool
	minimal     bool
	noComments  bool
	interactive bool
	projectType string
	storage     string
}

// initChoices are the answers of the setup wizard
type initChoices struct {
	projectType config.ProjectType
	backend     string
	path        string
}

func initCmd(opts *globalOptions) *cobra.Command {
	o := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a jsgraph configuration file",
		Long: `Generate a documented jsgraph configuration file with sensible defaults.

By default, creates jsgraph.yaml in the current directory. The --config flag
chooses another path. Use --interactive for a guided setup wizard.

Examples:
  # Create jsgraph.yaml in current directory
  jsgraph init

  # Next.js project with a persistent graph database
  jsgraph init --project next --storage persistent

  # Generate smaller config with essential options only
  jsgraph init --minimal

  # Interactive setup wizard
  jsgraph init -i`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts, o)
		},
	}

	cmd.Flags().BoolVar(&o.force, "force", false, "Overwrite existing config file")
	cmd.Flags().BoolVar(&o.minimal, "minimal", false, "Generate minimal config with essential options only")
	cmd.Flags().BoolVar(&o.noComments, "no-comments", false, "Write the effective configuration without documentation")
	cmd.Flags().BoolVarP(&o.interactive, "interactive", "i", false, "Interactive setup wizard")
	cmd.Flags().StringVar(&o.projectType, "project", string(config.ProjectTypeGeneric),
		"Project type: generic, react, next, vue, svelte, node")

	return cmd
}

func runInit(cmd *cobra.Command, opts *globalOptions, o *initOptions) error {
	choices := initChoices{
		projectType: config.ProjectType(o.projectType),
		backend:     config.DefaultStorageBackend,
		path:        opts.configFile,
	}
	if choices.path == "" {
		choices.path = constants.ConfigFileName
	}
	if cmd.Flags().Changed("storage") {
		choices.backend = opts.storage
	}
	if _, ok := config.GetProjectPresets()[choices.projectType]; !ok {
		return fmt.Errorf("unknown project type '%s'", o.projectType)
	}
	if choices.backend != "memory" && choices.backend != "persistent" {
		return fmt.Errorf("invalid storage backend '%s', must be one of: memory, persistent", choices.backend)
	}

	out := cmd.OutOrStdout()
	if o.interactive {
		var err error
		choices, err = runInteractiveSetup(out, choices)
		if err != nil {
			return err
		}
	}

	files := app.NewFileHelper()
	if !o.force {
		if exists, err := files.FileExists(choices.path); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("%s already exists. Use --force to overwrite", choices.path)
		}
	}

	dir := filepath.Dir(choices.path)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	switch {
	case o.noComments:
		if err := config.SaveConfig(config.ConfigForProject(choices.projectType, choices.backend), choices.path); err != nil {
			return err
		}
	default:
		content := config.GetConfigTemplate(choices.projectType, choices.backend)
		if o.minimal {
			content = config.GetMinimalConfigTemplate()
		}
		if err := os.WriteFile(choices.path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	displayPath := choices.path
	if absPath, err := filepath.Abs(choices.path); err == nil {
		displayPath = absPath
	}
	fmt.Fprintf(out, "Created %s\n", displayPath)
	fmt.Fprintln(out, "\nRun 'jsgraph analyze .' to analyze your project.")

	return nil
}

func runInteractiveSetup(out io.Writer, defaults initChoices) (initChoices, error) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "jsgraph Configuration Setup")
	fmt.Fprintln(out, "===========================")
	fmt.Fprintln(out)

	projectTypes := []struct {
		Label string
		Value config.ProjectType
	}{
		{"Generic JavaScript/TypeScript", config.ProjectTypeGeneric},
		{"React", config.ProjectTypeReact},
		{"Next.js", config.ProjectTypeNext},
		{"Vue/Nuxt", config.ProjectTypeVue},
		{"Svelte/SvelteKit", config.ProjectTypeSvelte},
		{"Node.js Backend", config.ProjectTypeNodeBackend},
	}

	projectPrompt := promptui.Select{
		Label: "What type of project is this?",
		Items: projectTypes,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }}",
			Inactive: "   {{ .Label | white }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
	}

	projectIdx, _, err := projectPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("project selection cancelled: %w", err)
	}

	fmt.Fprintln(out)

	backends := []struct {
		Label       string
		Description string
		Value       string
	}{
		{"Memory (recommended)", "Build the graph in memory on every run", "memory"},
		{"Persistent", "Keep the graph in " + constants.DefaultDatabasePath, "persistent"},
	}

	backendPrompt := promptui.Select{
		Label: "Where should the module graph be stored?",
		Items: backends,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
			Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
	}

	backendIdx, _, err := backendPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("storage selection cancelled: %w", err)
	}

	fmt.Fprintln(out)

	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaults.path,
	}

	outputPath, err := outputPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("output path input cancelled: %w", err)
	}
	if outputPath == "" {
		outputPath = defaults.path
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Creating %s... ", outputPath)

	return initChoices{
		projectType: projectTypes[projectIdx].Value,
		backend:     backends[backendIdx].Value,
		path:        outputPath,
	}, nil
}
