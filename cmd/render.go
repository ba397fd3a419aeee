package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"chatmark/internal/config"
	"chatmark/internal/node"
	"chatmark/internal/pipeline"
	"chatmark/internal/render/term"
)

var (
	flagSources string
	flagCited   bool
	flagHTML    bool
)

func init() {
	renderCmd.Flags().StringVar(&flagSources, "sources", "", "YAML file with citation sources")
	renderCmd.Flags().BoolVar(&flagCited, "cited", false, "List the sources actually cited")
	renderCmd.Flags().BoolVar(&flagHTML, "html", false, "Print compiled HTML instead of painting")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a markdown file (or stdin) once",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readInput(args)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		sources, err := loadSources(flagSources)
		if err != nil {
			return err
		}
		if !cfg.Citations.Enabled {
			sources = nil
		}

		p := pipeline.New(termMath, pipeline.WithCitations(cfg.Citations.Enabled))
		res := p.Run(content, sources)

		width := outputWidth(cfg)
		renderer := newRenderer(cfg, width)

		switch {
		case flagHTML:
			if res.RawHTML {
				fmt.Println(res.HTML)
			} else {
				fmt.Fprintln(os.Stderr, "content has special blocks; no raw HTML fast path")
			}
		case res.RawHTML:
			fmt.Println(renderer.RenderHTML(res.HTML))
		default:
			fmt.Println(renderer.Render(res.Nodes))
		}

		if flagCited {
			printCited(pipeline.CitedSources(content, sources))
		}
		return nil
	},
}

// termMath is the CLI's math collaborator: terminals have no real
// typesetting, so markup is the expression itself and the painter
// styles it.
func termMath(expr string, display bool) (string, error) {
	return expr, nil
}

func readInput(args []string) (string, error) {
	if len(args) == 1 {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// sourceSpec mirrors node.Source for the YAML sources file.
type sourceSpec struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Path string `yaml:"path"`
}

func loadSources(path string) ([]node.Source, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var specs []sourceSpec
	if err := yaml.Unmarshal(b, &specs); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}
	out := make([]node.Source, len(specs))
	for i, s := range specs {
		out[i] = node.Source{
			ID:           s.ID,
			Type:         s.Type,
			Name:         s.Name,
			ExternalURL:  s.URL,
			InternalPath: s.Path,
		}
	}
	return out, nil
}

func printCited(cited []node.Source) {
	if len(cited) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, s := range cited {
		line := fmt.Sprintf("  [%d] %s", s.RefNumber, s.Name)
		if s.ExternalURL != "" {
			line += " (" + s.ExternalURL + ")"
		}
		fmt.Println(line)
	}
}

func outputWidth(cfg *config.Config) int {
	if flagWidth > 0 {
		return flagWidth
	}
	if cfg.Render.Width > 0 {
		return cfg.Render.Width
	}
	return 80
}

func newRenderer(cfg *config.Config, width int) *term.Renderer {
	r := term.NewRenderer(width)
	r.Cache = term.NewRenderCache(cfg.Render.CacheSize)
	r.Theme.Override(cfg.Theme.Primary, cfg.Theme.Secondary, cfg.Theme.Muted, cfg.Theme.Text, cfg.Theme.Warning)
	return r
}
