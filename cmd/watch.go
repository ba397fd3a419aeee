package cmd

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"chatmark/internal/config"
	"chatmark/internal/node"
	"chatmark/internal/pipeline"
	"chatmark/internal/render/term"
	"chatmark/internal/schedule"
)

var flagWatchSources string

func init() {
	watchCmd.Flags().StringVar(&flagWatchSources, "sources", "", "YAML file with citation sources")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-render a file live as it grows",
	Long: `watch renders a markdown file and re-renders it whenever it changes,
through the same debounced scheduler a streaming chat view uses. Append
to the file (e.g. from a model run) and the view updates without
flicker or a render per token.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		sources, err := loadSources(flagWatchSources)
		if err != nil {
			return err
		}
		if !cfg.Citations.Enabled {
			sources = nil
		}
		return runWatch(args[0], cfg, sources)
	},
}

type renderedMsg string

type watchModel struct {
	view string
}

func (m watchModel) Init() tea.Cmd { return nil }

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case renderedMsg:
		m.view = string(msg)
	}
	return m, nil
}

func (m watchModel) View() string {
	return m.view + "\n\n  q to quit\n"
}

// paintFunc renders one content snapshot through the pipeline and the
// painter, picking the fast path when available.
func paintFunc(pipe *pipeline.Pipeline, renderer *term.Renderer, sources []node.Source) func(string) string {
	return func(content string) string {
		res := pipe.Run(content, sources)
		if res.RawHTML {
			return renderer.RenderHTML(res.HTML)
		}
		return renderer.Render(res.Nodes)
	}
}

// initialView paints the file's current content for the first frame.
// Missing files paint empty and fill in on the first watch event.
func initialView(paint func(string) string, path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return paint(string(content))
}

func runWatch(path string, cfg *config.Config, sources []node.Source) error {
	width := outputWidth(cfg)
	renderer := newRenderer(cfg, width)
	pipe := pipeline.New(termMath, pipeline.WithCitations(cfg.Citations.Enabled))
	paint := paintFunc(pipe, renderer, sources)

	// prog.Send blocks until Run's event loop is receiving, so the
	// first paint is seeded into the model, never scheduled.
	prog := tea.NewProgram(watchModel{view: initialView(paint, path)}, tea.WithAltScreen())

	sched := schedule.New(time.Duration(cfg.Render.DebounceMS)*time.Millisecond, func(content string) {
		prog.Send(renderedMsg(paint(content)))
	})
	defer sched.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				content, err := os.ReadFile(path)
				if err != nil {
					continue
				}
				sched.Schedule(string(content), true)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("watch ui: %w", err)
	}
	return nil
}
