// Command notebooklm is a CLI for the NotebookLM backend: notebook and
// source management, grounded queries, research and studio generation.
//
// Every command prints one JSON envelope with a status of success, error
// or timeout, so output is scriptable regardless of outcome.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/api"
	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/auth"
	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/browser"
	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/config"
)

// errCommandFailed signals a non-success envelope already printed; main
// only converts it to a non-zero exit code.
var errCommandFailed = errors.New("command failed")

// interactiveLoginWait bounds the visible-Chrome login flow.
const interactiveLoginWait = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		if errors.Is(err, errCommandFailed) {
			os.Exit(1)
		}
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	// A .env next to the binary is a convenience, not a requirement.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.SetOutput(os.Stderr)

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return nil
	}

	ctx := context.Background()
	command, args := args[0], args[1:]

	switch command {
	case "help", "--help", "-h":
		printUsage()
		return nil
	case "version", "--version", "-v":
		fmt.Println("notebooklm v1.0.0")
		return nil
	case "auth":
		return authCommand(ctx, cfg)
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	switch command {
	case "list":
		return emit(func() (any, error) { return client.ListNotebooks(ctx) })
	case "create":
		return createCommand(ctx, client, args)
	case "rename":
		return renameCommand(ctx, client, args)
	case "delete":
		return deleteCommand(ctx, client, args)
	case "summary":
		return summaryCommand(ctx, client, args)
	case "configure-chat":
		return configureChatCommand(ctx, client, args)
	case "sources":
		return sourcesCommand(ctx, client, args)
	case "add-url":
		return addURLCommand(ctx, client, args)
	case "add-text":
		return addTextCommand(ctx, client, args)
	case "add-drive":
		return addDriveCommand(ctx, client, args)
	case "sync-source":
		return syncSourceCommand(ctx, client, args)
	case "delete-source":
		return deleteSourceCommand(ctx, client, args)
	case "source-guide":
		return sourceGuideCommand(ctx, client, args)
	case "source-text":
		return sourceTextCommand(ctx, client, args)
	case "query":
		return queryCommand(ctx, client, cfg, args)
	case "clear-history":
		return clearHistoryCommand(client, args)
	case "research":
		return researchCommand(ctx, client, args)
	case "research-import":
		return researchImportCommand(ctx, client, args)
	case "studio":
		return studioCommand(ctx, client, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// newClient builds the API client from cached credentials; without a
// cache the user has to run auth first.
func newClient(cfg *config.Config) (*api.Client, error) {
	bundle, ok, err := auth.LoadCache(cfg.Home)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential cache: %w", err)
	}
	if !ok {
		return nil, errors.New("no saved credentials; run `notebooklm auth` first")
	}

	store := auth.NewStore(cfg.Home, cfg.BaseURL, cfg.BuildLabel, bundle)
	session := browser.New(cfg.Home, browser.DefaultHeadlessPort)
	return api.New(store,
		api.WithBaseURL(cfg.BaseURL),
		api.WithRelogin(session.Relogin),
	)
}

// emit runs op and prints the uniform result envelope. Non-success
// envelopes map to a non-zero exit code.
func emit(op func() (any, error)) error {
	data, err := op()

	result := api.Success(data)
	if err != nil {
		result = api.Failure(err)
	}
	out, merr := json.MarshalIndent(result, "", "  ")
	if merr != nil {
		return merr
	}
	fmt.Println(string(out))

	if err != nil {
		return errCommandFailed
	}
	return nil
}

// newFlagSet builds a subcommand flag set that reports errors through the
// envelope path instead of printing its own usage noise.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func authCommand(ctx context.Context, cfg *config.Config) error {
	session := browser.New(cfg.Home, browser.DefaultInteractivePort)
	return emit(func() (any, error) {
		bundle, err := session.Login(ctx, interactiveLoginWait)
		if err != nil {
			return nil, err
		}
		if err := auth.SaveCache(cfg.Home, bundle); err != nil {
			return nil, fmt.Errorf("saving credentials: %w", err)
		}

		// Derive the CSRF token now so the first real command does not
		// have to.
		store := auth.NewStore(cfg.Home, cfg.BaseURL, cfg.BuildLabel, bundle)
		if bundle.CSRFToken == "" {
			if err := store.Refresh(ctx); err != nil {
				log.Warnf("logged in, but token derivation failed: %v", err)
			}
		}
		return map[string]any{"message": "authenticated", "cache": auth.CachePath(cfg.Home)}, nil
	})
}

func createCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("create")
	title := fs.String("title", "", "notebook title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return emit(func() (any, error) { return client.CreateNotebook(ctx, *title) })
}

func renameCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("rename")
	id := fs.String("id", "", "notebook id")
	title := fs.String("title", "", "new title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *title == "" {
		return errors.New("rename requires -id and -title")
	}
	return emit(func() (any, error) {
		return map[string]string{"id": *id, "title": *title},
			client.RenameNotebook(ctx, *id, *title)
	})
}

func deleteCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("delete")
	id := fs.String("id", "", "notebook id")
	force := fs.Bool("force", false, "delete without confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("delete requires -id")
	}
	if !*force {
		return errors.New("deletion is irreversible; re-run with -force to confirm")
	}
	return emit(func() (any, error) {
		return map[string]string{"deleted": *id}, client.DeleteNotebook(ctx, *id)
	})
}

func summaryCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("summary")
	id := fs.String("id", "", "notebook id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("summary requires -id")
	}
	return emit(func() (any, error) { return client.NotebookSummary(ctx, *id) })
}

func configureChatCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("configure-chat")
	id := fs.String("id", "", "notebook id")
	goal := fs.String("goal", "default", "chat goal (default, custom, learning_guide)")
	prompt := fs.String("prompt", "", "custom goal prompt")
	length := fs.String("length", "default", "response length (default, longer, shorter)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("configure-chat requires -id")
	}
	return emit(func() (any, error) {
		return client.ConfigureChat(ctx, *id, *goal, *prompt, *length)
	})
}

func sourcesCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("sources")
	id := fs.String("id", "", "notebook id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("sources requires -id")
	}
	return emit(func() (any, error) { return client.NotebookSources(ctx, *id) })
}

func addURLCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("add-url")
	id := fs.String("id", "", "notebook id")
	url := fs.String("url", "", "web page or YouTube URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("add-url requires -id")
	}
	return emit(func() (any, error) { return client.AddURLSource(ctx, *id, *url) })
}

func addTextCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("add-text")
	id := fs.String("id", "", "notebook id")
	title := fs.String("title", "", "source title")
	text := fs.String("text", "", "text content; - reads stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("add-text requires -id")
	}
	content := *text
	if content == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		content = string(data)
	}
	return emit(func() (any, error) { return client.AddTextSource(ctx, *id, content, *title) })
}

func addDriveCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("add-drive")
	id := fs.String("id", "", "notebook id")
	doc := fs.String("doc", "", "Drive document id")
	title := fs.String("title", "", "source title")
	mime := fs.String("mime", "", "Drive MIME type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("add-drive requires -id")
	}
	return emit(func() (any, error) {
		return client.AddDriveSource(ctx, *id, *doc, *title, *mime)
	})
}

func syncSourceCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("sync-source")
	source := fs.String("source", "", "source id")
	check := fs.Bool("check", false, "only check freshness, do not sync")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" {
		return errors.New("sync-source requires -source")
	}
	return emit(func() (any, error) {
		if *check {
			fresh, known, err := client.CheckSourceFreshness(ctx, *source)
			if err != nil {
				return nil, err
			}
			return map[string]any{"fresh": fresh, "known": known}, nil
		}
		return client.SyncDriveSource(ctx, *source)
	})
}

func deleteSourceCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("delete-source")
	source := fs.String("source", "", "source id")
	force := fs.Bool("force", false, "delete without confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" {
		return errors.New("delete-source requires -source")
	}
	if !*force {
		return errors.New("deletion is irreversible; re-run with -force to confirm")
	}
	return emit(func() (any, error) {
		return map[string]string{"deleted": *source}, client.DeleteSource(ctx, *source)
	})
}

func sourceGuideCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("source-guide")
	source := fs.String("source", "", "source id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" {
		return errors.New("source-guide requires -source")
	}
	return emit(func() (any, error) { return client.SourceGuide(ctx, *source) })
}

func sourceTextCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("source-text")
	source := fs.String("source", "", "source id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" {
		return errors.New("source-text requires -source")
	}
	return emit(func() (any, error) { return client.SourceFulltext(ctx, *source) })
}

func queryCommand(ctx context.Context, client *api.Client, cfg *config.Config, args []string) error {
	fs := newFlagSet("query")
	id := fs.String("id", "", "notebook id")
	question := fs.String("q", "", "question to ask")
	conversation := fs.String("conversation", "", "conversation id for follow-ups")
	sources := fs.String("sources", "", "comma-separated source ids (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("query requires -id")
	}

	var sourceIDs []string
	if *sources != "" {
		sourceIDs = strings.Split(*sources, ",")
	}
	return emit(func() (any, error) {
		return client.Query(ctx, api.QueryRequest{
			NotebookID:     *id,
			Question:       *question,
			SourceIDs:      sourceIDs,
			ConversationID: *conversation,
			Timeout:        cfg.QueryTimeout,
		})
	})
}

func clearHistoryCommand(client *api.Client, args []string) error {
	fs := newFlagSet("clear-history")
	conversation := fs.String("conversation", "", "conversation id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *conversation == "" {
		return errors.New("clear-history requires -conversation")
	}
	return emit(func() (any, error) {
		client.ClearHistory(*conversation)
		return map[string]string{"cleared": *conversation}, nil
	})
}

func researchCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("research")
	id := fs.String("id", "", "notebook id")
	query := fs.String("q", "", "research query")
	source := fs.String("source", "web", "research source (web, drive)")
	mode := fs.String("mode", "fast", "research mode (fast, deep)")
	task := fs.String("task", "", "poll an existing task instead of starting one")
	wait := fs.Bool("wait", false, "poll until the research completes")
	interval := fs.Duration("interval", 5*time.Second, "poll interval with -wait")
	maxWait := fs.Duration("max-wait", 5*time.Minute, "poll budget with -wait")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("research requires -id")
	}

	return emit(func() (any, error) {
		taskID := *task
		if taskID == "" {
			started, err := client.StartResearch(ctx, *id, *query, *source, *mode)
			if err != nil {
				return nil, err
			}
			if !*wait {
				return started, nil
			}
			taskID = started.TaskID
		}
		if *wait {
			return client.WaitForResearch(ctx, *id, taskID, *interval, *maxWait)
		}
		status, err := client.PollResearch(ctx, *id, taskID)
		if err != nil {
			return nil, err
		}
		if status == nil {
			return map[string]string{"status": "no_research"}, nil
		}
		return status, nil
	})
}

func researchImportCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("research-import")
	id := fs.String("id", "", "notebook id")
	task := fs.String("task", "", "research task id")
	indices := fs.String("results", "", "comma-separated result indices (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *task == "" {
		return errors.New("research-import requires -id and -task")
	}

	return emit(func() (any, error) {
		status, err := client.PollResearch(ctx, *id, *task)
		if err != nil {
			return nil, err
		}
		if status == nil {
			return nil, fmt.Errorf("research task %s not found", *task)
		}

		selected := status.Sources
		if *indices != "" {
			selected = nil
			wanted := map[string]bool{}
			for _, idx := range strings.Split(*indices, ",") {
				wanted[strings.TrimSpace(idx)] = true
			}
			for _, src := range status.Sources {
				if wanted[fmt.Sprintf("%d", src.Index)] {
					selected = append(selected, src)
				}
			}
		}
		return client.ImportResearch(ctx, *id, *task, selected)
	})
}

func studioCommand(ctx context.Context, client *api.Client, args []string) error {
	if len(args) == 0 {
		return errors.New("studio requires a subcommand: audio, video, report, status, delete")
	}
	sub, args := args[0], args[1:]

	switch sub {
	case "status":
		fs := newFlagSet("studio status")
		id := fs.String("id", "", "notebook id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("studio status requires -id")
		}
		return emit(func() (any, error) { return client.PollStudio(ctx, *id) })

	case "delete":
		fs := newFlagSet("studio delete")
		artifact := fs.String("artifact", "", "artifact id")
		force := fs.Bool("force", false, "delete without confirmation")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *artifact == "" {
			return errors.New("studio delete requires -artifact")
		}
		if !*force {
			return errors.New("deletion is irreversible; re-run with -force to confirm")
		}
		return emit(func() (any, error) {
			return map[string]string{"deleted": *artifact}, client.DeleteArtifact(ctx, *artifact)
		})

	case "audio":
		fs := newFlagSet("studio audio")
		id := fs.String("id", "", "notebook id")
		sources := fs.String("sources", "", "comma-separated source ids")
		format := fs.String("format", "deep_dive", "audio format")
		length := fs.String("length", "default", "audio length")
		language := fs.String("language", "en", "language code")
		focus := fs.String("focus", "", "focus prompt")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("studio audio requires -id")
		}
		return emit(func() (any, error) {
			ids, err := studioSourceIDs(ctx, client, *id, *sources)
			if err != nil {
				return nil, err
			}
			return client.CreateAudioOverview(ctx, *id, ids, *format, *length, *language, *focus)
		})

	case "video":
		fs := newFlagSet("studio video")
		id := fs.String("id", "", "notebook id")
		sources := fs.String("sources", "", "comma-separated source ids")
		format := fs.String("format", "explainer", "video format")
		style := fs.String("style", "auto_select", "visual style")
		language := fs.String("language", "en", "language code")
		focus := fs.String("focus", "", "focus prompt")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("studio video requires -id")
		}
		return emit(func() (any, error) {
			ids, err := studioSourceIDs(ctx, client, *id, *sources)
			if err != nil {
				return nil, err
			}
			return client.CreateVideoOverview(ctx, *id, ids, *format, *style, *language, *focus)
		})

	case "report":
		fs := newFlagSet("studio report")
		id := fs.String("id", "", "notebook id")
		sources := fs.String("sources", "", "comma-separated source ids")
		format := fs.String("format", "briefing_doc", "report format")
		prompt := fs.String("prompt", "", "custom format prompt")
		language := fs.String("language", "en", "language code")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("studio report requires -id")
		}
		return emit(func() (any, error) {
			ids, err := studioSourceIDs(ctx, client, *id, *sources)
			if err != nil {
				return nil, err
			}
			return client.CreateReport(ctx, *id, ids, *format, *prompt, *language)
		})

	default:
		return fmt.Errorf("unknown studio subcommand %q", sub)
	}
}

// studioSourceIDs resolves the -sources flag, defaulting to every source
// in the notebook.
func studioSourceIDs(ctx context.Context, client *api.Client, notebookID, flagValue string) ([]string, error) {
	if flagValue != "" {
		return strings.Split(flagValue, ","), nil
	}
	sources, err := client.NotebookSources(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sources))
	for _, src := range sources {
		ids = append(ids, src.ID)
	}
	return ids, nil
}

func printUsage() {
	fmt.Print(`notebooklm - NotebookLM from the command line

Usage: notebooklm <command> [flags]

Auth:
  auth                          log in with a Chrome window and cache credentials

Notebooks:
  list                          list notebooks
  create -title T               create a notebook
  rename -id N -title T         rename a notebook
  delete -id N -force           delete a notebook (irreversible)
  summary -id N                 AI summary and suggested topics
  configure-chat -id N [-goal G] [-prompt P] [-length L]

Sources:
  sources -id N                 list sources with types
  add-url -id N -url U          add a web page or YouTube video
  add-text -id N -text T        add pasted text (- reads stdin)
  add-drive -id N -doc D        add a Drive document
  sync-source -source S [-check]
  delete-source -source S -force
  source-guide -source S        AI summary and keywords for a source
  source-text -source S         full indexed text of a source

Query:
  query -id N -q Q [-conversation C] [-sources S1,S2]
  clear-history -conversation C

Research:
  research -id N -q Q [-source web|drive] [-mode fast|deep] [-wait]
  research -id N -task T [-wait]
  research-import -id N -task T [-results 0,2]

Studio:
  studio audio -id N [-format F] [-length L] [-focus P]
  studio video -id N [-format F] [-style S] [-focus P]
  studio report -id N [-format F] [-prompt P]
  studio status -id N
  studio delete -artifact A -force

Environment:
  NOTEBOOKLM_HOME, NOTEBOOKLM_BASE_URL, NOTEBOOKLM_BL,
  NOTEBOOKLM_QUERY_TIMEOUT, NOTEBOOKLM_DEBUG
`)
}
