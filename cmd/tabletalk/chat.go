package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive schema chat session",
	Long: `Start a chat session against the scanned metadata. Ask questions in
plain language; slash commands handle housekeeping:

  /scan <directory>   scan CSV/Parquet files into the metadata store
  /status             show store and session status
  /export <path>      write a schema report (.json, .yaml or .md)
  /clear              reset the conversation history
  /help               show this command list
  /exit, /quit        leave the session`,
}

func init() {
	chatCmd.RunE = func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()
		return runChat(cmd.Context(), a)
	}
}

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	infoColor   = color.New(color.FgHiBlack)
	errColor    = color.New(color.FgRed)
	okColor     = color.New(color.FgGreen)
)

func runChat(ctx context.Context, a *app) error {
	files, err := a.repo.ListFiles(ctx)
	if err != nil {
		return err
	}

	okColor.Println("TableTalk — chat with your file schemas")
	if len(files) == 0 {
		infoColor.Println("No files scanned yet. Run /scan <directory> to get started.")
	} else {
		infoColor.Printf("%d file(s) in the metadata store. Type /help for commands.\n", len(files))
	}
	if !a.semantic.Available() {
		infoColor.Println("Semantic search disabled (no embedding backend).")
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		promptColor.Print("you> ")
		if !in.Scan() {
			fmt.Println()
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if done := a.handleCommand(ctx, line); done {
				return nil
			}
			continue
		}

		answer, err := a.agent.Ask(ctx, line)
		if err != nil {
			errColor.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
}

// handleCommand runs one slash command. Returns true when the session
// should end.
func (a *app) handleCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case "/exit", "/quit":
		infoColor.Println("bye")
		return true

	case "/help":
		fmt.Println(chatCmd.Long)

	case "/scan":
		if len(args) == 0 {
			errColor.Println("usage: /scan <directory>")
			break
		}
		a.runScan(ctx, args[0])

	case "/status":
		a.printStatus(ctx)

	case "/export":
		if len(args) == 0 {
			errColor.Println("usage: /export <path> (.json, .yaml or .md)")
			break
		}
		if err := a.exporter.ExportFile(ctx, args[0]); err != nil {
			errColor.Printf("export failed: %v\n", err)
			break
		}
		okColor.Printf("wrote %s\n", args[0])

	case "/clear":
		a.agent.Reset()
		okColor.Println("conversation cleared")

	default:
		errColor.Printf("unknown command %s, try /help\n", command)
	}
	return false
}

func (a *app) runScan(ctx context.Context, dir string) {
	result, err := a.scanner.ScanDirectory(ctx, dir)
	if err != nil {
		errColor.Printf("scan failed: %v\n", err)
		return
	}
	okColor.Printf("scanned %d file(s), %d column(s)\n", result.FilesScanned, result.ColumnsFound)
	for _, skipped := range result.Skipped {
		infoColor.Printf("skipped %s: %s\n", skipped.Path, skipped.Reason)
	}
}

func (a *app) printStatus(ctx context.Context) {
	files, err := a.repo.ListFiles(ctx)
	if err != nil {
		errColor.Printf("status failed: %v\n", err)
		return
	}

	var columns int
	var rows int64
	for _, f := range files {
		columns += f.ColumnCount
		rows += f.TotalRows
	}

	fmt.Printf("files: %d, columns: %d, rows: %d\n", len(files), columns, rows)
	fmt.Printf("database: %s\n", a.cfg.DatabasePath)
	fmt.Printf("model: %s @ %s\n", a.cfg.LLM.Model, a.cfg.LLM.Endpoint)
	if a.semantic.Available() {
		fmt.Printf("embeddings: %s\n", a.cfg.Embedding.Model)
	} else {
		fmt.Println("embeddings: disabled")
	}
	fmt.Printf("session: %s (%d messages)\n", a.agent.SessionID(), a.agent.HistoryLength())

	a.logger.Debug("Status reported",
		zap.Int("files", len(files)),
		zap.Int("columns", columns))
}
