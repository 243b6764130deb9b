package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fpang/brushline/internal/cli"
	"github.com/fpang/brushline/internal/dispatch"
	"github.com/fpang/brushline/internal/vision"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Subcommand flags
var (
	requestFlag     string
	outDirFlag      string
	concurrencyFlag int
	jsonFlag        bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <instruction>",
	Short: "Show the command an instruction parses to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend(cmd)
		if err != nil {
			return err
		}
		parsed, err := b.ParseCommand(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(parsed)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [image...]",
	Short: "Apply an instruction to one or more images",
	Long: `Edit applies the same instruction to every image given. Images are processed
concurrently and each result is written next to its input as
<name>-edited.png (<name>-jpg-edited.png for a JPEG input), or into --out. With no images a file picker opens; with no
--request the instruction is read from the terminal.`,
	RunE: runEdit,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Describe an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, imageData, err := backendAndImage(cmd, args[0])
		if err != nil {
			return err
		}
		analysis, err := b.Analyze(cmd.Context(), imageData)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(analysis)
		}
		fmt.Print(cli.FormatAnalysis(analysis))
		return nil
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <image>",
	Short: "Suggest edits for an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, imageData, err := backendAndImage(cmd, args[0])
		if err != nil {
			return err
		}
		suggestions, err := b.Suggest(cmd.Context(), imageData)
		if err != nil {
			return err
		}
		for i, s := range suggestions {
			fmt.Printf("%d. %s\n", i+1, s)
		}
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <image> [message]",
	Short: "Talk about an image",
	Long: `Chat sends one message about the image, or starts an interactive
conversation when no message is given. Type "exit" or press Ctrl-D to stop.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

var testKeyCmd = &cobra.Command{
	Use:   "test-key",
	Short: "Check that the API key is accepted by the provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend(cmd)
		if err != nil {
			return err
		}
		if err := b.TestKey(cmd.Context()); err != nil {
			fmt.Fprintln(os.Stderr, cli.KeyErrorHint(err))
			return err
		}
		fmt.Println("API key is valid")
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <image>",
	Short: "Show image dimensions, format and camera details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, imageData, err := backendAndImage(cmd, args[0])
		if err != nil {
			return err
		}
		info, err := b.Info(cmd.Context(), imageData)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(info)
		}
		fmt.Print(cli.FormatInfo(info))
		return nil
	},
}

func init() {
	editCmd.Flags().StringVarP(&requestFlag, "request", "r", "", "Edit instruction, e.g. \"increase the contrast\"")
	editCmd.Flags().StringVarP(&outDirFlag, "out", "o", "", "Directory for edited images (default: next to each input)")
	editCmd.Flags().IntVarP(&concurrencyFlag, "concurrency", "j", 4, "Images edited at once")

	analyzeCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print JSON")
	infoCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print JSON")
}

func backendAndImage(cmd *cobra.Command, path string) (backend, string, error) {
	imageData, err := cli.ReadImage(path)
	if err != nil {
		return nil, "", err
	}
	b, err := newBackend(cmd)
	if err != nil {
		return nil, "", err
	}
	return b, imageData, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runEdit(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		picked, err := cli.PickImages()
		if err != nil {
			return err
		}
		paths = picked
	}
	if len(paths) == 0 {
		return errors.New("no images selected")
	}

	request := requestFlag
	if request == "" {
		line, err := cli.PromptLine(os.Stdin, os.Stdout, "What should change? ")
		if err != nil {
			return fmt.Errorf("read instruction: %w", err)
		}
		request = line
	}
	if request == "" {
		return errors.New("an edit instruction is required")
	}

	if outDirFlag != "" {
		if err := os.MkdirAll(outDirFlag, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	b, err := newBackend(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	var mu sync.Mutex
	applied := 0
	written := map[string]bool{}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(concurrencyFlag, 1))
	for _, path := range paths {
		g.Go(func() error {
			imageData, err := cli.ReadImage(path)
			if err != nil {
				return err
			}
			res, err := b.Edit(ctx, request, imageData)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if res.Outcome != dispatch.OutcomeApplied {
				fmt.Printf("%s: %s\n", path, res.Description)
				return nil
			}
			out := cli.UniquePath(cli.OutputPath(path, outDirFlag, res.EditedImageData), written)
			if err := cli.WriteImage(out, res.EditedImageData); err != nil {
				return err
			}
			applied++
			fmt.Printf("%s -> %s: %s\n", path, out, res.Description)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().
		Int("images", len(paths)).
		Int("applied", applied).
		Str("elapsed", cli.FormatDuration(time.Since(start))).
		Msg("Edit complete")
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	b, imageData, err := backendAndImage(cmd, args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if len(args) > 1 {
		reply, err := b.Chat(ctx, strings.Join(args[1:], " "), imageData, nil)
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	}

	var history []vision.Turn
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			return nil
		}
		reply, err := b.Chat(ctx, message, imageData, history)
		if err != nil {
			return err
		}
		fmt.Println(reply)
		history = append(history,
			vision.Turn{Role: "user", Content: message},
			vision.Turn{Role: "assistant", Content: reply})
	}
}
