package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flaneur2020/pngme/pngme"
	"github.com/flaneur2020/pngme/pngme/logger"
	"github.com/flaneur2020/pngme/pngme/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	verbose    bool
	compress   bool
	inPlace    bool
	compressed bool
	removeAll  bool
	jobs       int
	suffix     string
	noProgress bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Defining the flags also resets the
// package-level flag variables to their defaults.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pngme",
		Short:         "Hide and recover messages in PNG chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logger.ParseLogLevel(logLevel)
			if err != nil {
				return err
			}
			if verbose && level < logger.LogLevelInfo {
				level = logger.LogLevelInfo
			}
			logger.SetLogLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level: silent, error, warn, info or debug")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shortcut for --log-level=info")

	// encode command
	encodeCmd := &cobra.Command{
		Use:   "encode <FILE> <CHUNK_TYPE> <MESSAGE> [OUTPUT]",
		Short: "Hide a message in a new chunk appended to the file",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  runEncode,
	}
	encodeCmd.Flags().BoolVar(&compress, "compress", false, "zlib-compress the message before storing it")
	encodeCmd.Flags().BoolVar(&inPlace, "in-place", false, "Overwrite FILE when no OUTPUT is given")

	// decode command
	decodeCmd := &cobra.Command{
		Use:   "decode <FILE> <CHUNK_TYPE>",
		Short: "Print the message stored in the first chunk of the given type",
		Args:  cobra.ExactArgs(2),
		RunE:  runDecode,
	}
	decodeCmd.Flags().BoolVar(&compressed, "compressed", false, "The message was stored with --compress")

	// remove command
	removeCmd := &cobra.Command{
		Use:   "remove <FILE> <CHUNK_TYPE>",
		Short: "Remove the first chunk of the given type from the file",
		Args:  cobra.ExactArgs(2),
		RunE:  runRemove,
	}
	removeCmd.Flags().BoolVar(&removeAll, "all", false, "Remove every chunk of the given type")

	// print command
	printCmd := &cobra.Command{
		Use:   "print <FILE>",
		Short: "List the chunks of a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrint,
	}

	// batch-encode command
	batchCmd := &cobra.Command{
		Use:   "batch-encode <CHUNK_TYPE> <MESSAGE> <FILE>...",
		Short: "Hide the same message in many files",
		Args:  cobra.MinimumNArgs(3),
		RunE:  runBatchEncode,
	}
	batchCmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Number of files processed concurrently")
	batchCmd.Flags().StringVar(&suffix, "suffix", ".pngme", "Suffix inserted before the extension of each output file; empty overwrites the input")
	batchCmd.Flags().BoolVar(&compress, "compress", false, "zlib-compress the message before storing it")
	batchCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bar (progress is enabled by default)")

	rootCmd.AddCommand(encodeCmd, decodeCmd, removeCmd, printCmd, batchCmd)
	return rootCmd
}

func newEditor() pngme.Editor {
	return pngme.NewEditor(storage.NewLocalStorage())
}

func runEncode(cmd *cobra.Command, args []string) error {
	req := pngme.EncodeRequest{
		Path:      args[0],
		ChunkType: args[1],
		Message:   args[2],
		InPlace:   inPlace,
		Compress:  compress,
	}
	if len(args) > 3 {
		req.Output = args[3]
	}

	png, err := newEditor().Encode(context.Background(), req)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), png)
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	msg, err := newEditor().Decode(context.Background(), args[0], args[1], compressed)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	removed, err := newEditor().Remove(context.Background(), args[0], args[1], removeAll)
	if err != nil {
		return err
	}

	for _, c := range removed {
		fmt.Fprintln(cmd.OutOrStdout(), c)
	}
	return nil
}

func runPrint(cmd *cobra.Command, args []string) error {
	out, err := newEditor().Print(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// outputPath inserts suffix before the file extension: a.png -> a.pngme.png
func outputPath(path, suffix string) string {
	if suffix == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

func runBatchEncode(cmd *cobra.Command, args []string) error {
	chunkType, message, files := args[0], args[1], args[2:]

	var batchJobs []*pngme.BatchJob
	for _, f := range files {
		batchJobs = append(batchJobs, &pngme.BatchJob{
			Path:       f,
			OutputPath: outputPath(f, suffix),
		})
	}

	var progressCallback pngme.ProgressCallback
	var bar *progressbar.ProgressBar
	if !noProgress {
		bar = progressbar.Default(int64(len(batchJobs)), fmt.Sprintf("Encoding %d files", len(batchJobs)))
		progressCallback = func(current, total int64) {
			bar.Set64(current)
		}
	}

	encoder := pngme.NewBatchEncoder(newEditor())
	stats, err := encoder.Encode(context.Background(), batchJobs, pngme.BatchOptions{
		ChunkType: chunkType,
		Message:   message,
		Compress:  compress,
		Jobs:      jobs,
	}, progressCallback)
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Encoded %d/%d files (%d bytes total)", stats.EncodedFiles, stats.TotalFiles, stats.TotalBytes)
	if stats.FailedFiles > 0 {
		fmt.Fprintf(out, " (%d failed)", stats.FailedFiles)
	}
	fmt.Fprintln(out)
	return nil
}
