package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/okian/pacer/internal/capture"
	"github.com/okian/pacer/internal/domain/comparison"
	"github.com/okian/pacer/internal/domain/model"
	"github.com/okian/pacer/internal/submitter"
)

// defaultRecordSeconds applies when stdin is not a terminal and no
// --seconds was given.
const defaultRecordSeconds = 5

var (
	analyzeSport   string
	analyzeMetric  float64
	analyzeFile    string
	analyzeDevice  string
	analyzeSeconds float64
	analyzeLast    float64
	analyzeNoFrame bool
	analyzeProbe   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Record (or load) an attempt and analyze it",
	Long: `Record an attempt from the camera, or pass --file to upload an existing video.

Recording stops when you press Enter, or after --seconds when set.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeSport, "sport", "s", "", "Sport key (see `pacer leads`)")
	f.Float64VarP(&analyzeMetric, "metric", "m", 0, "Your reported metric (distance, time or total)")
	f.StringVarP(&analyzeFile, "file", "f", "", "Upload this video instead of recording")
	f.StringVar(&analyzeDevice, "device", capture.DefaultDevice, "Camera device")
	f.Float64Var(&analyzeSeconds, "seconds", 0, "Stop recording after this many seconds")
	f.Float64Var(&analyzeLast, "last", 0, "Your previous metric, to show progress")
	f.BoolVar(&analyzeNoFrame, "no-frame", false, "Do not extract a still frame")
	f.BoolVar(&analyzeProbe, "probe", false, "Ask the remote feedback service directly")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()

	video, duration, release, err := obtainVideo(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()

	sub := model.Submission{
		Sport:           analyzeSport,
		ReportedMetric:  analyzeMetric,
		DurationSeconds: duration,
	}
	if video != nil {
		part, err := video.Part()
		if err != nil {
			return err
		}
		sub.Video = part
		if !analyzeNoFrame {
			still, err := capture.NewFrameExtractor(newDecoder()).Extract(ctx, *video)
			if err != nil {
				return err
			}
			sub.Frame = still.Part()
		}
	}

	client := submitter.New(serverURL)
	s := newSpinner(cmd.ErrOrStderr(), " Analyzing attempt...")
	s.Start()
	if analyzeProbe {
		text, err := client.Probe(ctx, sub)
		s.Stop()
		if err != nil {
			return fmt.Errorf("probe failed: %w", err)
		}
		fmt.Fprintln(out, text)
		return nil
	}
	resp, err := client.Analyze(ctx, sub)
	s.Stop()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if jsonOutput {
		return printJSON(out, resp)
	}
	printAnalysis(out, resp)
	if cmd.Flags().Changed("last") {
		printProgress(out, comparison.Progress(analyzeLast, analyzeMetric))
	}
	return nil
}

// obtainVideo returns the user's file or a fresh recording. release frees
// the device and temp artifacts.
func obtainVideo(ctx context.Context, cmd *cobra.Command) (*capture.Artifact, float64, func(), error) {
	noop := func() {}
	if analyzeFile != "" {
		a, err := capture.ArtifactFromFile(analyzeFile)
		if err != nil {
			return nil, 0, noop, err
		}
		return &a, 0, noop, nil
	}

	rec := capture.NewRecorder(newSource(analyzeDevice))
	release := func() { _ = rec.Close() }
	if err := rec.StartCapture(ctx); err != nil {
		release()
		if errors.Is(err, capture.ErrDeviceDenied) {
			_, _ = color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "Camera access denied. You can upload a video instead with --file.")
		}
		return nil, 0, noop, err
	}
	if err := rec.BeginRecording(ctx); err != nil {
		release()
		return nil, 0, noop, err
	}

	waitForStop(ctx, cmd.InOrStdin(), cmd.ErrOrStderr())
	r := <-rec.EndRecording()
	if r.Err != nil {
		release()
		return nil, 0, noop, r.Err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %.1fs (%d bytes)\n", r.Duration, r.Video.Size)
	return &r.Video, r.Duration, release, nil
}

func waitForStop(ctx context.Context, in io.Reader, status io.Writer) {
	seconds := analyzeSeconds
	if seconds <= 0 && !interactive(in) {
		seconds = defaultRecordSeconds
	}

	var timer <-chan time.Time
	if seconds > 0 {
		fmt.Fprintf(status, "Recording for %.1fs...\n", seconds)
		timer = time.After(time.Duration(seconds * float64(time.Second)))
	} else {
		fmt.Fprintln(status, "Recording... press Enter to stop.")
	}

	enter := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(in).ReadString('\n')
		close(enter)
	}()

	select {
	case <-ctx.Done():
	case <-timer:
	case <-enter:
	}
}

func interactive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newSpinner(w io.Writer, suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = suffix
	return s
}
