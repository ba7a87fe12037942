package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
	"github.com/korvet-audio/korvet/midi"
	"github.com/korvet-audio/korvet/oto"
	"github.com/korvet-audio/korvet/seq"
	"github.com/korvet-audio/korvet/synth"
	"github.com/korvet-audio/korvet/version"
)

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the same directory where the original pattern file is.")
	play := flag.Bool("p", false, "Render the input patterns and play them (default behaviour when no other output is defined).")
	live := flag.Bool("i", false, "Play live: run the scheduler against the audio device instead of rendering first. Stops on interrupt.")
	loops := flag.Int("l", 4, "Number of pattern cycles to render.")
	rawOut := flag.Bool("r", false, "Output the rendered pattern as .raw file. By default, saves stereo float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered pattern as .wav file. By default, saves stereo float32 buffer to disk.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	midiPrefix := flag.String("m", "", "In live mode, open the first MIDI input whose name starts with this prefix and trigger drums from it.")
	midiFirst := flag.Bool("f", false, "In live mode, open the first available MIDI input.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut && !*live {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	var audioContext korvet.AudioContext
	if *play || *live {
		var err error
		audioContext, err = oto.NewContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
			os.Exit(1)
		}
	}
	process := func(filename string) error {
		output := func(extension string, contents []byte) error {
			if *stdout {
				fmt.Print(contents)
				return nil
			}
			_, name := filepath.Split(filename)
			dir := *directory
			if dir == "" {
				var err error
				dir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
				}
			}
			name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
			f := filepath.Join(dir, name)
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		inputBytes, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("could not read file %v: %v", filename, err)
		}
		pattern, err := korvet.ParsePattern(inputBytes)
		if err != nil {
			return err
		}
		if *live {
			return playLive(audioContext, pattern, *midiPrefix, *midiFirst)
		}
		buffer, err := seq.Render(pattern, *loops)
		if err != nil {
			return fmt.Errorf("rendering failed: %v", err)
		}
		var playWaiter korvet.CloserWaiter
		if *play {
			playWaiter = audioContext.Play(buffer.Source())
		}
		if *rawOut {
			raw, err := buffer.Raw(*pcm)
			if err != nil {
				return fmt.Errorf("could not generate .raw file: %v", err)
			}
			if err := output(".raw", raw); err != nil {
				return fmt.Errorf("error outputting .raw file: %v", err)
			}
		}
		if *wavOut {
			wav, err := buffer.Wav(*pcm)
			if err != nil {
				return fmt.Errorf("could not generate .wav file: %v", err)
			}
			if err := output(".wav", wav); err != nil {
				return fmt.Errorf("error outputting .wav file: %v", err)
			}
		}
		if *play {
			playWaiter.Wait()
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			jsonfiles, err := filepath.Glob(filepath.Join(param, "*.json"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for json files: %v\n", param, err)
				retval = 1
				continue
			}
			ymlfiles, err := filepath.Glob(filepath.Join(param, "*.yml"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for yml files: %v\n", param, err)
				retval = 1
				continue
			}
			files := append(ymlfiles, jsonfiles...)
			for _, file := range files {
				err := process(file)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			err := process(param)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

// playLive streams the graph straight to the device and lets the scheduler
// fire triggers in real time, optionally alongside a MIDI input. Runs until
// interrupted.
func playLive(audioContext korvet.AudioContext, pattern *korvet.Pattern, midiPrefix string, midiFirst bool) error {
	ctx := graph.NewContext(44100, 0.9)
	rack := synth.NewRack(ctx)
	scheduler := seq.NewScheduler(ctx, rack)
	player := audioContext.Play(ctx)
	defer player.Close()
	if midiPrefix != "" || midiFirst {
		midiContext := midi.NewContext(ctx, rack)
		defer midiContext.Close()
		if err := midiContext.TryToOpenBy(midiPrefix, midiFirst); err != nil {
			fmt.Fprintf(os.Stderr, "%v; continuing without MIDI\n", err)
		}
	}
	scheduler.Start(pattern, nil)
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	<-sigc
	scheduler.Stop()
	rack.Dispose()
	return ctx.Close()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Korvet command line utility for playing .json/.yml drum pattern files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
