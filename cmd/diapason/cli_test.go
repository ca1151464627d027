package main_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"

	"github.com/farcloser/diapason/internal/testutils"
)

const rate = 44100

// expectContains returns a comparator verifying the output contains every substring.
func expectContains(substrs ...string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		for _, substr := range substrs {
			if !strings.Contains(stdout, substr) {
				testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
				testing.Fail()
			}
		}
	}
}

// expectIssue returns a comparator verifying that the given check was detected with the given severity.
func expectIssue(check, severity string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if strings.Contains(stdout, "check: "+check) &&
			strings.Contains(stdout, "detected: true") &&
			strings.Contains(stdout, "severity: "+severity) {
			return
		}

		testing.Log(
			fmt.Sprintf("expected issue %q with severity %q not found in output:\n%s", check, severity, stdout),
		)
		testing.Fail()
	}
}

func succeeds(comparator test.Comparator) func(test.Data, test.Helpers) *test.Expected {
	return func(_ test.Data, _ test.Helpers) *test.Expected {
		return &test.Expected{
			ExitCode: expect.ExitCodeSuccess,
			Output:   comparator,
		}
	}
}

func TestAnalyzeCLI(t *testing.T) {
	harmonics := []float64{0.4, 0.2, 0.1}
	inTune := testutils.WritePCM(t, "a440.pcm", testutils.Tone(440, rate, harmonics, 2*rate))
	sharp := testutils.WritePCM(t, "a452.pcm", testutils.Tone(452, rate, harmonics, 2*rate))
	silence := testutils.WritePCM(t, "silence.pcm", make([]float64, rate))

	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "analyze without arguments fails",
			Command:     test.Command("analyze", "--sample-rate", "44100"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "analyze without sample rate fails",
			Command:     test.Command("analyze", inTune),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "analyze with an unknown instrument fails",
			Command:     test.Command("analyze", "--sample-rate", "44100", "--instrument", "kazoo", inTune),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "analyze with an out of range window size index fails",
			Command:     test.Command("analyze", "--sample-rate", "44100", "--window-size-index", "9", inTune),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "analyze an in tune A4",
			Command:     test.Command("analyze", "--sample-rate", "44100", inTune),
			Expected:    succeeds(expectContains("A4", "worst: no issue", "over the last")),
		},
		{
			Description: "analyze a sharp A4 reports a severe deviation",
			Command:     test.Command("analyze", "--sample-rate", "44100", "--debug", sharp),
			Expected:    succeeds(expectIssue("deviation", "severe")),
		},
		{
			Description: "analyze against a fixed target",
			Command:     test.Command("analyze", "--sample-rate", "44100", "--target", "G4", "--checks", "deviation", inTune),
			Expected:    succeeds(expectContains("G4", "Far sharp of G4")),
		},
		{
			Description: "analyze with the go-dsp transform and a blackman window",
			Command: test.Command(
				"analyze", "--sample-rate", "44100", "--transform", "godsp", "--window", "blackman", inTune,
			),
			Expected: succeeds(expectContains("A4", "worst: no issue")),
		},
		{
			Description: "analyze silence",
			Command:     test.Command("analyze", "--sample-rate", "44100", silence),
			Expected:    succeeds(expectContains("no pitch detected")),
		},
	}

	testCase.Run(t)
}

func TestProcessCLI(t *testing.T) {
	wav := testutils.WriteWAV(t, "a440.wav", rate, testutils.Tone(440, rate, []float64{0.4, 0.2, 0.1}, 2*rate))
	low := testutils.WriteWAV(t, "e2.wav", rate, testutils.Tone(82.41, rate, []float64{0.2, 0.4, 0.3, 0.2}, 3*rate))

	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "process without arguments fails",
			Command:     test.Command("process"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "process nonexistent file fails",
			Command:     test.Command("process", "/nonexistent/path/file.flac"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "process a WAV file",
			Command:     test.Command("process", wav),
			Expected:    succeeds(expectContains("A4", "worst: no issue")),
		},
		{
			Description: "process a low guitar string with the guitar preset",
			Command:     test.Command("process", "--instrument", "guitar", low),
			Expected:    succeeds(expectContains("E2")),
		},
		{
			Description: "process with json output",
			Command:     test.Command("process", "--format", "json", "--debug", wav),
			Expected:    succeeds(expectContains("in_tune_ratio", "A4")),
		},
	}

	testCase.Run(t)
}

func TestListenCLI(t *testing.T) {
	tone := testutils.WritePCM(t, "a440.pcm", testutils.Tone(440, rate, []float64{0.4, 0.2, 0.1}, rate))

	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "listen prints one line per frame",
			Command:     test.Command("listen", "--sample-rate", "44100", tone),
			Expected: succeeds(func(stdout string, testing tig.T) {
				testing.Helper()

				// (44100 - 4096) / 3072 + 1 frames.
				lines := strings.Split(strings.TrimSpace(stdout), "\n")
				if len(lines) != 14 {
					testing.Log(fmt.Sprintf("expected 14 lines, got %d:\n%s", len(lines), stdout))
					testing.Fail()
				}

				if !strings.Contains(lines[len(lines)-1], "A4") || !strings.Contains(lines[len(lines)-1], "in tune") {
					testing.Log("last line is not an in tune A4: " + lines[len(lines)-1])
					testing.Fail()
				}
			}),
		},
		{
			Description: "listen in json mode",
			Command:     test.Command("listen", "--sample-rate", "44100", "--format", "json", tone),
			Expected:    succeeds(expectContains(`"state":"in tune"`, `"note":"A4"`)),
		},
		{
			Description: "listen rejects an unknown line format",
			Command:     test.Command("listen", "--sample-rate", "44100", "--format", "yaml", tone),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
	}

	testCase.Run(t)
}
