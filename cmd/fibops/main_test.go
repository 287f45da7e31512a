package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jonwraymond/fibops/config"
	"github.com/jonwraymond/fibops/fib"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEval(t *testing.T) {
	out, err := run(t, "eval", "0", "1", "10", "20")
	if err != nil {
		t.Fatalf("eval error = %v", err)
	}
	want := "fib(0) = 0\nfib(1) = 1\nfib(10) = 55\nfib(20) = 6765\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestEval_Stats(t *testing.T) {
	out, err := run(t, "eval", "20", "20", "--stats")
	if err != nil {
		t.Fatalf("eval error = %v", err)
	}
	if !strings.Contains(out, "hits=1 misses=1 steps=19 entries=19") {
		t.Errorf("output = %q", out)
	}
}

func TestEval_InvalidInput(t *testing.T) {
	tests := [][]string{
		{"eval", "--", "-5"},
		{"eval", "-5"},
		{"eval", "10", "-1000"},
		{"eval", "ten"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, err := run(t, args...); !errors.Is(err, fib.ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestEval_UnknownFlagStillFails(t *testing.T) {
	_, err := run(t, "eval", "10", "--verbose")
	if err == nil || errors.Is(err, fib.ErrInvalidArgument) {
		t.Errorf("error = %v, want a plain flag error", err)
	}
}

func TestEval_RequiresArgs(t *testing.T) {
	if _, err := run(t, "eval"); err == nil {
		t.Error("eval without args should fail")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "fibops dev") {
		t.Errorf("output = %q", out)
	}
}

func TestNewEvaluator_Bounded(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.MaxEntries = 5

	ev := newEvaluator(cfg)
	v, err := ev.Evaluate(30)
	if err != nil || v.Int64() != 832040 {
		t.Fatalf("Evaluate(30) = %v, %v", v, err)
	}
	if got := ev.Stats().Entries; got != 5 {
		t.Errorf("Entries = %d, want 5", got)
	}
}
