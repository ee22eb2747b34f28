package akai

import (
	"bytes"
	"testing"
)

// buildProgramDump assembles a program chunk plus n keygroup chunks,
// naming each keygroup's first zone sample so tests can tell them apart.
func buildProgramDump(t *testing.T, name string, keygroups []string) []byte {
	t.Helper()
	prog, err := ParseHeader(zeroChunk(), Leader, ProgramSpec)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if err := prog.SetText("PRNAME", name); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if err := prog.SetNumber("GROUPS", len(keygroups)); err != nil {
		t.Fatalf("SetNumber: %v", err)
	}
	out := prog.Bytes()
	for i, sample := range keygroups {
		kg, err := ParseHeader(zeroChunk(), Leader, KeygroupSpec)
		if err != nil {
			t.Fatalf("ParseHeader keygroup: %v", err)
		}
		if err := kg.SetText("SNAME1", sample); err != nil {
			t.Fatalf("SetText: %v", err)
		}
		if err := kg.SetNumber("LONOTE", 36+12*i); err != nil {
			t.Fatalf("SetNumber: %v", err)
		}
		out = append(out, kg.Bytes()...)
	}
	return out
}

func TestParseProgram(t *testing.T) {
	dump := buildProgramDump(t, "SPLIT KIT", []string{"KICK 01", "SNARE 01"})
	prog, err := ParseProgram(dump)
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if name, _ := prog.Name(); name != "SPLIT KIT" {
		t.Errorf("Name = %q, want SPLIT KIT", name)
	}
	if len(prog.Keygroups) != 2 {
		t.Fatalf("got %d keygroups, want 2", len(prog.Keygroups))
	}
	for i, want := range []string{"KICK 01", "SNARE 01"} {
		got, err := prog.Keygroups[i].Header.Text("SNAME1")
		if err != nil {
			t.Fatalf("keygroup %d SNAME1: %v", i, err)
		}
		if got != want {
			t.Errorf("keygroup %d SNAME1 = %q, want %q", i, got, want)
		}
	}
	if lo, _ := prog.Keygroups[1].Header.Number("LONOTE"); lo != 48 {
		t.Errorf("keygroup 1 LONOTE = %d, want 48", lo)
	}
}

func TestParseProgramTruncated(t *testing.T) {
	dump := buildProgramDump(t, "CUT", []string{"A", "B"})
	// Drop the tail of the second keygroup.
	if _, err := ParseProgram(dump[:len(dump)-100]); err == nil {
		t.Error("ParseProgram accepted a dump missing keygroup data")
	}
	if _, err := ParseProgram(dump[:50]); err == nil {
		t.Error("ParseProgram accepted a dump shorter than one chunk")
	}
}

func TestProgramSerializeRoundTrip(t *testing.T) {
	dump := buildProgramDump(t, "ORIGINAL", []string{"ZONE A", "ZONE B"})
	prog, err := ParseProgram(dump)
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if !bytes.Equal(prog.Serialize(), dump) {
		t.Fatal("Serialize of an unmodified program differs from the input")
	}

	if err := prog.SetName("RENAMED"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	if err := prog.Keygroups[0].Header.SetNumber("HINOTE", 71); err != nil {
		t.Fatalf("SetNumber: %v", err)
	}
	again, err := ParseProgram(prog.Serialize())
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if name, _ := again.Name(); name != "RENAMED" {
		t.Errorf("Name after round trip = %q, want RENAMED", name)
	}
	if hi, _ := again.Keygroups[0].Header.Number("HINOTE"); hi != 71 {
		t.Errorf("HINOTE after round trip = %d, want 71", hi)
	}
	// The untouched keygroup must survive byte for byte.
	if got, _ := again.Keygroups[1].Header.Text("SNAME1"); got != "ZONE B" {
		t.Errorf("keygroup 1 SNAME1 = %q, want ZONE B", got)
	}
}

func TestParseSample(t *testing.T) {
	hdr, err := ParseHeader(zeroChunk(), Leader, SampleSpec)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if err := hdr.SetText("SHNAME", "CELLO C3"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if err := hdr.SetNumber("SSRATE", 44100); err != nil {
		t.Fatalf("SetNumber: %v", err)
	}
	if err := hdr.SetNumber("SLNGTH", 250000); err != nil {
		t.Fatalf("SetNumber: %v", err)
	}

	sample, err := ParseSample(hdr.Bytes())
	if err != nil {
		t.Fatalf("ParseSample: %v", err)
	}
	if name, _ := sample.Name(); name != "CELLO C3" {
		t.Errorf("Name = %q, want CELLO C3", name)
	}
	if rate, _ := sample.Header.Number("SSRATE"); rate != 44100 {
		t.Errorf("SSRATE = %d, want 44100", rate)
	}
	if length, _ := sample.Header.Number("SLNGTH"); length != 250000 {
		t.Errorf("SLNGTH = %d, want 250000", length)
	}
}
