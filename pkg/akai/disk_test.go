package akai

import (
	"errors"
	"fmt"
	"testing"
)

// row formats a fixed-column listing line the way the disk tool prints
// them.
func row(typ string, block, size int, name string) string {
	return fmt.Sprintf("%-15s%-10d%-9d %s", typ, block, size, name)
}

type fakeLister struct {
	partitions map[int]struct {
		volumes []string
		entries []string
	}
	failAt  int
	failErr error
	calls   []int
}

func (f *fakeLister) ListPartition(partition int) ([]string, []string, error) {
	f.calls = append(f.calls, partition)
	if f.failAt != 0 && partition == f.failAt {
		return nil, nil, f.failErr
	}
	p, ok := f.partitions[partition]
	if !ok {
		return nil, nil, errors.New("akaitools: operation not supported")
	}
	return p.volumes, p.entries, nil
}

func newFakeLister() *fakeLister {
	return &fakeLister{partitions: map[int]struct {
		volumes []string
		entries []string
	}{}}
}

func (f *fakeLister) add(partition int, volumes []string, entries []string) {
	f.partitions[partition] = struct {
		volumes []string
		entries []string
	}{volumes, entries}
}

func TestBuildDiskStopsAtUnsupported(t *testing.T) {
	lister := newFakeLister()
	for p := 1; p <= 4; p++ {
		lister.add(p, []string{fmt.Sprintf("VOL%d", p)}, nil)
	}
	disk, err := BuildDisk(lister)
	if err != nil {
		t.Fatalf("BuildDisk: %v", err)
	}
	if len(disk.Partitions) != 4 {
		t.Fatalf("got %d partitions, want 4", len(disk.Partitions))
	}
	// The probe must have tried partition 5 and stopped there.
	want := []int{1, 2, 3, 4, 5}
	if len(lister.calls) != len(want) {
		t.Fatalf("probed %v, want %v", lister.calls, want)
	}
	for i, p := range want {
		if lister.calls[i] != p {
			t.Fatalf("probed %v, want %v", lister.calls, want)
		}
	}
}

func TestBuildDiskFatalError(t *testing.T) {
	lister := newFakeLister()
	lister.add(1, []string{"VOL1"}, nil)
	lister.failAt = 2
	lister.failErr = errors.New("read error on device")
	if _, err := BuildDisk(lister); err == nil {
		t.Fatal("BuildDisk ignored a fatal lister error")
	}
}

func TestBuildDiskVolumeAssignment(t *testing.T) {
	lister := newFakeLister()
	lister.add(1,
		[]string{"DRUMS", "DRUMS HARD"},
		[]string{
			row("S3000 PROGRAM", 10, 3072, "DRUMS KICK"),
			row("S3000 SAMPLE", 20, 81920, "DRUMS HARD SN"),
			row("S3000 SAMPLE", 30, 40960, "STRAY SAMPLE"),
		})
	disk, err := BuildDisk(lister)
	if err != nil {
		t.Fatalf("BuildDisk: %v", err)
	}
	part := disk.Partitions[0]
	if len(part.Volumes) != 2 {
		t.Fatalf("got %d volumes, want 2", len(part.Volumes))
	}

	drums := part.Volumes[0]
	if len(drums.Records) != 1 || drums.Records[0].Name != "DRUMS KICK" {
		t.Errorf("DRUMS records = %+v, want just DRUMS KICK", drums.Records)
	}
	// "DRUMS HARD SN" matches both volume names; the longer prefix wins.
	hard := part.Volumes[1]
	if len(hard.Records) != 1 || hard.Records[0].Name != "DRUMS HARD SN" {
		t.Errorf("DRUMS HARD records = %+v, want just DRUMS HARD SN", hard.Records)
	}
	if len(part.Unmatched) != 1 || part.Unmatched[0].Name != "STRAY SAMPLE" {
		t.Errorf("Unmatched = %+v, want just STRAY SAMPLE", part.Unmatched)
	}
}

func TestParseListingRow(t *testing.T) {
	rec, ok, err := parseListingRow(row("S3000 PROGRAM", 42, 3072, "PIANO 1"))
	if err != nil || !ok {
		t.Fatalf("parseListingRow: ok=%v err=%v", ok, err)
	}
	if rec.Type != "S3000 PROGRAM" || rec.Block != 42 || rec.Size != 3072 || rec.Name != "PIANO 1" {
		t.Errorf("record = %+v", rec)
	}

	if _, ok, err := parseListingRow("short line"); ok || err != nil {
		t.Errorf("short line: ok=%v err=%v, want skipped", ok, err)
	}
	if _, _, err := parseListingRow(row("S3000 SAMPLE", 0, 0, "X")[:25] + "notanum  X-NAME"); err == nil {
		t.Error("bad size column parsed without error")
	}
}
