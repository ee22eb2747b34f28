package akai

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one entry from a partition listing: a program, sample or
// other file living on an Akai-formatted disk.
type Record struct {
	Name  string
	Type  string
	Block int
	Size  int
}

// Volume groups the records whose names share the volume's name prefix.
type Volume struct {
	Name    string
	Records []Record
}

// Partition is one disk partition. Records whose names match no volume
// land in Unmatched.
type Partition struct {
	Number    int
	Volumes   []*Volume
	Unmatched []Record
}

// Disk is the assembled view of every readable partition.
type Disk struct {
	Partitions []*Partition
}

// PartitionLister reads raw directory listings from a disk image or
// physical device, one partition at a time. Partitions are numbered
// from 1. A lister reports errUnsupported-style failures by including
// "operation not supported" in the error text; BuildDisk treats that as
// the end of the partition table rather than a fault.
type PartitionLister interface {
	ListPartition(partition int) (volumes []string, entries []string, err error)
}

// unsupportedMarker is how the underlying tooling reports a partition
// number past the end of the disk.
const unsupportedMarker = "operation not supported"

// BuildDisk probes partitions starting at 1 until the lister reports
// the partition is unsupported. Any other error aborts the build.
func BuildDisk(lister PartitionLister) (*Disk, error) {
	disk := &Disk{}
	for num := 1; ; num++ {
		volumes, entries, err := lister.ListPartition(num)
		if err != nil {
			if strings.Contains(err.Error(), unsupportedMarker) {
				break
			}
			return nil, fmt.Errorf("list partition %d: %w", num, err)
		}
		part, err := buildPartition(num, volumes, entries)
		if err != nil {
			return nil, fmt.Errorf("partition %d: %w", num, err)
		}
		disk.Partitions = append(disk.Partitions, part)
	}
	return disk, nil
}

func buildPartition(num int, volumeNames []string, entries []string) (*Partition, error) {
	part := &Partition{Number: num}
	for _, name := range volumeNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		part.Volumes = append(part.Volumes, &Volume{Name: name})
	}
	for _, line := range entries {
		rec, ok, err := parseListingRow(line)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if vol := part.matchVolume(rec.Name); vol != nil {
			vol.Records = append(vol.Records, rec)
		} else {
			part.Unmatched = append(part.Unmatched, rec)
		}
	}
	return part, nil
}

// matchVolume assigns a record to the volume whose name is the longest
// prefix of the record name. Ties cannot occur since volume names are
// unique within a partition.
func (p *Partition) matchVolume(recordName string) *Volume {
	var best *Volume
	for _, vol := range p.Volumes {
		if !strings.HasPrefix(recordName, vol.Name) {
			continue
		}
		if best == nil || len(vol.Name) > len(best.Name) {
			best = vol
		}
	}
	return best
}

// Listing rows are fixed-column: type in [0:15), block in [15:25),
// size in [25:34), name from 35 on.
const (
	colTypeEnd  = 15
	colBlockEnd = 25
	colSizeEnd  = 34
	colName     = 35
)

func parseListingRow(line string) (Record, bool, error) {
	if len(line) < colName {
		return Record{}, false, nil
	}
	typ := strings.TrimSpace(line[:colTypeEnd])
	if typ == "" {
		return Record{}, false, nil
	}
	block, err := strconv.Atoi(strings.TrimSpace(line[colTypeEnd:colBlockEnd]))
	if err != nil {
		return Record{}, false, fmt.Errorf("bad block column in %q: %w", line, err)
	}
	size, err := strconv.Atoi(strings.TrimSpace(line[colBlockEnd:colSizeEnd]))
	if err != nil {
		return Record{}, false, fmt.Errorf("bad size column in %q: %w", line, err)
	}
	name := strings.TrimSpace(line[colName:])
	if name == "" {
		return Record{}, false, nil
	}
	return Record{Name: name, Type: typ, Block: block, Size: size}, true, nil
}
