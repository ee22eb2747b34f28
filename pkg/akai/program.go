package akai

import "fmt"

// Program is a parsed program header plus its keygroups. The program
// occupies the first keygroup-sized chunk of the raw data; keygroup i
// starts at chunk i+1. Each keygroup holds an owned copy of its chunk,
// so edits do not touch neighbouring keygroups until Serialize splices
// everything back together.
type Program struct {
	Header    *Header
	Keygroups []*Keygroup

	raw []byte // full nibble stream including keygroup chunks
}

// Keygroup is one keygroup header parsed from its own chunk copy.
type Keygroup struct {
	Header *Header

	raw []byte
}

// Sample is a parsed sample header.
type Sample struct {
	Header *Header
}

// ParseProgram parses a program dump. The GROUPS field of the program
// header determines how many keygroup chunks follow.
func ParseProgram(nibbles []byte) (*Program, error) {
	if len(nibbles) < KeygroupChunk {
		return nil, fmt.Errorf("program data %d nibbles, want at least %d: %w",
			len(nibbles), KeygroupChunk, ErrShortData)
	}
	raw := make([]byte, len(nibbles))
	copy(raw, nibbles)

	hdr, err := ParseHeader(raw[:KeygroupChunk], Leader, ProgramSpec)
	if err != nil {
		return nil, fmt.Errorf("parse program header: %w", err)
	}
	groups, err := hdr.Number("GROUPS")
	if err != nil {
		return nil, err
	}

	p := &Program{Header: hdr, raw: raw}
	for i := 0; i < groups; i++ {
		start := (i + 1) * KeygroupChunk
		end := start + KeygroupChunk
		if end > len(raw) {
			return nil, fmt.Errorf("keygroup %d needs nibbles [%d:%d], have %d: %w",
				i, start, end, len(raw), ErrShortData)
		}
		kg, err := parseKeygroup(raw[start:end])
		if err != nil {
			return nil, fmt.Errorf("parse keygroup %d: %w", i, err)
		}
		p.Keygroups = append(p.Keygroups, kg)
	}
	return p, nil
}

func parseKeygroup(chunk []byte) (*Keygroup, error) {
	raw := make([]byte, len(chunk))
	copy(raw, chunk)
	hdr, err := ParseHeader(raw, Leader, KeygroupSpec)
	if err != nil {
		return nil, err
	}
	return &Keygroup{Header: hdr, raw: raw}, nil
}

// Name returns the program name.
func (p *Program) Name() (string, error) { return p.Header.Text("PRNAME") }

// SetName sets the program name.
func (p *Program) SetName(name string) error { return p.Header.SetText("PRNAME", name) }

// Serialize rebuilds the full nibble stream: the program chunk followed
// by each keygroup chunk, picking up any field edits made since parse.
func (p *Program) Serialize() []byte {
	out := make([]byte, len(p.raw))
	copy(out, p.raw)
	copy(out[:KeygroupChunk], p.Header.Bytes())
	for i, kg := range p.Keygroups {
		start := (i + 1) * KeygroupChunk
		copy(out[start:start+KeygroupChunk], kg.Header.Bytes())
	}
	return out
}

// ParseSample parses a sample header dump.
func ParseSample(nibbles []byte) (*Sample, error) {
	hdr, err := ParseHeader(nibbles, Leader, SampleSpec)
	if err != nil {
		return nil, fmt.Errorf("parse sample header: %w", err)
	}
	return &Sample{Header: hdr}, nil
}

// Name returns the sample name.
func (s *Sample) Name() (string, error) { return s.Header.Text("SHNAME") }
